// Package docs holds the Swagger 2.0 document served at /swagger/*. It is kept
// in the layout swag init produces and is maintained by hand alongside the
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Yatube maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "description": "All posts, newest first, ten per page",
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Latest posts",
                "parameters": [
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"page_obj": {"$ref": "#/definitions/service.PostPage"}}}}
                }
            }
        },
        "/group/{slug}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Posts of a group",
                "parameters": [
                    {"type": "string", "description": "Group slug", "name": "slug", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"group": {"$ref": "#/definitions/models.Group"}, "page_obj": {"$ref": "#/definitions/service.PostPage"}}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/follow/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Posts by followed authors",
                "parameters": [
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"page_obj": {"$ref": "#/definitions/service.PostPage"}}}},
                    "302": {"description": "Redirect to login"}
                }
            }
        },
        "/posts/{id}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "One post with its comments",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.DetailView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/create/": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Publish a post",
                "parameters": [
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Image", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "Form with errors"},
                    "302": {"description": "Redirect to the author's profile"}
                }
            }
        },
        "/posts/{id}/edit/": {
            "post": {
                "description": "Only the author may edit; anyone else is redirected to the post.",
                "consumes": ["multipart/form-data"],
                "tags": ["posts"],
                "summary": "Edit a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Post text", "name": "text", "in": "formData", "required": true},
                    {"type": "integer", "description": "Group ID", "name": "group", "in": "formData"},
                    {"type": "file", "description": "Replacement image", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "302": {"description": "Redirect to the post"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/posts/{id}/comment/": {
            "post": {
                "description": "Empty comments are dropped without an error.",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["posts"],
                "summary": "Comment on a post",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Comment text", "name": "text", "in": "formData", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the post"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile/{username}/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "An author's posts",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true},
                    {"type": "integer", "description": "Page number", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ProfileView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile/{username}/follow/": {
            "post": {
                "tags": ["profile"],
                "summary": "Follow an author",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the profile"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/profile/{username}/unfollow/": {
            "post": {
                "tags": ["profile"],
                "summary": "Stop following an author",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the profile"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/signup/": {
            "post": {
                "description": "Registers the user, logs them in and redirects to the index.",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Create an account",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData"},
                    {"type": "string", "description": "First name", "name": "first_name", "in": "formData"},
                    {"type": "string", "description": "Last name", "name": "last_name", "in": "formData"},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Form with errors"},
                    "302": {"description": "Redirect to /"}
                }
            }
        },
        "/auth/login/": {
            "post": {
                "description": "Sets the session cookie and redirects to next, when it is a local path.",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"type": "string", "description": "Username", "name": "username", "in": "formData", "required": true},
                    {"type": "string", "description": "Password", "name": "password", "in": "formData", "required": true},
                    {"type": "string", "description": "Where to go after login", "name": "next", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Form with errors"},
                    "302": {"description": "Redirect to next or /"}
                }
            }
        },
        "/auth/logout/": {
            "post": {
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/groups/": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a group",
                "parameters": [
                    {"type": "string", "description": "Title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Slug", "name": "slug", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "description", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Group"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/groups/{slug}/delete/": {
            "post": {
                "description": "The group's posts remain, without a group.",
                "tags": ["admin"],
                "summary": "Delete a group",
                "parameters": [
                    {"type": "string", "description": "Group slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the dashboard"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/posts/{id}/delete/": {
            "post": {
                "tags": ["admin"],
                "summary": "Delete a post and its comments",
                "parameters": [
                    {"type": "integer", "description": "Post ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Redirect to the dashboard"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/cache/clear/": {
            "post": {
                "tags": ["admin"],
                "summary": "Drop every cached page",
                "responses": {
                    "302": {"description": "Redirect to the dashboard"}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "date_joined": {"type": "string"}
            }
        },
        "models.Group": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "slug": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "models.Post": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "text": {"type": "string"},
                "pub_date": {"type": "string"},
                "image": {"type": "string"},
                "thumbnail": {"type": "string"},
                "group_id": {"type": "integer"},
                "group": {"$ref": "#/definitions/models.Group"},
                "author_id": {"type": "integer"},
                "author": {"$ref": "#/definitions/models.User"}
            }
        },
        "models.Comment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "post_id": {"type": "integer"},
                "author_id": {"type": "integer"},
                "author": {"$ref": "#/definitions/models.User"},
                "text": {"type": "string"},
                "created": {"type": "string"}
            }
        },
        "service.PostPage": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}},
                "number": {"type": "integer"},
                "num_pages": {"type": "integer"},
                "count": {"type": "integer"},
                "has_next": {"type": "boolean"},
                "has_previous": {"type": "boolean"},
                "next_page_number": {"type": "integer"},
                "previous_page_number": {"type": "integer"}
            }
        },
        "service.ProfileView": {
            "type": "object",
            "properties": {
                "author": {"$ref": "#/definitions/models.User"},
                "post_count": {"type": "integer"},
                "following": {"type": "boolean"},
                "page_obj": {"$ref": "#/definitions/service.PostPage"}
            }
        },
        "service.DetailView": {
            "type": "object",
            "properties": {
                "post": {"$ref": "#/definitions/models.Post"},
                "comments": {"type": "array", "items": {"$ref": "#/definitions/models.Comment"}},
                "author_post_count": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Yatube API",
	Description:      "Blog with posts, groups, comments and follows. Every page also answers with JSON when the client accepts application/json.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
