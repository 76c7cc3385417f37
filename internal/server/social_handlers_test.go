package server

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, env *testEnv, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := env.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "mia")
	post := testutil.CreatePost(t, env.db, author, nil, "hello")
	commentURL := fmt.Sprintf("/posts/%d/comment/", post.ID)

	t.Run("anonymous GET is sent to login", func(t *testing.T) {
		resp := env.get(commentURL)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/auth/login/?next="+commentURL, resp.Header.Get("Location"))
	})

	t.Run("anonymous POST creates nothing", func(t *testing.T) {
		resp := env.postForm(commentURL, url.Values{"text": {"drive-by"}})
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Zero(t, countRows(t, env, &models.Comment{}, ""))
	})

	t.Run("valid comment is stored", func(t *testing.T) {
		resp := env.postForm(commentURL, url.Values{"text": {"great post"}}, asUser(env, reader))
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
		assert.EqualValues(t, 1, countRows(t, env, &models.Comment{}, "author_id = ? AND text = ?", reader.ID, "great post"))
	})

	t.Run("empty comment is dropped silently", func(t *testing.T) {
		resp := env.postForm(commentURL, url.Values{"text": {""}}, asUser(env, reader))
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, postURL(post.ID), resp.Header.Get("Location"))
		assert.EqualValues(t, 1, countRows(t, env, &models.Comment{}, ""))
	})

	t.Run("missing post", func(t *testing.T) {
		resp := env.postForm("/posts/999/comment/", url.Values{"text": {"x"}}, asUser(env, reader))
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "mia")
	testutil.CreatePosts(t, env.db, author, nil, 3)
	require.NoError(t, env.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	var out struct {
		Author    models.User `json:"author"`
		PostCount int64       `json:"post_count"`
		Following bool        `json:"following"`
		Page      pageJSON    `json:"page_obj"`
	}
	decodeJSON(t, env.get("/profile/leo/", acceptJSON), &out)
	assert.Equal(t, "leo", out.Author.Username)
	assert.EqualValues(t, 3, out.PostCount)
	assert.False(t, out.Following, "anonymous viewers follow nobody")
	assert.Len(t, out.Page.Results, 3)

	decodeJSON(t, env.get("/profile/leo/", acceptJSON, asUser(env, reader)), &out)
	assert.True(t, out.Following)

	resp := env.get("/profile/leo/", asUser(env, reader))
	assert.Contains(t, readBody(t, resp), "/profile/leo/unfollow/")

	resp = env.get("/profile/nobody/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	reader := testutil.CreateUser(t, env.db, "mia")
	follows := func() int64 {
		return countRows(t, env, &models.Follow{}, "user_id = ? AND author_id = ?", reader.ID, author.ID)
	}

	resp := env.get("/profile/leo/follow/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/profile/leo/follow/", resp.Header.Get("Location"))

	for i := 0; i < 2; i++ {
		resp = env.get("/profile/leo/follow/", asUser(env, reader))
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	}
	assert.EqualValues(t, 1, follows(), "following twice keeps one edge")

	resp = env.postForm("/profile/leo/unfollow/", url.Values{}, asUser(env, reader))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Zero(t, follows())

	resp = env.get("/profile/leo/unfollow/", asUser(env, reader))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode, "unfollowing again is harmless")

	resp = env.get("/profile/nobody/follow/", asUser(env, reader))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFollowSelfIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")

	resp := env.get("/profile/leo/follow/", asUser(env, author))
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/leo/", resp.Header.Get("Location"))
	assert.Zero(t, countRows(t, env, &models.Follow{}, ""))
}

func TestFollowFeed(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.CreateUser(t, env.db, "leo")
	follower := testutil.CreateUser(t, env.db, "mia")
	stranger := testutil.CreateUser(t, env.db, "max")
	post := testutil.CreatePost(t, env.db, author, nil, "for followers")

	resp := env.get("/follow/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/follow/", resp.Header.Get("Location"))

	env.get("/profile/leo/follow/", asUser(env, follower))

	var out struct {
		Page pageJSON `json:"page_obj"`
	}
	decodeJSON(t, env.get("/follow/", acceptJSON, asUser(env, follower)), &out)
	require.Len(t, out.Page.Results, 1)
	assert.Equal(t, post.ID, out.Page.Results[0].ID)

	decodeJSON(t, env.get("/follow/", acceptJSON, asUser(env, stranger)), &out)
	assert.Empty(t, out.Page.Results)
}

func TestFollowFeedNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	leo := testutil.CreateUser(t, env.db, "leo")
	anna := testutil.CreateUser(t, env.db, "anna")
	stranger := testutil.CreateUser(t, env.db, "max")
	reader := testutil.CreateUser(t, env.db, "mia")

	now := time.Now()
	leoOld := testutil.CreatePostAt(t, env.db, leo, nil, "leo old", now.Add(-4*time.Minute))
	annaOld := testutil.CreatePostAt(t, env.db, anna, nil, "anna old", now.Add(-3*time.Minute))
	leoNew := testutil.CreatePostAt(t, env.db, leo, nil, "leo new", now.Add(-2*time.Minute))
	annaNew := testutil.CreatePostAt(t, env.db, anna, nil, "anna new", now.Add(-time.Minute))
	testutil.CreatePostAt(t, env.db, stranger, nil, "not followed", now)

	env.get("/profile/leo/follow/", asUser(env, reader))
	env.get("/profile/anna/follow/", asUser(env, reader))

	var out struct {
		Page pageJSON `json:"page_obj"`
	}
	decodeJSON(t, env.get("/follow/", acceptJSON, asUser(env, reader)), &out)
	require.Len(t, out.Page.Results, 4)
	got := make([]uint, 0, 4)
	for _, r := range out.Page.Results {
		got = append(got, r.ID)
	}
	assert.Equal(t, []uint{annaNew.ID, leoNew.ID, annaOld.ID, leoOld.ID}, got)
}

func TestProfileURLEscapesUsername(t *testing.T) {
	assert.Equal(t, "/profile/leo/", profileURL("leo"))
	assert.Equal(t, "/profile/leo%20tolstoy/", profileURL("leo tolstoy"))
	assert.Equal(t, "/profile/a%2Fb%3F/", profileURL("a/b?"))
}

func TestFollowRedirectsToEscapedProfile(t *testing.T) {
	env := newTestEnv(t)
	// Seeded accounts skip the signup username rules.
	author := testutil.CreateUser(t, env.db, "leo tolstoy")
	reader := testutil.CreateUser(t, env.db, "mia")

	resp := env.get("/profile/leo%20tolstoy/follow/", asUser(env, reader))
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Equal(t, "/profile/leo%20tolstoy/", location)
	assert.EqualValues(t, 1, countRows(t, env, &models.Follow{}, "user_id = ? AND author_id = ?", reader.ID, author.ID))

	var out struct {
		Author    models.User `json:"author"`
		Following bool        `json:"following"`
	}
	decodeJSON(t, env.get(location, acceptJSON, asUser(env, reader)), &out)
	assert.Equal(t, "leo tolstoy", out.Author.Username)
	assert.True(t, out.Following)
}
