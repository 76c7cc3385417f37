package forms

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

const minPasswordLength = 8

// SignupForm registers a new account.
type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Errors    Errors
}

func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: Errors{}}
}

func BindSignupForm(c *fiber.Ctx) *SignupForm {
	return &SignupForm{
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
		Username:  strings.TrimSpace(c.FormValue("username")),
		Email:     strings.TrimSpace(c.FormValue("email")),
		Password:  c.FormValue("password"),
		Errors:    Errors{},
	}
}

func (f *SignupForm) Validate(ctx context.Context, auth *service.AuthService) (bool, error) {
	switch {
	case f.Username == "":
		f.Errors.Add("username", MsgRequired)
	case utf8.RuneCountInString(f.Username) > 150:
		f.Errors.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(f.Username):
		f.Errors.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	default:
		taken, err := auth.UsernameTaken(ctx, f.Username)
		if err != nil {
			return false, err
		}
		if taken {
			f.Errors.Add("username", "A user with that username already exists.")
		}
	}

	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		f.Errors.Add("email", "Enter a valid email address.")
	}

	switch {
	case f.Password == "":
		f.Errors.Add("password", MsgRequired)
	case utf8.RuneCountInString(f.Password) < minPasswordLength:
		f.Errors.Add("password", "This password is too short. It must contain at least 8 characters.")
	case digitsPattern.MatchString(f.Password):
		f.Errors.Add("password", "This password is entirely numeric.")
	}

	return f.Errors.Valid(), nil
}

func (f *SignupForm) Save(ctx context.Context, auth *service.AuthService) (*models.User, error) {
	user, err := auth.Register(ctx, service.RegisterInput{
		Username:  f.Username,
		Email:     f.Email,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Password:  f.Password,
	})
	if err != nil {
		return nil, f.Errors.absorb("username", err)
	}
	return user, nil
}

// LoginForm checks credentials.
type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func NewLoginForm(next string) *LoginForm {
	return &LoginForm{Next: next, Errors: Errors{}}
}

func BindLoginForm(c *fiber.Ctx) *LoginForm {
	next := c.FormValue("next")
	if next == "" {
		next = c.Query("next")
	}
	return &LoginForm{
		Username: strings.TrimSpace(c.FormValue("username")),
		Password: c.FormValue("password"),
		Next:     next,
		Errors:   Errors{},
	}
}

// Authenticate validates the fields and returns the matching user, or nil
// with errors recorded on the form.
func (f *LoginForm) Authenticate(ctx context.Context, auth *service.AuthService) (*models.User, error) {
	if f.Username == "" {
		f.Errors.Add("username", MsgRequired)
	}
	if f.Password == "" {
		f.Errors.Add("password", MsgRequired)
	}
	if !f.Errors.Valid() {
		return nil, nil
	}
	user, err := auth.Authenticate(ctx, f.Username, f.Password)
	if err != nil {
		if models.HasCode(err, models.CodeUnauthorized) {
			f.Errors.Add(nonField, service.ErrInvalidCredentials.Message)
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
