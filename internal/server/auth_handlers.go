package server

import (
	"log/slog"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Signup handles GET and POST /auth/signup/
// @Summary Create an account
// @Description Registers the user, logs them in and redirects to the index.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Username"
// @Param email formData string false "Email"
// @Param first_name formData string false "First name"
// @Param last_name formData string false "Last name"
// @Param password formData string true "Password"
// @Success 302 "Redirect to /"
// @Success 200 {object} object{errors=forms.Errors}
// @Router /auth/signup/ [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return renderSignup(c, forms.NewSignupForm())
	}

	ctx := c.UserContext()
	form := forms.BindSignupForm(c)
	ok, err := form.Validate(ctx, s.authService)
	if err != nil {
		return err
	}
	if !ok {
		return renderSignup(c, form)
	}
	user, err := form.Save(ctx, s.authService)
	if err != nil {
		return err
	}
	if user == nil {
		return renderSignup(c, form)
	}
	if err := s.sessions.Login(c, user); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "user signed up", slog.String("username", user.Username))
	return redirectTo(c, "/")
}

func renderSignup(c *fiber.Ctx, form *forms.SignupForm) error {
	return render(c, fiber.StatusOK, "users/signup", fiber.Map{"form": form}, fiber.Map{
		"form": fiber.Map{
			"username":   form.Username,
			"email":      form.Email,
			"first_name": form.FirstName,
			"last_name":  form.LastName,
		},
		"errors": form.Errors,
	})
}

// Login handles GET and POST /auth/login/
// @Summary Log in
// @Description Sets the session cookie and redirects to next, when it is a local path.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param next query string false "Where to go after login"
// @Success 302 "Redirect to next or /"
// @Success 200 {object} object{errors=forms.Errors}
// @Router /auth/login/ [post]
func (s *Server) Login(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return renderLogin(c, forms.NewLoginForm(c.Query("next")))
	}

	form := forms.BindLoginForm(c)
	user, err := form.Authenticate(c.UserContext(), s.authService)
	if err != nil {
		return err
	}
	if user == nil {
		return renderLogin(c, form)
	}
	if err := s.sessions.Login(c, user); err != nil {
		return err
	}
	return redirectTo(c, session.SafeNext(form.Next))
}

func renderLogin(c *fiber.Ctx, form *forms.LoginForm) error {
	return render(c, fiber.StatusOK, "users/login", fiber.Map{"form": form}, fiber.Map{
		"form":   fiber.Map{"username": form.Username, "next": form.Next},
		"errors": form.Errors,
	})
}

// Logout handles GET and POST /auth/logout/
// @Summary Log out
// @Tags auth
// @Success 200 {object} object{logged_out=bool}
// @Router /auth/logout/ [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	return render(c, fiber.StatusOK, "users/logged_out", nil, fiber.Map{"logged_out": true})
}
