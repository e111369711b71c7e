package server

import (
	"fmt"

	"warbler/internal/forms"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SignupPage renders the registration form.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	return s.render(c, "users/signup", fiber.Map{
		"Form":   forms.Signup,
		"Values": map[string]string{},
		"Errors": forms.Errors{},
	})
}

// Signup registers a new account. Any existing session is ended first, so a
// logged-in visitor who signs up ends the request as the new user.
func (s *Server) Signup(c *fiber.Ctx) error {
	s.doLogout(c)

	values := formValues(c, forms.Signup)
	if errs := forms.Signup.Validate(func(name string) string { return c.FormValue(name) }); errs != nil {
		return s.render(c, "users/signup", fiber.Map{
			"Form":   forms.Signup,
			"Values": values,
			"Errors": errs,
		})
	}

	user, err := s.userRepo.Signup(c.Context(),
		c.FormValue("username"),
		c.FormValue("password"),
		c.FormValue("email"),
		c.FormValue("image_url"),
	)
	if err != nil {
		if models.HasCode(err, models.CodeConflict) {
			s.flash(c, flashDanger, "Username already taken")
			return s.render(c, "users/signup", fiber.Map{
				"Form":   forms.Signup,
				"Values": values,
				"Errors": forms.Errors{},
			})
		}
		return err
	}

	if err := s.doLogin(c, user.ID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(c.UserContext(), "user signed up",
		"user_id", user.ID, "username", user.Username)
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage renders the login form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, "users/login", fiber.Map{
		"Form":   forms.Login,
		"Values": map[string]string{},
		"Errors": forms.Errors{},
	})
}

// Login authenticates credentials and establishes a session. Unknown username
// and wrong password get the same response; nothing hints which one it was.
func (s *Server) Login(c *fiber.Ctx) error {
	values := formValues(c, forms.Login)
	if errs := forms.Login.Validate(func(name string) string { return c.FormValue(name) }); errs != nil {
		return s.render(c, "users/login", fiber.Map{
			"Form":   forms.Login,
			"Values": values,
			"Errors": errs,
		})
	}

	user, err := s.userRepo.Authenticate(c.Context(),
		c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return err
	}
	if user == nil {
		middleware.AuthAttempts.WithLabelValues("failure").Inc()
		s.flash(c, flashDanger, "Invalid credentials.")
		return s.render(c, "users/login", fiber.Map{
			"Form":   forms.Login,
			"Values": values,
			"Errors": forms.Errors{},
		})
	}

	middleware.AuthAttempts.WithLabelValues("success").Inc()
	if err := s.doLogin(c, user.ID); err != nil {
		return err
	}

	s.flash(c, flashSuccess, fmt.Sprintf("Hello, %s!", user.Username))
	return c.Redirect("/", fiber.StatusFound)
}

// Logout ends the session and sends the visitor back to the login page.
func (s *Server) Logout(c *fiber.Ctx) error {
	s.doLogout(c)
	s.flash(c, flashSuccess, "Log out successful.")
	return c.Redirect("/login", fiber.StatusFound)
}
