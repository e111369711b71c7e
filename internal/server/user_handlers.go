package server

import (
	"fmt"

	"warbler/internal/forms"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListUsers renders the user directory, optionally filtered by a username
// substring from the q query parameter.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	query := c.Query("q")

	var (
		users []models.User
		err   error
	)
	if query == "" {
		users, err = s.userRepo.List(c.Context(), 0)
	} else {
		users, err = s.userRepo.Search(c.Context(), query)
	}
	if err != nil {
		return err
	}

	return s.render(c, "users/index", fiber.Map{
		"Users": users,
		"Query": query,
	})
}

// ShowUser renders a profile page with the profile owner's messages.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	messages, err := s.messageRepo.ListByOwner(c.Context(), profile.ID)
	if err != nil {
		return err
	}

	following := false
	me := currentUser(c)
	if me.ID != profile.ID {
		following, err = s.followRepo.IsFollowing(c.Context(), me.ID, profile.ID)
		if err != nil {
			return err
		}
	}

	return s.render(c, "users/show", fiber.Map{
		"Profile":     profile,
		"Messages":    messages,
		"IsFollowing": following,
	})
}

// ShowFollowing lists the users a profile follows.
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	users, err := s.followRepo.Following(c.Context(), profile.ID)
	if err != nil {
		return err
	}

	return s.render(c, "users/following", fiber.Map{
		"Profile": profile,
		"Users":   users,
	})
}

// ShowFollowers lists the users following a profile.
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	users, err := s.followRepo.Followers(c.Context(), profile.ID)
	if err != nil {
		return err
	}

	return s.render(c, "users/followers", fiber.Map{
		"Profile": profile,
		"Users":   users,
	})
}

// ShowLikedMessages lists the messages the current user has liked. The
// profile id in the path anchors the page and must exist.
func (s *Server) ShowLikedMessages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	me := currentUser(c)
	messages, err := s.messageRepo.ListLikedBy(c.Context(), me.ID)
	if err != nil {
		return err
	}

	liked, err := s.likedSet(c.Context(), me.ID, messages)
	if err != nil {
		return err
	}

	return s.render(c, "users/liked_messages", fiber.Map{
		"Profile":  profile,
		"Messages": messages,
		"Liked":    liked,
	})
}

// StartFollowing adds the target to the current user's followed set. Following
// an already-followed user changes nothing.
func (s *Server) StartFollowing(c *fiber.Ctx) error {
	me := currentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if id == me.ID {
		s.flash(c, flashDanger, "You can't follow yourself.")
		return c.Redirect(fmt.Sprintf("/users/%d/following", me.ID), fiber.StatusFound)
	}

	target, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	if err := s.followRepo.Follow(c.Context(), me.ID, target.ID); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", me.ID), fiber.StatusFound)
}

// StopFollowing removes the target from the current user's followed set.
// Unfollowing someone not followed changes nothing.
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	me := currentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	target, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	if err := s.followRepo.Unfollow(c.Context(), me.ID, target.ID); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", me.ID), fiber.StatusFound)
}

// ProfilePage renders the edit form prefilled with the current user's data.
func (s *Server) ProfilePage(c *fiber.Ctx) error {
	me := currentUser(c)
	return s.render(c, "users/edit", fiber.Map{
		"Form":   forms.EditProfile,
		"Errors": forms.Errors{},
		"Values": map[string]string{
			"username":         me.Username,
			"email":            me.Email,
			"bio":              me.Bio,
			"location":         me.Location,
			"image_url":        me.ImageURL,
			"header_image_url": me.HeaderImageURL,
		},
	})
}

// UpdateProfile applies profile edits after re-verifying the user's password.
// Clearing an image field resets it to the default image.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	me := currentUser(c)

	values := formValues(c, forms.EditProfile)
	if errs := forms.EditProfile.Validate(func(name string) string { return c.FormValue(name) }); errs != nil {
		return s.render(c, "users/edit", fiber.Map{
			"Form":   forms.EditProfile,
			"Values": values,
			"Errors": errs,
		})
	}

	authed, err := s.userRepo.Authenticate(c.Context(), me.Username, c.FormValue("password"))
	if err != nil {
		return err
	}
	if authed == nil {
		s.flash(c, flashDanger, "Password Incorrect")
		return s.render(c, "users/edit", fiber.Map{
			"Form":   forms.EditProfile,
			"Values": values,
			"Errors": forms.Errors{},
		})
	}

	// Apply edits to the freshly authenticated record: cached copies drop the
	// password hash and must never be written back.
	authed.Username = c.FormValue("username")
	authed.Email = c.FormValue("email")
	authed.Bio = c.FormValue("bio")
	authed.Location = c.FormValue("location")
	authed.ImageURL = c.FormValue("image_url")
	if authed.ImageURL == "" {
		authed.ImageURL = models.DefaultImageURL
	}
	authed.HeaderImageURL = c.FormValue("header_image_url")
	if authed.HeaderImageURL == "" {
		authed.HeaderImageURL = models.DefaultHeaderImageURL
	}

	if err := s.userRepo.Update(c.Context(), authed); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			s.flash(c, flashDanger, "Username or Email taken")
			return s.render(c, "users/edit", fiber.Map{
				"Form":   forms.EditProfile,
				"Values": values,
				"Errors": forms.Errors{},
			})
		}
		return err
	}

	return c.Redirect(fmt.Sprintf("/users/%d", me.ID), fiber.StatusFound)
}

// DeleteUser removes the current user's account together with their messages,
// likes and follow relationships, then ends the session.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	me := currentUser(c)

	s.doLogout(c)
	if err := s.userRepo.Delete(c.Context(), me.ID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(c.UserContext(), "user deleted account",
		"user_id", me.ID, "username", me.Username)
	s.flash(c, flashSuccess, "Account successfully deleted.")
	return c.Redirect("/signup", fiber.StatusFound)
}
