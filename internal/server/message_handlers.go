package server

import (
	"fmt"

	"warbler/internal/forms"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// NewMessagePage renders the message composer.
func (s *Server) NewMessagePage(c *fiber.Ctx) error {
	return s.render(c, "messages/new", fiber.Map{
		"Form":   forms.NewMessage,
		"Values": map[string]string{},
		"Errors": forms.Errors{},
	})
}

// CreateMessage posts a message owned by the current user.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	me := currentUser(c)

	values := formValues(c, forms.NewMessage)
	if errs := forms.NewMessage.Validate(func(name string) string { return c.FormValue(name) }); errs != nil {
		return s.render(c, "messages/new", fiber.Map{
			"Form":   forms.NewMessage,
			"Values": values,
			"Errors": errs,
		})
	}

	message := &models.Message{
		Text:   c.FormValue("text"),
		UserID: me.ID,
	}
	if err := s.messageRepo.Create(c.Context(), message); err != nil {
		return err
	}

	return c.Redirect(fmt.Sprintf("/users/%d", me.ID), fiber.StatusFound)
}

// ShowMessage renders a single message page.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	me := currentUser(c)
	liked, err := s.likeRepo.HasLiked(c.Context(), me.ID, message.ID)
	if err != nil {
		return err
	}

	return s.render(c, "messages/show", fiber.Map{
		"Message": message,
		"Liked":   liked,
	})
}

// DeleteMessage removes a message. Only the owner may delete it; anyone else
// is turned away the same as an anonymous visitor.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	me := currentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if message.UserID != me.ID {
		s.flash(c, flashDanger, "Access unauthorized.")
		return c.Redirect("/", fiber.StatusFound)
	}

	if err := s.messageRepo.Delete(c.Context(), message.ID); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d", me.ID), fiber.StatusFound)
}

// LikeMessage records a like on someone else's message. Liking a message
// twice changes nothing. The user is sent back to the page they came from.
func (s *Server) LikeMessage(c *fiber.Ctx) error {
	me := currentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	message, err := s.messageRepo.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if message.UserID == me.ID {
		s.flash(c, flashDanger, "You can't like your own message.")
		return c.Redirect(safeLocalPath(c.FormValue("url_came_from")), fiber.StatusFound)
	}

	if err := s.likeRepo.Like(c.Context(), me.ID, message.ID); err != nil {
		return err
	}
	return c.Redirect(safeLocalPath(c.FormValue("url_came_from")), fiber.StatusFound)
}

// UnlikeMessage removes a like. Unliking a message that was never liked
// changes nothing.
func (s *Server) UnlikeMessage(c *fiber.Ctx) error {
	me := currentUser(c)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.likeRepo.Unlike(c.Context(), me.ID, id); err != nil {
		return err
	}
	return c.Redirect(safeLocalPath(c.FormValue("url_came_from")), fiber.StatusFound)
}
