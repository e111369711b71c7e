package server

import (
	"encoding/json"
	"errors"
	"strings"

	"warbler/internal/forms"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserKey = "currentUser"
	flashesKey   = "flashes"

	flashSuccess = "success"
	flashDanger  = "danger"

	homeFeedLimit = 100
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// the app-level error handler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// currentUser returns the user resolved by LoadCurrentUser, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUserKey).(*models.User)
	return user
}

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 404 response and returns errResponseWritten; callers should then return nil.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		c.Status(fiber.StatusNotFound)
		_ = s.render(c, "404", nil)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// flash queues a one-shot notice in the session.
func (s *Server) flash(c *fiber.Ctx, category, message string) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return
	}

	var flashes []Flash
	if raw, ok := sess.Get(flashesKey).(string); ok {
		_ = json.Unmarshal([]byte(raw), &flashes)
	}
	flashes = append(flashes, Flash{Category: category, Message: message})

	if b, err := json.Marshal(flashes); err == nil {
		sess.Set(flashesKey, string(b))
		_ = sess.Save()
	}
}

// popFlashes drains queued notices; each is shown exactly once.
func (s *Server) popFlashes(c *fiber.Ctx) []Flash {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil
	}

	raw, ok := sess.Get(flashesKey).(string)
	if !ok {
		return nil
	}
	sess.Delete(flashesKey)
	_ = sess.Save()

	var flashes []Flash
	_ = json.Unmarshal([]byte(raw), &flashes)
	return flashes
}

// render renders a view with the bind values common to every page: the
// current user, pending flashes, and the anti-forgery token.
func (s *Server) render(c *fiber.Ctx, view string, bind fiber.Map) error {
	if bind == nil {
		bind = fiber.Map{}
	}
	bind["CurrentUser"] = currentUser(c)
	bind["Flashes"] = s.popFlashes(c)
	if token, ok := c.Locals(csrfContextKey).(string); ok {
		bind["CSRFToken"] = token
	}
	return c.Render(view, bind)
}

// doLogin stores the user id in the session. Nothing else is persisted there.
func (s *Server) doLogin(c *fiber.Ctx, userID uint) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

// doLogout drops the user id from the session, if present.
func (s *Server) doLogout(c *fiber.Ctx) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return
	}
	sess.Delete(sessionUserKey)
	_ = sess.Save()
}

// formValues snapshots the submitted values of a form's fields so an invalid
// submission can be re-rendered with the user's input intact.
func formValues(c *fiber.Ctx, form forms.Form) map[string]string {
	values := make(map[string]string, len(form.Fields))
	for _, field := range form.Fields {
		if field.Kind == forms.Password {
			continue
		}
		values[field.Name] = c.FormValue(field.Name)
	}
	return values
}

// safeLocalPath restricts a client-supplied redirect target to local paths.
func safeLocalPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "/"
	}
	return p
}
