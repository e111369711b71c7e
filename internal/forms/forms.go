// Package forms declares the application's form schemas and validates
// submitted values against them. Validation is all-or-nothing: any field
// violation blocks the submission and yields per-field error messages.
package forms

import (
	"fmt"
	"net/url"
	"regexp"
	"unicode/utf8"

	"warbler/internal/models"
)

// Kind describes how a field's value is interpreted beyond plain text.
type Kind int

const (
	Text Kind = iota
	Email
	URL
	Password
)

// Field describes one form field and its constraints.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	MinLen   int
	MaxLen   int
}

// Form is a named set of fields.
type Form struct {
	Name   string
	Fields []Field
}

// Errors maps field names to a single user-facing error message.
type Errors map[string]string

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Form schemas. Field names match the submitted form keys.
var (
	Signup = Form{
		Name: "signup",
		Fields: []Field{
			{Name: "username", Required: true, MaxLen: 30},
			{Name: "email", Kind: Email, Required: true, MaxLen: 50},
			{Name: "password", Kind: Password, Required: true, MinLen: 6, MaxLen: 50},
			{Name: "image_url", Kind: URL, MaxLen: 255},
		},
	}

	Login = Form{
		Name: "login",
		Fields: []Field{
			{Name: "username", Required: true, MaxLen: 30},
			{Name: "password", Kind: Password, Required: true, MinLen: 6, MaxLen: 50},
		},
	}

	EditProfile = Form{
		Name: "edit_profile",
		Fields: []Field{
			{Name: "username", Required: true, MaxLen: 30},
			{Name: "email", Kind: Email, Required: true, MaxLen: 50},
			{Name: "bio", MaxLen: 1500},
			{Name: "location", MaxLen: 50},
			{Name: "image_url", Kind: URL, MaxLen: 255},
			{Name: "header_image_url", Kind: URL, MaxLen: 255},
			{Name: "password", Kind: Password, Required: true, MinLen: 6, MaxLen: 50},
		},
	}

	NewMessage = Form{
		Name: "new_message",
		Fields: []Field{
			{Name: "text", Required: true, MaxLen: models.MaxMessageLength},
		},
	}

	// Confirm has no fields: it exists for POST actions that need only the
	// anti-forgery token (logout, deletes, follow/like toggles).
	Confirm = Form{Name: "confirm"}
)

// Validate checks every field of the form against the values returned by get
// (typically fiber.Ctx.FormValue). It returns nil when the submission is valid.
func (f Form) Validate(get func(name string) string) Errors {
	errs := Errors{}
	for _, field := range f.Fields {
		if msg := field.check(get(field.Name)); msg != "" {
			errs[field.Name] = msg
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (field Field) check(value string) string {
	if value == "" {
		if field.Required {
			return "This field is required."
		}
		// Optional and absent: defaults are applied by the caller.
		return ""
	}

	// Length bounds count characters, not bytes, matching the column sizes.
	length := utf8.RuneCountInString(value)
	if field.MinLen > 0 && length < field.MinLen {
		return fmt.Sprintf("Must be at least %d characters.", field.MinLen)
	}
	if field.MaxLen > 0 && length > field.MaxLen {
		return fmt.Sprintf("Must be at most %d characters.", field.MaxLen)
	}

	switch field.Kind {
	case Email:
		if !emailRegex.MatchString(value) {
			return "Invalid email address."
		}
	case URL:
		if !isHTTPURL(value) {
			return "Invalid URL."
		}
	}
	return ""
}

func isHTTPURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
