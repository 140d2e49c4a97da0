// Package validation turns untrusted request bodies into strictly typed
// inputs before any lookup or business rule runs.  Bodies are decoded into
// raw JSON fields so that a number, object or array sent where a string is
// expected is rejected instead of silently coerced or passed on to a query.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/complaint-tracker/internal/apperr"
	"github.com/iliyamo/complaint-tracker/internal/model"
)

const (
	MinPasswordLength    = 6
	MaxPasswordBytes     = 72 // bcrypt ignores/rejects anything longer
	MaxNameLength        = 100
	MaxEmailLength       = 254
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	maxBodyBytes = 1 << 20
	maxPage      = 1_000_000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fields holds the top-level members of a JSON object body.
type Fields map[string]json.RawMessage

// Decode reads a JSON object.  An empty body decodes to no fields so that the
// caller reports every missing field instead of a generic error.
func Decode(r io.Reader) (Fields, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, apperr.Validation("could not read request body")
	}
	if len(data) > maxBodyBytes {
		return nil, apperr.Validation("request body too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Fields{}, nil
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil || f == nil {
		return nil, apperr.Validation("request body must be a JSON object")
	}
	return f, nil
}

// str returns the member as a Go string.  present is false for absent and
// null members; isString is false when the member holds any other JSON type.
func (f Fields) str(name string) (s string, present, isString bool) {
	raw, ok := f[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return "", false, true
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, false
	}
	return s, true, true
}

type checker struct {
	details []string
}

func (c *checker) fail(format string, args ...any) {
	c.details = append(c.details, fmt.Sprintf(format, args...))
}

// required returns the raw (untrimmed) string or records why it is unusable.
func (c *checker) required(f Fields, name string) string {
	s, present, isString := f.str(name)
	if present && !isString {
		c.fail("%s must be a string", name)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		c.fail("%s is required", name)
		return ""
	}
	return s
}

func (c *checker) maxRunes(name, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		c.fail("%s must be at most %d characters", name, max)
	}
}

func (c *checker) err() error {
	if len(c.details) == 0 {
		return nil
	}
	return apperr.Validation("validation failed", c.details...)
}

// Registration is a validated register request.
type Registration struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// Register validates {name, email, password, role?}.  An absent, null or
// empty role means citizen.
func Register(f Fields) (Registration, error) {
	var c checker
	name := strings.TrimSpace(c.required(f, "name"))
	email := strings.TrimSpace(c.required(f, "email"))
	password := c.required(f, "password")

	c.maxRunes("name", name, MaxNameLength)
	checkEmail(&c, email)
	if password != "" {
		if utf8.RuneCountInString(password) < MinPasswordLength {
			c.fail("password must be at least %d characters long", MinPasswordLength)
		}
		if len(password) > MaxPasswordBytes {
			c.fail("password must be at most %d bytes", MaxPasswordBytes)
		}
	}

	role := model.RoleCitizen
	if raw, present, isString := f.str("role"); present {
		switch {
		case !isString:
			c.fail("role must be a string")
		case raw == "":
		default:
			r, ok := model.ParseRole(raw)
			if !ok {
				c.fail("role must be one of %s, %s", model.RoleCitizen, model.RoleAdmin)
			}
			role = r
		}
	}

	if err := c.err(); err != nil {
		return Registration{}, err
	}
	return Registration{Name: name, Email: model.NormalizeEmail(email), Password: password, Role: role}, nil
}

// Credentials is a validated login request.
type Credentials struct {
	Email    string
	Password string
}

// Login validates {email, password}.  Password policy is not re-checked so
// that login failures never reveal more than "invalid credentials".
func Login(f Fields) (Credentials, error) {
	var c checker
	email := strings.TrimSpace(c.required(f, "email"))
	password := c.required(f, "password")
	checkEmail(&c, email)
	if err := c.err(); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: model.NormalizeEmail(email), Password: password}, nil
}

func checkEmail(c *checker, email string) {
	if email == "" {
		return
	}
	if len(email) > MaxEmailLength || !emailPattern.MatchString(email) {
		c.fail("email must be a valid email address")
	}
}

// ComplaintDraft is a validated create-complaint request.  Any owner field
// in the body is ignored; ownership comes from the verified token.
type ComplaintDraft struct {
	Title       string
	Description string
	Category    model.Category
}

// Complaint validates {title, description, category} and reports every
// failing field at once.
func Complaint(f Fields) (ComplaintDraft, error) {
	var c checker
	title := strings.TrimSpace(c.required(f, "title"))
	description := strings.TrimSpace(c.required(f, "description"))
	rawCategory := strings.TrimSpace(c.required(f, "category"))

	c.maxRunes("title", title, MaxTitleLength)
	c.maxRunes("description", description, MaxDescriptionLength)

	category, ok := model.ParseCategory(rawCategory)
	if rawCategory != "" && !ok {
		c.fail("category must be one of %s", joinCategories())
	}
	if err := c.err(); err != nil {
		return ComplaintDraft{}, err
	}
	return ComplaintDraft{Title: title, Description: description, Category: category}, nil
}

// StatusUpdate validates {status}.
func StatusUpdate(f Fields) (model.Status, error) {
	var c checker
	raw := strings.TrimSpace(c.required(f, "status"))
	status, ok := model.ParseStatus(raw)
	if raw != "" && !ok {
		c.fail("status must be one of %s, %s, %s", model.StatusPending, model.StatusInProgress, model.StatusResolved)
	}
	if err := c.err(); err != nil {
		return "", err
	}
	return status, nil
}

// Page parses ?page and ?limit.  Absent or non-numeric values fall back to
// the defaults; numbers below one are clamped to one and limit is capped.
func Page(pageRaw, limitRaw string) (page, limit int) {
	page = positiveInt(pageRaw, DefaultPage)
	limit = positiveInt(limitRaw, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	if n > maxPage {
		return maxPage
	}
	return n
}

func joinCategories() string {
	names := make([]string, len(model.Categories))
	for i, cat := range model.Categories {
		names[i] = string(cat)
	}
	return strings.Join(names, ", ")
}
