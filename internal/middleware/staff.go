package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"
)

// staffContextKey marks a request as authenticated staff in the Echo context.
const staffContextKey = "staff"

// staffRealm is shown in the browser's login prompt.
const staffRealm = "Paintball Staff"

// StaffAuth guards management routes with HTTP basic auth against a single
// configured user and bcrypt password hash.
type StaffAuth struct {
	user string
	hash []byte
}

// NewStaffAuth creates a StaffAuth for user with the given bcrypt hash.
func NewStaffAuth(user, passwordHash string) *StaffAuth {
	return &StaffAuth{user: user, hash: []byte(passwordHash)}
}

// Validate reports whether the credentials belong to the staff user. The
// bcrypt comparison always runs so a wrong username takes as long as a
// wrong password.
func (s *StaffAuth) Validate(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	return userOK && passOK
}

// Middleware requires staff credentials on every request in the group.
func (s *StaffAuth) Middleware() echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: staffRealm,
		Validator: func(user, password string, c echo.Context) (bool, error) {
			if !s.Validate(user, password) {
				return false, nil
			}
			c.Set(staffContextKey, true)
			return true, nil
		},
	})
}

// Check authenticates a single request without rejecting it. Handlers that
// only need staff for some query parameters (edit mode) use it and call
// Challenge when it fails.
func (s *StaffAuth) Check(c echo.Context) bool {
	if IsStaff(c) {
		return true
	}
	user, password, ok := c.Request().BasicAuth()
	if !ok || !s.Validate(user, password) {
		return false
	}
	c.Set(staffContextKey, true)
	return true
}

// Challenge answers with 401 and a basic-auth prompt.
func Challenge(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `basic realm="`+staffRealm+`"`)
	return echo.NewHTTPError(http.StatusUnauthorized, "staff login required")
}

// IsStaff reports whether an earlier StaffAuth step authenticated this request.
func IsStaff(c echo.Context) bool {
	ok, _ := c.Get(staffContextKey).(bool)
	return ok
}
