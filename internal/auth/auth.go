// Package auth provides the HTTP middleware that binds every request to an
// operator session. The session is identified by a signed JWT kept in a cookie;
// the session itself decides whether the operator is authenticated.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/session"
)

const (
	LoginPath = "/login"
	UsersPath = "/users"
)

type sessionStarter interface {
	Start(ctx context.Context, id string) (*session.Session, error)
	Anonymous() *session.Session
}

// Auth resolves operator sessions from cookies.
type Auth struct {
	// sessions hands out live sessions by ID.
	sessions sessionStarter

	// cookieName is the name of the cookie used to store the JWT.
	cookieName string

	// signingKey is the key used to sign JWTs.
	signingKey []byte
}

// Claims represents the JWT claims stored in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// SessionKey is the context key of the request's *session.Session.
const SessionKey ContextKey = "session"

// New creates the middleware set for the given session source,
// cookie name and JWT signing secret.
func New(
	sessions sessionStarter,
	cookieName string,
	signingKey []byte,
) *Auth {
	return &Auth{
		sessions:   sessions,
		cookieName: cookieName,
		signingKey: signingKey,
	}
}

// LoadSession is an HTTP middleware that puts the caller's session into the
// request context. Requests without a valid cookie get a throwaway anonymous
// session; a cookie is only issued once a login succeeds.
func (a *Auth) LoadSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		s := a.sessions.Anonymous()
		if sessionID := a.getSessionIDFromCookie(request); sessionID != "" {
			var err error
			s, err = a.sessions.Start(request.Context(), sessionID)
			if err != nil {
				logger.Log.Debugln("Error calling the `a.sessions.Start()`: ", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)

				return
			}
		}

		ctx := context.WithValue(request.Context(), SessionKey, s)
		ctx = notify.ContextWithSink(ctx, s)

		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// SetSessionCookie points the client at the session with the given ID.
func (a *Auth) SetSessionCookie(response http.ResponseWriter, sessionID string) error {
	JWTString, err := a.buildJWTString(&Claims{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("in internal/auth/auth.go/SetSessionCookie(): error while `a.buildJWTString()` calling: %w", err)
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.cookieName,
			Value:    JWTString,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)

	return nil
}

// ClearSessionCookie tells the client to drop its session cookie.
func (a *Auth) ClearSessionCookie(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)
}

// RequireAuthenticated sends anonymous sessions to the login page.
func (a *Auth) RequireAuthenticated(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		s, ok := FromContext(request.Context())
		if !ok || !s.IsAuthenticated() {
			http.Redirect(response, request, LoginPath, http.StatusSeeOther)

			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// RedirectAuthenticated keeps authenticated sessions away from the login page.
func (a *Auth) RedirectAuthenticated(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		s, ok := FromContext(request.Context())
		if ok && s.IsAuthenticated() {
			http.Redirect(response, request, UsersPath, http.StatusSeeOther)

			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// FromContext returns the session LoadSession stored in ctx.
func FromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(SessionKey).(*session.Session)
	return s, ok && s != nil
}

// TokenFromContext returns the session token of an authenticated session in ctx, or "".
func TokenFromContext(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}

	return s.Token()
}

func (a *Auth) getSessionIDFromCookie(request *http.Request) string {
	cookie, err := request.Cookie(a.cookieName)
	if err != nil {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return ""
	}

	return claims.SessionID
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	return token.SignedString(a.signingKey)
}
