package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/beachatlas/beachatlas-server/internal/service"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/session",
		Summary:     "Start or resume a session",
		Description: "Issues an anonymous session cookie, reusing the caller's token when it is still valid",
		Tags:        []string{"Session"},
	}, s.handleCreateSession)
}

// SessionCookieInput reads the anonymous session token.
type SessionCookieInput struct {
	SessionID string `cookie:"session_id" doc:"Anonymous session token"`
}

// session returns the caller's token when it is well formed, else "".
// Malformed cookies are treated as no session and never rewritten on reads.
func (in SessionCookieInput) session() string {
	if service.ValidSessionToken(in.SessionID) {
		return in.SessionID
	}
	return ""
}

// SessionResponse contains session data in API responses.
type SessionResponse struct {
	SessionID string `json:"sessionId" doc:"Session token"`
	Created   bool   `json:"created" doc:"Whether a new token was issued"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	SetCookie    string `header:"Set-Cookie"`
	CacheControl string `header:"Cache-Control"`
	Body         SessionResponse
}

func (s *Server) handleCreateSession(_ context.Context, input *SessionCookieInput) (*SessionOutput, error) {
	token, created, err := service.EnsureSession(input.SessionID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &SessionOutput{
		// Always re-sent so the expiry slides forward.
		SetCookie:    s.sessionCookie(token),
		CacheControl: CacheNoStore,
		Body:         SessionResponse{SessionID: token, Created: created},
	}, nil
}

// sessionCookie renders the Set-Cookie value for token.
func (s *Server) sessionCookie(token string) string {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return c.String()
}
