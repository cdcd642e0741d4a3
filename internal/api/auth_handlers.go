package api

import (
	"net/http"
	"strings"

	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/http/response"
)

// stateCookie holds the encrypted OAuth state between /login and /callback.
const stateCookie = "rl_oauth_state"

// LoginResult is the body of a successful /callback.
type LoginResult struct {
	IDToken string   `json:"id_token"`
	User    UserView `json:"user"`
}

// handleLogin starts the authorization code flow. The nonce goes to the
// issuer as the state parameter and comes back on the callback, where it
// must match the sealed copy in the cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	nonce, sealed, err := s.state.Issue()
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    sealed,
		Path:     "/callback",
		MaxAge:   int(s.state.TTL().Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.root, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauth.AuthCodeURL(nonce), http.StatusFound)
}

// handleCallback completes the flow: it checks the state, exchanges the code,
// verifies the returned ID token, and records the user on first login.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		s.logger.Info("Login refused by issuer", "error", e, "description", q.Get("error_description"))
		response.HandleError(w, domainerrors.ErrUnauthorized, s.logger)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		response.HandleError(w, domainerrors.Validation("Missing login state"), s.logger)
		return
	}
	if err := s.state.Check(cookie.Value, q.Get("state")); err != nil {
		s.logger.Info("Login state rejected", "error", err)
		response.HandleError(w, domainerrors.Validation("Invalid login state").WithCause(err), s.logger)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/callback", MaxAge: -1})

	code := q.Get("code")
	if code == "" {
		response.HandleError(w, domainerrors.Validation("Missing authorization code"), s.logger)
		return
	}

	idToken, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("Code exchange failed", "error", err)
		response.HandleError(w, domainerrors.ErrUnauthorized.WithCause(err), s.logger)
		return
	}

	identity, err := s.verifier.VerifyToken(r.Context(), idToken)
	if err != nil {
		s.rejectToken(w, r, err)
		return
	}

	user, err := s.services.Users.Ensure(r.Context(), identity.Subject)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, LoginResult{IDToken: idToken, User: userView(user)}, s.logger)
}
