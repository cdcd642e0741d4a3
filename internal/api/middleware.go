package api

import (
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/listenupapp/readinglists-server/internal/auth"
	domainerrors "github.com/listenupapp/readinglists-server/internal/errors"
	"github.com/listenupapp/readinglists-server/internal/http/response"
)

// negotiate rejects requests whose Accept header does not admit JSON.
func (s *Server) negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(r.Header.Values("Accept")) {
			response.HandleError(w, domainerrors.ErrNotAcceptable, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireJSON rejects entity writes whose body is not declared as JSON.
func (s *Server) requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != response.ContentType {
			response.HandleError(w, domainerrors.ErrUnsupportedMediaType, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// acceptsJSON reports whether any media range admits application/json.
// A missing header accepts everything; a range with q=0 is a refusal.
func acceptsJSON(headers []string) bool {
	if len(headers) == 0 {
		return true
	}
	for _, header := range headers {
		for part := range strings.SplitSeq(header, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			mediaType, params, err := mime.ParseMediaType(part)
			if err != nil {
				continue
			}
			if q, ok := params["q"]; ok {
				if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
					continue
				}
			}
			switch mediaType {
			case "application/json", "application/*", "*/*":
				return true
			}
		}
	}
	return false
}

// rateLimit applies the per-IP token bucket. Returns 429 when exhausted.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !s.limiter.Allow(key) {
			s.logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
			response.HandleError(w, domainerrors.ErrRateLimited, s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote host. middleware.RealIP has already applied
// X-Forwarded-For and X-Real-IP to RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// authenticate verifies the bearer token on r. On failure it writes the
// generic 401 and returns false; the failure kind is only logged and counted.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, err := s.verifier.Verify(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		s.rejectToken(w, r, err)
		return nil, false
	}
	return identity, true
}

func (s *Server) rejectToken(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := auth.KindOf(err)
	name := "unknown"
	if ok {
		name = kind.String()
	}
	s.logger.Info("Token rejected", "kind", name, "path", r.URL.Path, "error", err)
	if s.metrics != nil {
		s.metrics.AuthFailure(name)
	}
	response.HandleError(w, domainerrors.ErrUnauthorized.WithCause(err), s.logger)
}
