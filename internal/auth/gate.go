package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// Gate guards HTTP handlers behind a verified bearer token and a role check.
type Gate struct {
	verifier TokenVerifier
	lists    AllowLists
	logger   *slog.Logger
}

// NewGate constructs a Gate. The allow-lists are captured by value and never re-read.
func NewGate(verifier TokenVerifier, lists AllowLists, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		verifier: verifier,
		lists:    lists,
		logger:   logger,
	}
}

// RequireAdmin admits only admins.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return g.guard(next, "Forbidden: Admin access required", func(p Principal) bool {
		return p.IsAdmin
	})
}

// RequireBank admits bank auditors and admins.
func (g *Gate) RequireBank(next http.Handler) http.Handler {
	return g.guard(next, "Forbidden: Bank or Admin access required", func(p Principal) bool {
		return p.IsBank || p.IsAdmin
	})
}

// Authenticate verifies the request's bearer token and resolves its principal
// without applying any role requirement.
func (g *Gate) Authenticate(r *http.Request) (Principal, error) {
	token, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Principal{}, err
	}

	claims, err := g.verifier.VerifyToken(r.Context(), token)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Resolve(claims, g.lists), nil
}

func (g *Gate) guard(next http.Handler, forbiddenMsg string, allowed func(Principal) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authenticate(r)
		if err == nil && !allowed(principal) {
			err = fmt.Errorf("%w: uid %q", ErrForbidden, principal.UID)
		}
		if err == nil {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
			return
		}

		status := StatusCode(err)
		switch {
		case errors.Is(err, ErrForbidden):
			g.logger.Info("access denied", "uid", principal.UID, "role", principal.Role, "path", r.URL.Path)
			writeAuthError(w, status, forbiddenMsg)
		case errors.Is(err, ErrUnauthorized):
			writeAuthError(w, status, "Unauthorized: Missing or invalid authorization header")
		default:
			g.logger.Warn("token verification failed", "error", err, "path", r.URL.Path)
			writeAuthError(w, status, "Invalid or expired token")
		}
	})
}

// StatusCode maps an authentication or authorization error to its HTTP
// status: 403 for ErrForbidden, 401 for everything else.
func StatusCode(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// BearerToken extracts the token from an Authorization header value of the form
// "Bearer <token>".
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrUnauthorized
	}
	return token, nil
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
