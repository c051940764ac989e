package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
)

// Auth resolves the bearer token to an identity and injects it into the
// request context. A missing header means anonymous: public endpoints still
// work, protected ones are rejected by RequireRoles. The account service
// being unreachable maps to 503, not 401, so clients can tell "service down"
// from "credentials invalid".
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			r = r.WithContext(models.WithIdentity(ctx, models.AnonymousIdentity))
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		who, err := h.verifier.Verify(ctx, token)
		if err != nil || who == nil {
			status := http.StatusUnauthorized
			message := "invalid credentials"
			if err != nil && oneOf(err, types.ErrUpstreamUnavailable) {
				status = http.StatusServiceUnavailable
				message = "identity service unavailable"
			}
			h.log.Error(wrap.ErrorCtx(ctx, err), "failed to authenticate user", err)
			errorResponse(w, status, message)
			return
		}

		ctx = wrap.WithUserID(ctx, fmt.Sprintf("%d", who.ID))
		next.ServeHTTP(w, r.WithContext(models.WithIdentity(ctx, who)))
	})
}

// RequireRoles wraps a handler and allows only callers with one of the given
// roles. No roles means any authenticated caller.
func (h *Middleware) RequireRoles(next http.HandlerFunc, allowedRoles ...types.Role) http.Handler {
	allowed := make(map[types.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := models.IdentityFromContext(r.Context())
		if who == nil || who.IsAnonymous() {
			errorResponse(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if len(allowed) > 0 {
			if _, ok := allowed[who.Role]; !ok {
				errorResponse(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
