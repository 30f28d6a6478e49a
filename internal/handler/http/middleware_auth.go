package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
)

// withAuth validates the bearer token and stores the user id and the
// calling device id in the request context.
func (h *Handler) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		token, err := h.services.Auth.ValidateToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("token validation failed")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDCtxKey, token.UserID)
		if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
			ctx = context.WithValue(ctx, utils.DeviceIDCtxKey, deviceID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
