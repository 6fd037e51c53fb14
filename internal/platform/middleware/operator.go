package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "landq/pkg/domain-errors"
	"landq/pkg/platform/httputil"
	"landq/pkg/requestcontext"
)

// RequireOperator guards privileged routes (agency registration, appraisal)
// with an HS256 bearer token. On-chain authorization is still enforced by the
// contracts; this only keeps the HTTP surface from being driven anonymously.
func RequireOperator(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(signingKey), nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "rejected operator token",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}

			subject, _ := token.Claims.GetSubject()
			ctx := requestcontext.WithOperator(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
