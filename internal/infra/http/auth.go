package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// SignUserToken подписывает идентификатор пользователя HMAC-ключом.
// Выпуск самих сессий — зона ответственности внешнего identity-провайдера,
// сервис лишь проверяет подпись.
func SignUserToken(secret, userID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	return userID + ":" + hex.EncodeToString(h.Sum(nil))
}

// ParseUserToken проверяет подпись и возвращает идентификатор пользователя.
func ParseUserToken(secret, token string) (string, bool) {
	idx := strings.LastIndexByte(token, ':')
	if idx <= 0 {
		return "", false
	}
	userID := token[:idx]
	sig, err := hex.DecodeString(token[idx+1:])
	if err != nil {
		return "", false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(userID))
	if !hmac.Equal(h.Sum(nil), sig) {
		return "", false
	}
	return userID, true
}

// UserAuthMiddleware требует валидный пользовательский токен.
func UserAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := ParseUserToken(secret, bearerToken(r))
			if !ok {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuthMiddleware извлекает пользователя, если токен передан и валиден.
func OptionalAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := ParseUserToken(secret, bearerToken(r)); ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// WithUserID кладёт идентификатор пользователя в контекст запроса.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFrom возвращает идентификатор пользователя из контекста.
func UserIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}
