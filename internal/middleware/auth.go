package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie - имя cookie с токеном сессии локального API.
	SessionCookie = "rk_session"
	sessionTTL    = 12 * time.Hour
)

type userIDKey struct{}

// Claims - содержимое токена сессии.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// BuildToken подписывает токен сессии пользователя (HS256).
func BuildToken(userID, secret string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок действия и возвращает user id.
func ParseToken(tokenString, secret string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", errors.New("invalid token")
	}
	return claims.UserID, nil
}

// SetLoginCookie выставляет cookie сессии.
func SetLoginCookie(w http.ResponseWriter, userID, secret string) error {
	token, err := BuildToken(userID, secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sessionTTL),
	})
	return nil
}

// WithAuth кладёт user id в контекст, если cookie или Bearer-токен валидны. Запрос без сессии пропускается.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			} else if v := r.Header.Get("Authorization"); len(v) > 7 && v[:7] == "Bearer " {
				token = v[7:]
			}
			if token != "" {
				if uid, err := ParseToken(token, secret); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userIDKey{}, uid))
				}
			}
			h.ServeHTTP(w, r)
		})
	}
}

// RequireAuth отвечает 401, если в контексте нет пользователя.
func RequireAuth(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// GetUserIDFromContext возвращает user id сессии.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey{}).(string)
	return uid, ok && uid != ""
}
