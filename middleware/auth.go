package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const userContextKey contextKey = "user"

// AccountLookup - то, что Authenticate нужно от хранилища игроков.
type AccountLookup interface {
	GetByID(ctx context.Context, id int) (*models.Player, error)
}

// Authenticate проверяет Bearer-токен (HS256) и кладет его claims в контекст.
// Роль и блокировка берутся из хранилища на каждый запрос, claim роли перезаписывается:
// блокировка или смена роли действуют сразу, не дожидаясь истечения токена.
func Authenticate(secret []byte, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := ContextWithClaims(r.Context(), claims)
			userID, err := GetUserIDFromContext(ctx)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			account, err := accounts.GetByID(r.Context(), userID)
			switch {
			case errors.Is(err, repositories.ErrPlayerNotFound):
				writeError(w, http.StatusUnauthorized, "account no longer exists")
				return
			case err != nil:
				writeError(w, http.StatusInternalServerError, "failed to load account")
				return
			case account.Blocked:
				writeError(w, http.StatusForbidden, "account is blocked")
				return
			}
			claims[ClaimRole] = string(account.AccountRole)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission пропускает запрос, только если роль из токена имеет право perm.
// Должен стоять после Authenticate.
func RequirePermission(perm models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := GetUserRoleFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "failed to identify current user role")
				return
			}
			if !role.Can(perm) {
				writeError(w, http.StatusForbidden, fmt.Sprintf("permission %q required", perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithClaims нужен обработчикам и тестам, которые собирают контекст без HTTP.
func ContextWithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header must be in format 'Bearer <token>'")
	}
	return strings.TrimSpace(token), nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
