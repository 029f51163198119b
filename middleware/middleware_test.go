package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/models"
	"github.com/Dosada05/calcetto/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func validClaims(role models.AccountRole) jwt.MapClaims {
	return jwt.MapClaims{
		ClaimUserID: 7,
		ClaimRole:   string(role),
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
}

type fakeAccounts map[int]*models.Player

func (f fakeAccounts) GetByID(ctx context.Context, id int) (*models.Player, error) {
	if id == 99 {
		return nil, errors.New("connection refused")
	}
	p, ok := f[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return p, nil
}

var testAccounts = fakeAccounts{
	7: {ID: 7, AccountRole: models.AccountSupervisor},
	8: {ID: 8, AccountRole: models.AccountAdmin, Blocked: true},
	9: {ID: 9, AccountRole: models.AccountOperator},
}

func claimsFor(id int, role models.AccountRole) jwt.MapClaims {
	c := validClaims(role)
	c[ClaimUserID] = id
	return c
}

func TestAuthenticate(t *testing.T) {
	var gotID int
	var gotRole models.AccountRole
	h := Authenticate(testSecret, testAccounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole, err = GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	expired := validClaims(models.AccountAdmin)
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + signToken(t, testSecret, validClaims(models.AccountSupervisor)), http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, []byte("other"), validClaims(models.AccountAdmin)), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), http.StatusUnauthorized},
		{"blocked account", "Bearer " + signToken(t, testSecret, claimsFor(8, models.AccountAdmin)), http.StatusForbidden},
		{"deleted account", "Bearer " + signToken(t, testSecret, claimsFor(40, models.AccountAdmin)), http.StatusUnauthorized},
		{"store unavailable", "Bearer " + signToken(t, testSecret, claimsFor(99, models.AccountAdmin)), http.StatusInternalServerError},
		{"no user id", "Bearer " + signToken(t, testSecret, jwt.MapClaims{ClaimRole: "admin", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, 7, gotID)
	assert.Equal(t, models.AccountSupervisor, gotRole)
}

func TestAuthenticateUsesStoredRole(t *testing.T) {
	var gotRole models.AccountRole
	h := Authenticate(testSecret, testAccounts)(RequirePermission(models.PermCloseMatch)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotRole, _ = GetUserRoleFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})))

	// токен выдан админу, но в хранилище он уже operator
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claimsFor(9, models.AccountAdmin)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, gotRole)
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequirePermission(models.PermCloseMatch)(ok)

	tests := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{"admin", ContextWithClaims(context.Background(), validClaims(models.AccountAdmin)), http.StatusOK},
		{"supervisor", ContextWithClaims(context.Background(), validClaims(models.AccountSupervisor)), http.StatusForbidden},
		{"no claims", context.Background(), http.StatusUnauthorized},
		{"unknown role", ContextWithClaims(context.Background(), jwt.MapClaims{ClaimRole: "owner"}), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(tt.ctx)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetUserIDFromContextClaimTypes(t *testing.T) {
	ctx := ContextWithClaims(context.Background(), jwt.MapClaims{ClaimUserID: "12"})
	id, err := GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	ctx = ContextWithClaims(context.Background(), jwt.MapClaims{ClaimUserID: float64(3)})
	id, err = GetUserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	_, err = GetUserIDFromContext(ContextWithClaims(context.Background(), jwt.MapClaims{ClaimUserID: 1.5}))
	assert.Error(t, err)
	_, err = GetUserIDFromContext(ContextWithClaims(context.Background(), jwt.MapClaims{ClaimUserID: 0}))
	assert.Error(t, err)
	_, err = GetUserIDFromContext(context.Background())
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)

	unlimited := NewRateLimiter(0).Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiterEvictsIdleAddresses(t *testing.T) {
	rl := NewRateLimiter(5)
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 1; i <= 20; i++ {
		rl.limiter(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Equal(t, 20, rl.size())

	now = now.Add(limiterIdleTTL / 2)
	rl.limiter("10.0.0.1")
	assert.Equal(t, 20, rl.size(), "no sweep before the idle TTL elapses")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	rl.limiter("10.0.1.1")
	assert.Equal(t, 2, rl.size(), "only the recently seen address and the new one survive")

	rl.mu.Lock()
	_, kept := rl.visitors["10.0.0.1"]
	rl.mu.Unlock()
	assert.True(t, kept)
}
