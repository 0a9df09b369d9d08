package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"farmart/internal/auth"
	"farmart/internal/handler"
	"farmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeUsers resolves the ids minted by bearer to active users of that role.
type activeUsers struct{}

func (activeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return &model.User{ID: id, Role: model.Role(strings.TrimPrefix(id, "U-")), Active: true}, nil
}

// newTestRouter mounts handlers without services; only requests stopped by
// middleware may be sent through it.
func newTestRouter(t *testing.T, uploadDir string) (http.Handler, auth.TokenManager) {
	t.Helper()
	logger := zerolog.Nop()
	tokens := auth.NewTokenManager("router-secret", "farmart", time.Hour)

	h := Handlers{
		Products: handler.NewProductHandler(nil, logger),
		Cart:     handler.NewCartHandler(nil, logger),
		Checkout: handler.NewCheckoutHandler(nil, logger),
		Payments: handler.NewPaymentHandler(nil, "http://localhost/api/payments/redirect", logger),
		Orders:   handler.NewOrderHandler(nil, logger),
		Users:    handler.NewUserHandler(nil, logger),
		Uploads:  handler.NewUploadHandler(nil, 1, logger),
	}
	return New(h, tokens, activeUsers{}, Options{UploadDir: uploadDir, UploadBaseURL: "http://localhost:8080/files"}, logger), tokens
}

func bearer(t *testing.T, tokens auth.TokenManager, role model.Role) string {
	t.Helper()
	token, err := tokens.Issue(&model.User{ID: "U-" + string(role), Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_AccessControl(t *testing.T) {
	r, tokens := newTestRouter(t, "")

	tests := []struct {
		name           string
		method         string
		path           string
		role           model.Role
		expectedStatus int
	}{
		{"cart needs a token", http.MethodGet, "/api/cart", "", http.StatusUnauthorized},
		{"checkout needs a token", http.MethodPost, "/api/checkout", "", http.StatusUnauthorized},
		{"orders need a token", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
		{"sellers have no cart", http.MethodGet, "/api/cart", model.RoleSeller, http.StatusForbidden},
		{"couriers cannot check out", http.MethodPost, "/api/checkout", model.RoleCourier, http.StatusForbidden},
		{"customers cannot list products for sale", http.MethodPost, "/api/seller/products", model.RoleCustomer, http.StatusForbidden},
		{"sellers have no courier workload", http.MethodGet, "/api/courier/orders", model.RoleSeller, http.StatusForbidden},
		{"customers cannot export", http.MethodGet, "/api/admin/orders/export", model.RoleCustomer, http.StatusForbidden},
		{"supervisors cannot delete users", http.MethodDelete, "/api/admin/users/U1", model.RoleSupervisor, http.StatusForbidden},
		{"supervisors cannot edit couriers", http.MethodPut, "/api/admin/couriers/K1", model.RoleSupervisor, http.StatusForbidden},
		{"unknown route", http.MethodGet, "/api/nothing", model.RoleAdmin, http.StatusNotFound},
		{"preflight", http.MethodOptions, "/api/cart", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, tokens, tt.role))
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRouter_ServesLocalUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "uploads", "2026", "10"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uploads", "2026", "10", "a.txt"), []byte("yam"), 0o644))
	r, _ := newTestRouter(t, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/uploads/2026/10/a.txt", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "yam", w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")
}
