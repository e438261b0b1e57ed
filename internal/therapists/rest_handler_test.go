package therapists

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbridge/internal/auth"
	"mindbridge/internal/database"
	"mindbridge/pkg/jwt"
)

func newTestRouter(t *testing.T) (*mux.Router, *Service, *jwt.JWT) {
	t.Helper()
	service := newTestService(t)
	tokens := jwt.NewJWT("test-secret", 3600)

	router := mux.NewRouter()
	router.Use(auth.Middleware(tokens))
	handler := NewJSONHandler(service)
	router.HandleFunc("/therapists", handler.List).Methods(http.MethodGet)
	router.HandleFunc("/therapists/{id}/verify", handler.Verify).Methods(http.MethodPost)
	return router, service, tokens
}

func authedRequest(t *testing.T, tokens *jwt.JWT, method, target string, userID uint, role string) *http.Request {
	t.Helper()
	token, err := tokens.GenerateToken(userID, role)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestVerifyRequiresAdminRole(t *testing.T) {
	router, service, tokens := newTestRouter(t)
	ctx := context.Background()
	seedUser(t, service, 1, "Alice")
	seedUser(t, service, 2, "Root")

	profile, err := service.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, tokens, http.MethodPost, "/therapists/1/verify", 1, database.RoleTherapist))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, tokens, http.MethodPost, "/therapists/1/verify", 2, database.RoleAdmin))
	require.Equal(t, http.StatusNoContent, rec.Code)

	updated, err := service.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
}

func TestListPendingRequiresAdminRole(t *testing.T) {
	router, _, tokens := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, tokens, http.MethodGet, "/therapists?verified=false", 1, database.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, tokens, http.MethodGet, "/therapists?verified=false", 2, database.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}
