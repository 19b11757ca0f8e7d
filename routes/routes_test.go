package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/middleware"
	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/storage"
	"github.com/photocard-archive/api-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	cfg    *config.AppConfig
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Env:                config.EnvProduction,
		JWTSecret:          "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
	db := config.NewTestDB(t)

	r := gin.New()
	r.Use(middleware.ErrorHandler(cfg))
	SetupRoutes(r, db, storage.NewMemoryStore(), cfg)

	return &testServer{t: t, db: db, cfg: cfg, engine: r}
}

func (s *testServer) user(name string, admin bool) (models.User, string) {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(s.t, err)
	u := models.User{Username: name, Email: name + "@example.com", Password: string(hash), IsAdmin: admin}
	require.NoError(s.t, s.db.Create(&u).Error)

	token, err := utils.GenerateAccessToken(u.ID, u.Role(), s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(s.t, err)
	}
	return s.send(method, path, token, raw)
}

func (s *testServer) send(method, path, token string, raw []byte) (int, map[string]any) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestIdentificationFlow(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)
	_, otherToken := s.user("other", false)
	_, adminToken := s.user("admin", true)

	code, body := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Unknown", "isUnidentified": true})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["success"])
	photocard := body["photocard"].(map[string]any)
	assert.Equal(t, float64(1), photocard["photocardNumber"])
	id := uint(photocard["id"].(float64))

	code, body = s.do(http.MethodPost, fmt.Sprintf("/api/verifications/photocards/%d/identify", id), otherToken, gin.H{"name": "Amal", "age": 7})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Identification submitted for review.", body["message"])
	verificationID := uint(body["verification"].(map[string]any)["id"].(float64))

	approve := fmt.Sprintf("/api/admin/verifications/%d/approve", verificationID)
	code, body = s.do(http.MethodPatch, approve, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Admin access required.", body["message"])

	code, body = s.do(http.MethodPatch, approve, adminToken, gin.H{"comments": "confirmed"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "001ID", body["originalPhotocard"].(map[string]any)["photocardNumber"])
	assert.Equal(t, float64(1), body["newPhotocard"].(map[string]any)["photocardNumber"])

	code, body = s.do(http.MethodPatch, approve, adminToken, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Verification has already been processed.", body["message"])
	assert.NotContains(t, body, "error")

	code, body = s.do(http.MethodGet, "/api/photocards", "", nil)
	require.Equal(t, http.StatusOK, code)
	list := body["photocards"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Amal", list[0].(map[string]any)["name"])
}

func TestModerationFlow(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)
	_, otherToken := s.user("other", false)
	_, adminToken := s.user("admin", true)

	_, body := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Samir", "age": 10})
	id := uint(body["photocard"].(map[string]any)["id"].(float64))

	code, body := s.do(http.MethodPost, "/api/reports", otherToken, gin.H{
		"itemId": id, "reportType": "photocard", "reasonType": "inappropriate", "reason": "offensive",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(http.MethodGet, "/api/admin/photocards?status=flagged", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["photocards"].([]any), 1)

	code, _ = s.do(http.MethodPut, fmt.Sprintf("/api/admin/photocards/%d/block", id), adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/photocards/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/photocards/%d", id), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "soft-deleted")

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/photocards/%d/soft-delete", id), adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Photocard marked as deleted by admin and reports resolved.", body["message"])

	code, body = s.do(http.MethodGet, "/api/admin/photocards/counts", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["counts"].(map[string]any)["deleted"])

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/photocards/%d", id), adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/admin/photocards/%d", id), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDuplicateCheckEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)

	for _, age := range []int{10, 12} {
		code, _ := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Samir", "age": age})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := s.do(http.MethodGet, "/api/photocards/check-name?name=samir&age=11", ownerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["existingPhotocards"].([]any), 2)

	code, body = s.do(http.MethodGet, "/api/photocards/check-name?name=samir&age=15", ownerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["existingPhotocards"])

	code, body = s.do(http.MethodGet, "/api/photocards/check-name?name=samir&age=old", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(http.MethodPost, "/api/auth/signup", "", gin.H{"username": "amal", "email": "amal@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Signup successful.", body["message"])

	code, body = s.do(http.MethodPost, "/api/auth/signup", "", gin.H{"username": "amal2", "email": "amal@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already in use.", body["message"])

	code, body = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "amal@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid credentials or account is blocked.", body["message"])

	code, body = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "amal@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code, body)
	accessToken := body["accessToken"].(string)
	refreshToken := body["refreshToken"].(string)

	code, body = s.do(http.MethodGet, "/api/auth/user", accessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "amal", body["user"].(map[string]any)["username"])

	code, body = s.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refreshToken})
	require.Equal(t, http.StatusOK, code, body)
	rotated := body["refreshToken"].(string)
	assert.NotEqual(t, refreshToken, rotated)

	code, _ = s.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": refreshToken})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/auth/logout", "", gin.H{"refreshToken": rotated})
	require.Equal(t, http.StatusOK, code)

	var remaining int64
	require.NoError(t, s.db.Model(&models.RefreshToken{}).
		Where("token IN ?", []string{refreshToken, rotated}).
		Count(&remaining).Error)
	assert.Zero(t, remaining)

	code, body = s.do(http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No refresh token provided.", body["message"])
}

func TestBlockedUserIsTurnedAway(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.user("owner", false)
	_, adminToken := s.user("admin", true)

	code, _ := s.do(http.MethodPut, fmt.Sprintf("/api/admin/users/%d/block", owner.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(http.MethodGet, "/api/photocards/user/mine", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, body["success"])

	code, body = s.do(http.MethodGet, "/api/admin/users/counts", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["counts"].(map[string]any)["blocked"])
}

func TestAvailabilityChecks(t *testing.T) {
	s := newTestServer(t)
	s.user("amal", false)

	code, body := s.do(http.MethodGet, "/api/validation/username/amal", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["exists"])

	code, body = s.do(http.MethodGet, "/api/validation/username/samir", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["exists"])

	code, body = s.do(http.MethodGet, "/api/validation/email/AMAL@example.com", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["exists"])
}

func TestRequestBindingRules(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)
	_, otherToken := s.user("other", false)
	_, adminToken := s.user("admin", true)

	_, body := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Samir"})
	id := uint(body["photocard"].(map[string]any)["id"].(float64))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   gin.H
		fields []any
	}{
		{"unknown report type", http.MethodPost, "/api/reports", otherToken,
			gin.H{"itemId": id, "reportType": "comment", "reasonType": "other", "reason": "x"}, []any{"reportType"}},
		{"unknown reason type", http.MethodPost, "/api/reports", otherToken,
			gin.H{"itemId": id, "reportType": "photocard", "reasonType": "spam", "reason": "x"}, []any{"reasonType"}},
		{"missing item", http.MethodPost, "/api/reports", otherToken,
			gin.H{"reportType": "photocard", "reasonType": "other", "reason": "x"}, []any{"itemId"}},
		{"months out of range", http.MethodPost, "/api/photocards", ownerToken,
			gin.H{"name": "Amal", "months": 12}, []any{"months"}},
		{"unknown condition", http.MethodPost, "/api/photocards", ownerToken,
			gin.H{"name": "Amal", "condition": "lost"}, []any{"condition"}},
		{"unknown report status", http.MethodPut, "/api/admin/reports/1/status", adminToken,
			gin.H{"status": "archived"}, []any{"status"}},
		{"missing duplicate ids", http.MethodPut, "/api/admin/photocards/confirm-duplicate", adminToken,
			gin.H{"duplicatePhotocardId": id}, []any{"originalPhotocardId"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, code, body)
			assert.Equal(t, "Invalid or missing fields.", body["message"])
			assert.Equal(t, map[string]any{"fields": tt.fields}, body["details"])
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.Photocard{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVerificationReviewRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)
	_, otherToken := s.user("other", false)
	_, adminToken := s.user("admin", true)

	_, body := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Unknown", "isUnidentified": true})
	id := uint(body["photocard"].(map[string]any)["id"].(float64))
	_, body = s.do(http.MethodPost, fmt.Sprintf("/api/verifications/photocards/%d/identify", id), otherToken, gin.H{"name": "Amal"})
	verificationID := uint(body["verification"].(map[string]any)["id"].(float64))

	for _, action := range []string{"approve", "reject"} {
		path := fmt.Sprintf("/api/admin/verifications/%d/%s", verificationID, action)
		code, body := s.send(http.MethodPatch, path, adminToken, []byte(`{"comments":`))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request body.", body["message"])
	}

	code, body := s.do(http.MethodPatch, fmt.Sprintf("/api/admin/verifications/%d/reject", verificationID), adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "rejected", body["verification"].(map[string]any)["status"])
}

func TestAdminDeletesUser(t *testing.T) {
	s := newTestServer(t)
	owner, ownerToken := s.user("owner", false)
	_, otherToken := s.user("other", false)
	admin, adminToken := s.user("admin", true)

	_, body := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": "Samir"})
	id := uint(body["photocard"].(map[string]any)["id"].(float64))
	code, body := s.do(http.MethodPost, "/api/reports", otherToken, gin.H{
		"itemId": owner.ID, "reportType": "user", "reasonType": "inappropriate", "reason": "spam uploads",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Administrator cannot delete their own account.", body["message"])

	code, body = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, `User "owner" and their associated photocards and reports have been deleted.`, body["message"])

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/admin/photocards/%d", id), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(http.MethodGet, "/api/admin/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["reports"])

	code, _ = s.do(http.MethodGet, "/api/photocards/user/mine", ownerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", owner.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, ownerToken := s.user("owner", false)
	_, adminToken := s.user("admin", true)

	for _, name := range []string{"Samir Haddad", "Amal", "Samira"} {
		code, _ := s.do(http.MethodPost, "/api/photocards", ownerToken, gin.H{"name": name})
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := s.do(http.MethodPut, "/api/admin/photocards/3/block", adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(http.MethodGet, "/api/photocards/search?query=samir", "", nil)
	require.Equal(t, http.StatusOK, code)
	list := body["photocards"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Samir Haddad", list[0].(map[string]any)["name"])

	code, body = s.do(http.MethodGet, "/api/photocards/search?query=%23002", "", nil)
	require.Equal(t, http.StatusOK, code)
	list = body["photocards"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Amal", list[0].(map[string]any)["name"])

	code, body = s.do(http.MethodGet, "/api/photocards/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Search query is required.", body["message"])
}
