package featureshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/features"
	"perfreview/internal/transport/http/middleware"
)

const testSecret = "features-secret"

// memFeatures stores company-level flags only, one row per period.
type memFeatures struct {
	company map[string]map[features.PeriodType]features.Flags
}

func (m *memFeatures) DepartmentFlags(context.Context, string, string, features.PeriodType) (features.Flags, error) {
	return features.Flags{}, features.ErrNotConfigured
}

func (m *memFeatures) CompanyFlags(_ context.Context, tenantID string, period features.PeriodType) (features.Flags, error) {
	flags, ok := m.company[tenantID][period]
	if !ok {
		return features.Flags{}, features.ErrNotConfigured
	}
	return flags, nil
}

func (m *memFeatures) UpsertFeatures(_ context.Context, tenantID, _ string, period features.PeriodType, flags features.Flags) error {
	if m.company[tenantID] == nil {
		m.company[tenantID] = map[features.PeriodType]features.Flags{}
	}
	m.company[tenantID][period] = flags
	return nil
}

func do(t *testing.T, router http.Handler, role, method, path, body string) (int, map[string]any) {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u1", TenantID: "t1", Role: role}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestFeaturesResolveAndUpdate(t *testing.T) {
	store := &memFeatures{company: map[string]map[features.PeriodType]features.Flags{}}
	router := chi.NewRouter()
	router.Use(middleware.Auth(testSecret))
	NewHandler(features.NewResolver(store, features.DefaultSet()), store).RegisterRoutes(router)

	code, env := do(t, router, auth.RoleEmployee, http.MethodGet, "/features?periodType=yearly", "")
	require.Equal(t, http.StatusOK, code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "normal", data["policy"])
	assert.Equal(t, true, data["snapshot"].(map[string]any)["defaulted"])

	code, _ = do(t, router, auth.RoleManager, http.MethodPut, "/features", `{"periodType":"yearly","flags":{"useGoalWeight":true}}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = do(t, router, auth.RoleHR, http.MethodPut, "/features", `{"periodType":"yearly","flags":{"useGoalWeight":true,"enableEmployeeSelfRating":true}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "goal_weight", env["data"].(map[string]any)["policy"])

	code, env = do(t, router, auth.RoleEmployee, http.MethodGet, "/features?periodType=quarterly", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "normal", env["data"].(map[string]any)["policy"])
	assert.Equal(t, true, env["data"].(map[string]any)["snapshot"].(map[string]any)["defaulted"])
}

func TestFeaturesValidation(t *testing.T) {
	store := &memFeatures{company: map[string]map[features.PeriodType]features.Flags{}}
	router := chi.NewRouter()
	router.Use(middleware.Auth(testSecret))
	NewHandler(features.NewResolver(store, features.DefaultSet()), store).RegisterRoutes(router)

	code, _ := do(t, router, auth.RoleHR, http.MethodGet, "/features?periodType=monthly", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := do(t, router, auth.RoleHR, http.MethodPut, "/features", `{"periodType":"weekly"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env["error"].(map[string]any)["code"])
}
