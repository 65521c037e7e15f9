package kpishandler

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
	"perfreview/internal/domain/kpi"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
	"perfreview/internal/transport/http/middleware"
)

const testSecret = "kpi-secret"

type fakeStore struct {
	kpis    map[string]kpi.KPI
	reviews map[string]kpi.Review
}

func (f *fakeStore) GetKPI(_ context.Context, _ string, id string) (kpi.KPI, error) {
	k, ok := f.kpis[id]
	if !ok {
		return kpi.KPI{}, kpi.ErrNotFound
	}
	return k, nil
}

func (f *fakeStore) GetReview(_ context.Context, _ string, id string) (*kpi.Review, error) {
	review, ok := f.reviews[id]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func (f *fakeStore) RatingScale(context.Context, string) (rating.Scale, error) {
	return nil, kpi.ErrNotFound
}

func (f *fakeStore) AcknowledgeKPI(_ context.Context, _ string, id string) error {
	k := f.kpis[id]
	k.Status = lifecycle.KPIStatusAcknowledged
	f.kpis[id] = k
	return nil
}

func (f *fakeStore) SaveReview(_ context.Context, _ string, expected lifecycle.ReviewStatus, review kpi.Review, _ kpi.ItemUpdate) error {
	if current, ok := f.reviews[review.KPIID]; ok != (expected != "") || current.Status != expected {
		return lifecycle.ErrActionNotPermitted
	}
	f.reviews[review.KPIID] = review
	return nil
}

func (f *fakeStore) ListStates(_ context.Context, _ string, managerID string) ([]kpi.StateRow, error) {
	var rows []kpi.StateRow
	for _, k := range f.kpis {
		if managerID != "" && k.ManagerID != managerID {
			continue
		}
		row := kpi.StateRow{KPIID: k.ID, PeriodType: k.PeriodType, KPIStatus: k.Status}
		if review, ok := f.reviews[k.ID]; ok {
			row.ReviewStatus = lifecycle.StatusPtr(review.Status)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type detailBody struct {
	Review *struct {
		Status         string   `json:"status"`
		EmployeeRating *float64 `json:"employeeRating"`
	} `json:"review"`
	Stage struct {
		Stage string `json:"stage"`
	} `json:"stage"`
	View struct {
		Label   string   `json:"label"`
		Actions []string `json:"actions"`
	} `json:"view"`
}

func newTestRouter(store *fakeStore) http.Handler {
	service := kpi.NewService(store, features.NewResolver(nil, features.DefaultSet()), nil, rating.DefaultScale(), lifecycle.DefaultOptions())
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	NewHandler(service).RegisterRoutes(router)
	return router
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		kpis: map[string]kpi.KPI{
			"k1": {
				ID:         "k1",
				EmployeeID: "emp-1",
				ManagerID:  "mgr-1",
				PeriodType: features.PeriodYearly,
				Status:     lifecycle.KPIStatusPending,
				Items:      []rating.Item{{ID: "i1"}, {ID: "i2"}},
			},
		},
		reviews: map[string]kpi.Review{},
	}
}

func call(t *testing.T, router http.Handler, claims auth.Claims, method, path, body string) (int, envelope) {
	t.Helper()
	claims.TenantID = "t1"
	token, err := auth.GenerateToken(testSecret, claims, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

var (
	employeeClaims = auth.Claims{UserID: "u-emp", EmployeeID: "emp-1", Role: auth.RoleEmployee}
	managerClaims  = auth.Claims{UserID: "u-mgr", EmployeeID: "mgr-1", Role: auth.RoleManager}
)

func TestKPIReviewJourney(t *testing.T) {
	router := newTestRouter(newFakeStore())

	code, env := call(t, router, employeeClaims, http.MethodGet, "/kpis/k1", "")
	require.Equal(t, http.StatusOK, code)
	var detail detailBody
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Awaiting Acknowledgement", detail.View.Label)
	assert.Equal(t, []string{"acknowledge_kpi"}, detail.View.Actions)

	code, env = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/self-rating", `{"ratings":[{"itemId":"i1","rating":4},{"itemId":"i2","rating":2}]}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "action_not_permitted", env.Error.Code)

	code, _ = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/acknowledge", "")
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/self-rating", `{"ratings":[{"itemId":"i1","rating":4},{"itemId":"i2","rating":2}]}`)
	require.Equal(t, http.StatusOK, code)
	detail = detailBody{}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.NotNil(t, detail.Review)
	assert.Equal(t, "employee_submitted", detail.Review.Status)
	require.NotNil(t, detail.Review.EmployeeRating)
	assert.Equal(t, 3.0, *detail.Review.EmployeeRating)

	code, env = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/manager-rating", `{"ratings":[{"itemId":"i1","rating":5},{"itemId":"i2","rating":5}]}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, router, managerClaims, http.MethodPost, "/kpis/k1/manager-rating", `{"ratings":[{"itemId":"i1","rating":5},{"itemId":"i2","rating":5}]}`)
	require.Equal(t, http.StatusOK, code)
	detail = detailBody{}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Manager Rating Submitted", detail.View.Label)

	code, env = call(t, router, employeeClaims, http.MethodGet, "/kpis/k1", "")
	require.Equal(t, http.StatusOK, code)
	detail = detailBody{}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Awaiting Your Confirmation", detail.View.Label)
	assert.ElementsMatch(t, []string{"confirm_review", "reject_review"}, detail.View.Actions)

	code, _ = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/confirm", "")
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/reject", `{"reason":"changed my mind"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "review_completed", env.Error.Code)
}

func TestKPIRatingEndpoint(t *testing.T) {
	router := newTestRouter(newFakeStore())

	code, env := call(t, router, employeeClaims, http.MethodGet, "/kpis/k1/rating?rater=employee", "")
	require.Equal(t, http.StatusOK, code)
	var result struct {
		Method string `json:"method"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "normal", result.Method)

	code, env = call(t, router, employeeClaims, http.MethodGet, "/kpis/k1/rating?rater=peer", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestKPIErrorsMapToStatus(t *testing.T) {
	router := newTestRouter(newFakeStore())

	code, env := call(t, router, employeeClaims, http.MethodGet, "/kpis/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "kpi_not_found", env.Error.Code)

	stranger := auth.Claims{UserID: "u-x", EmployeeID: "emp-9", Role: auth.RoleEmployee}
	code, _ = call(t, router, stranger, http.MethodGet, "/kpis/k1", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, env = call(t, router, employeeClaims, http.MethodPost, "/kpis/k1/self-rating", `{"ratings":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestKPIStats(t *testing.T) {
	router := newTestRouter(newFakeStore())

	code, env := call(t, router, managerClaims, http.MethodGet, "/kpis/stats", "")
	require.Equal(t, http.StatusOK, code)
	var summary struct {
		Total   int            `json:"total"`
		Buckets map[string]int `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Buckets["pending"])

	code, _ = call(t, router, managerClaims, http.MethodGet, "/kpis/stats?managerId=mgr-2", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, router, employeeClaims, http.MethodGet, "/kpis/stats", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestKPIHistoryWithoutAuditTrail(t *testing.T) {
	router := newTestRouter(newFakeStore())

	code, env := call(t, router, employeeClaims, http.MethodGet, "/kpis/k1/history", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = call(t, router, employeeClaims, http.MethodGet, "/kpis/k1/history?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", env.Error.Code)
}
