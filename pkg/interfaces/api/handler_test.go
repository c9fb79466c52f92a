package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/bagplan/pkg/application/dto"
	"github.com/vsinha/bagplan/pkg/application/services/bom"
	"github.com/vsinha/bagplan/pkg/application/services/fleet"
	"github.com/vsinha/bagplan/pkg/application/services/orchestration"
	"github.com/vsinha/bagplan/pkg/application/services/processor"
	"github.com/vsinha/bagplan/pkg/domain/entities"
	"github.com/vsinha/bagplan/pkg/infrastructure/events"
	"github.com/vsinha/bagplan/pkg/infrastructure/metrics"
	"github.com/vsinha/bagplan/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/bagplan/pkg/infrastructure/testing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *metrics.Collector) {
	t.Helper()
	calc, err := bom.NewCalculator(bom.Config{BagsPerCarton: 250})
	require.NoError(t, err)

	collector := metrics.NewCollector(nil)
	eventLog := events.NewBoundedEventStore(nil, 10)
	machines := fleet.DefaultCatalog()
	proc, err := processor.NewProcessor(processor.Config{
		Calculator: calc,
		Feed:       testhelpers.BuildStaticFeed(100, 0),
		Machines:   machines,
		Clock:      testhelpers.FixedClock,
		Metrics:    collector,
		Events:     eventLog,
	})
	require.NoError(t, err)

	planner := orchestration.NewPlanningOrchestrator(proc, calc, memory.NewRunStore(), machines, nil).
		WithEventLog(eventLog)
	return NewRouter(planner, RouterOptions{Metrics: collector.Handler(), Version: "test"}), collector
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestCreateRun_StoresAndServesRun(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/runs", dto.PlanRequest{
		Orders: []entities.Order{testhelpers.BuildShopperOrder("A", 1000), testhelpers.BuildShopperOrder("B", -1)},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.PlanningResult
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotNil(t, created.Run)
	require.Len(t, created.Run.Results, 1)
	assert.Len(t, created.Rejected, 1)
	assert.False(t, created.Run.Results[0].Feasible, "only paper is stocked")

	runID := created.Run.Summary.RunID
	w, env = do(t, r, http.MethodGet, "/api/v1/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched entities.RunResult
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, runID, fetched.Summary.RunID)

	w, env = do(t, r, http.MethodGet, "/api/v1/runs/"+runID+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stream []dto.RunEvent
	require.NoError(t, json.Unmarshal(env.Data, &stream))
	require.NotEmpty(t, stream)
	assert.Equal(t, events.RunStartedEvent, stream[0].Type)
	assert.Equal(t, events.RunCompletedEvent, stream[len(stream)-1].Type)
	assert.Equal(t, len(stream), stream[len(stream)-1].Version)

	w, env = do(t, r, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.RunList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
}

func TestCreateRun_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/runs", `{"orders": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40000, env.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/runs", `{"orders": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/runs", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/runs/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestComputeBOM(t *testing.T) {
	r, _ := newTestRouter(t)

	order := testhelpers.BuildShopperOrder("", 4)
	order.Unit = entities.UnitCartons
	w, env := do(t, r, http.MethodPost, "/api/v1/bom", dto.BOMRequest{Order: order})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result dto.BOMResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, int64(1000), result.ActualBags)
	assert.NotEmpty(t, result.BOM.Lines)

	w, _ = do(t, r, http.MethodPost, "/api/v1/bom", dto.BOMRequest{Order: testhelpers.BuildShopperOrder("X", 0)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFleetHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/fleet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var machines []entities.MachineSpec
	require.NoError(t, json.Unmarshal(env.Data, &machines))
	assert.Len(t, machines, len(fleet.DefaultCatalog()))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	do(t, r, http.MethodPost, "/api/v1/runs", dto.PlanRequest{Orders: []entities.Order{testhelpers.BuildShopperOrder("A", 10)}})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bagplan_orders_processed_total 1")
}

type cancellingPlanner struct {
	Planner
}

func (cancellingPlanner) RunPlanning(ctx context.Context, orders []entities.Order) (*dto.PlanningResult, error) {
	run := &entities.RunResult{Summary: entities.RunSummary{RunID: "r-1", OrdersSubmitted: len(orders), Cancelled: true}}
	return &dto.PlanningResult{Run: run}, context.Canceled
}

func TestCreateRun_CancelledRun(t *testing.T) {
	r := NewRouter(cancellingPlanner{}, RouterOptions{})

	w, env := do(t, r, http.MethodPost, "/api/v1/runs", dto.PlanRequest{Orders: []entities.Order{testhelpers.BuildShopperOrder("A", 1)}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, env.Message, "run r-1 stopped after 0 of 1 orders")

	var partial dto.PlanningResult
	require.NoError(t, json.Unmarshal(env.Data, &partial))
	require.NotNil(t, partial.Run)
	assert.Equal(t, "r-1", partial.Run.Summary.RunID)
	assert.True(t, partial.Run.Summary.Cancelled)
}
