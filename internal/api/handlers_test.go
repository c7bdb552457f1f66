package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/internal/store/sqlite"
	"github.com/workcal/availability/pkg/dateutil"
)

const weekDocument = `{
  "developers": [{"id": 1, "name": "Ada", "birthday": "1990-01-03"}],
  "local_holidays": [{"day": "2017-01-02"}],
  "periods": [{"id": 1, "since": "2017-01-01", "until": "2017-01-08"}],
  "projects": [{"id": 1, "since": "2017-01-01", "until": "2017-01-08", "effort_days": 6}]
}`

// stubSource serves a fixed calendar and counts Load calls
type stubSource struct {
	national *calendar.National
	err      error
	loads    int32
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context) (*calendar.National, error) {
	atomic.AddInt32(&s.loads, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.national, nil
}

func newStubSource() *stubSource {
	return &stubSource{national: calendar.NewNationalFromHolidays(
		calendar.Holiday{Date: dateutil.Date(2017, 1, 1), Name: "Capodanno"},
	)}
}

type testServer struct {
	router   http.Handler
	store    *sqlite.Store
	calendar *stubSource
}

func newTestServer(t *testing.T, withStore bool) *testServer {
	return newTestServerWithOptions(t, withStore, Options{})
}

func newTestServerWithOptions(t *testing.T, withStore bool, opts Options) *testServer {
	t.Helper()

	ts := &testServer{calendar: newStubSource()}
	var store RunStore
	if withStore {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		ts.store = s
		store = s
	}

	logger := zap.NewNop()
	h := NewHandler(ts.calendar, store, opts, logger)
	ts.router = NewRouter(h, logger, []string{"http://localhost:5173"})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type computeResponse struct {
	RunID          string           `json:"run_id"`
	Mode           string           `json:"mode"`
	Availabilities []map[string]any `json:"availabilities"`
	Skipped        []map[string]any `json:"skipped"`
	Anomalies      []map[string]any `json:"anomalies"`
	Capacity       []map[string]any `json:"capacity"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListHolidays(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodGet, "/api/holidays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"date":"2017-01-01","name":"Capodanno"}]`, rec.Body.String())
}

func TestComputeAvailabilitiesPeriods(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/availabilities", weekDocument)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[computeResponse](t, rec)
	assert.Empty(t, resp.RunID, "no store configured")
	assert.Equal(t, "periods", resp.Mode)
	require.Len(t, resp.Availabilities, 1)
	assert.Equal(t, map[string]any{
		"period_id":    float64(1),
		"total_days":   float64(8),
		"workdays":     float64(5),
		"weekend_days": float64(3),
		"holidays":     float64(0),
	}, resp.Availabilities[0])
}

func TestComputeAvailabilitiesProjects(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(t, http.MethodPost, "/api/availabilities?mode=projects", weekDocument)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[computeResponse](t, rec)
	require.Len(t, resp.Availabilities, 1)
	got := resp.Availabilities[0]
	assert.Equal(t, float64(1), got["project_id"])
	assert.Equal(t, float64(4), got["workdays"])
	assert.Equal(t, float64(1), got["holidays"])
	assert.Equal(t, false, got["feasibility"])

	require.Len(t, resp.Capacity, 1)
	assert.Equal(t, float64(3), resp.Capacity[0]["capacity_days"])
}

func TestComputeAvailabilitiesDeveloperModesAgree(t *testing.T) {
	ts := newTestServer(t, false)

	direct := ts.do(t, http.MethodPost, "/api/availabilities?mode=developer-periods", weekDocument)
	pre := ts.do(t, http.MethodPost, "/api/availabilities?mode=developer-periods-preaggregated", weekDocument)
	require.Equal(t, http.StatusOK, direct.Code)
	require.Equal(t, http.StatusOK, pre.Code)

	a := decodeBody[computeResponse](t, direct)
	b := decodeBody[computeResponse](t, pre)
	assert.Equal(t, a.Availabilities, b.Availabilities)
	require.Len(t, a.Availabilities, 1)
	assert.Equal(t, float64(3), a.Availabilities[0]["workdays"])
	assert.Equal(t, float64(2), a.Availabilities[0]["holidays"])
}

func TestComputeAvailabilitiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		wantCode string
	}{
		{"unknown mode", "/api/availabilities?mode=weekly", weekDocument, CodeUnknownMode},
		{"bad json", "/api/availabilities", `{"periods": [`, CodeBadRequest},
		{"malformed date", "/api/availabilities",
			`{"periods": [{"id": 1, "since": "2017-01-01", "until": "2017-02-30"}]}`, CodeMalformedDate},
		{"inverted range", "/api/availabilities",
			`{"periods": [{"id": 1, "since": "2017-01-08", "until": "2017-01-01"}]}`, CodeInvalidRange},
	}

	ts := newTestServer(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decodeBody[ErrorBody](t, rec)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestComputeAvailabilitiesSkipsInvalidRanges(t *testing.T) {
	ts := newTestServerWithOptions(t, false, Options{SkipInvalidRanges: true})

	body := `{"periods": [
		{"id": 1, "since": "2017-01-08", "until": "2017-01-01"},
		{"id": 2, "since": "2017-01-01", "until": "2017-01-08"}
	]}`
	rec := ts.do(t, http.MethodPost, "/api/availabilities", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[computeResponse](t, rec)
	require.Len(t, resp.Availabilities, 1)
	assert.Equal(t, float64(2), resp.Availabilities[0]["period_id"])
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, float64(1), resp.Skipped[0]["period_id"])
}

func TestComputeAvailabilitiesLoadsCalendarPerRequest(t *testing.T) {
	ts := newTestServer(t, false)

	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/api/availabilities", weekDocument)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	ts.do(t, http.MethodGet, "/api/holidays", "")

	assert.Equal(t, int32(3), atomic.LoadInt32(&ts.calendar.loads))
}

func TestCalendarUnavailable(t *testing.T) {
	ts := newTestServer(t, false)
	ts.calendar.err = errors.New("upstream down")

	for _, target := range []string{"/api/holidays", "/api/availabilities"} {
		method := http.MethodGet
		body := ""
		if target == "/api/availabilities" {
			method, body = http.MethodPost, weekDocument
		}
		rec := ts.do(t, method, target, body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Equal(t, CodeCalendarUnavailable, decodeBody[ErrorBody](t, rec).Error.Code, target)
	}
}

func TestComputeAvailabilitiesBodyTooLarge(t *testing.T) {
	ts := newTestServerWithOptions(t, false, Options{MaxBodyBytes: 64})

	rec := ts.do(t, http.MethodPost, "/api/availabilities", weekDocument)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodeBodyTooLarge, decodeBody[ErrorBody](t, rec).Error.Code)
}

func TestComputeAvailabilitiesRangeTooLong(t *testing.T) {
	t.Run("configured limit", func(t *testing.T) {
		ts := newTestServerWithOptions(t, false, Options{MaxRangeDays: 7})

		// weekDocument ranges span 8 days
		rec := ts.do(t, http.MethodPost, "/api/availabilities", weekDocument)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[ErrorBody](t, rec)
		assert.Equal(t, CodeRangeTooLong, body.Error.Code)
		assert.Contains(t, body.Error.Message, "periods[0]")
	})

	t.Run("default limit rejects centuries", func(t *testing.T) {
		ts := newTestServer(t, false)

		rec := ts.do(t, http.MethodPost, "/api/availabilities?mode=projects",
			`{"projects": [{"id": 1, "since": "1900-01-01", "until": "2199-12-31", "effort_days": 1}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, CodeRangeTooLong, decodeBody[ErrorBody](t, rec).Error.Code)
	})

	t.Run("inverted range is not a length problem", func(t *testing.T) {
		ts := newTestServerWithOptions(t, false, Options{MaxRangeDays: 7})

		rec := ts.do(t, http.MethodPost, "/api/availabilities",
			`{"periods": [{"id": 1, "since": "2017-01-08", "until": "2017-01-01"}]}`)
		assert.Equal(t, CodeInvalidRange, decodeBody[ErrorBody](t, rec).Error.Code)
	})
}

func TestRunHistory(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodPost, "/api/availabilities?mode=developer-periods", weekDocument)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[computeResponse](t, rec)
	require.NotEmpty(t, resp.RunID)

	list := ts.do(t, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, list.Code)
	runs := decodeBody[[]sqlite.Run](t, list)
	require.Len(t, runs, 1)
	assert.Equal(t, resp.RunID, runs[0].ID)
	assert.Equal(t, availability.ModeDeveloperPeriods, runs[0].Mode)
	assert.Equal(t, 1, runs[0].RecordCount)

	one := ts.do(t, http.MethodGet, "/api/runs/"+resp.RunID, "")
	require.Equal(t, http.StatusOK, one.Code)
	run := decodeBody[sqlite.Run](t, one)
	require.Len(t, run.Records, 1)
	assert.Equal(t, 3, run.Records[0].Workdays)
	assert.Equal(t, 2, run.Records[0].Holidays)
}

func TestRunHistoryErrors(t *testing.T) {
	t.Run("unknown run", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(t, http.MethodGet, "/api/runs/does-not-exist", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, CodeNotFound, decodeBody[ErrorBody](t, rec).Error.Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(t, http.MethodGet, "/api/runs?limit=zero", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history disabled", func(t *testing.T) {
		ts := newTestServer(t, false)
		rec := ts.do(t, http.MethodGet, "/api/runs", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, CodeHistoryOff, decodeBody[ErrorBody](t, rec).Error.Code)
	})
}

type failingStore struct{}

func (failingStore) SaveRun(context.Context, *sqlite.Run) error { return errors.New("disk full") }
func (failingStore) GetRun(context.Context, string) (*sqlite.Run, error) {
	return nil, errors.New("disk full")
}
func (failingStore) ListRuns(context.Context, int) ([]sqlite.Run, error) {
	return nil, errors.New("disk full")
}

func TestStoreFailureIsInternal(t *testing.T) {
	logger := zap.NewNop()
	h := NewHandler(newStubSource(), failingStore{}, Options{}, logger)
	router := NewRouter(h, logger, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/availabilities", strings.NewReader(weekDocument))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[ErrorBody](t, rec)
	assert.Equal(t, CodeInternal, body.Error.Code)
	assert.Equal(t, "internal error", body.Error.Message)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decodeBody[ErrorBody](t, rec).Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/availabilities", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
