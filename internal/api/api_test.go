package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/api"
	"job-ingest-go/internal/ingest"
	"job-ingest-go/internal/logger"
	"job-ingest-go/internal/models"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/sources"
)

type fakeRuns struct {
	mu      sync.Mutex
	running bool
	latest  *ingest.RunReport
	err     error
	calls   []string
	// release, when set, holds runs begun through Start until it is closed.
	release chan struct{}
}

func (f *fakeRuns) reserve(selection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return ingest.ErrRunInProgress
	}
	if f.err != nil {
		return f.err
	}
	f.running = true
	f.calls = append(f.calls, selection)
	return nil
}

func (f *fakeRuns) finish(selection string) *ingest.RunReport {
	rep := &ingest.RunReport{RunID: "run-1", Selection: selection}
	f.mu.Lock()
	f.latest = rep
	f.running = false
	f.mu.Unlock()
	return rep
}

func (f *fakeRuns) Run(_ context.Context, selection string) (*ingest.RunReport, error) {
	if err := f.reserve(selection); err != nil {
		return nil, err
	}
	return f.finish(selection), nil
}

func (f *fakeRuns) Start(_ context.Context, selection string) (<-chan *ingest.RunReport, error) {
	if err := f.reserve(selection); err != nil {
		return nil, err
	}
	done := make(chan *ingest.RunReport, 1)
	go func() {
		defer close(done)
		if f.release != nil {
			<-f.release
		}
		done <- f.finish(selection)
	}()
	return done, nil
}

func (f *fakeRuns) Latest() *ingest.RunReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *fakeRuns) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func setupRouter(t *testing.T, runs *fakeRuns) (*gin.Engine, *api.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := api.NewHandler(context.Background(), runs, salary.NewNormalizer(salary.DefaultPolicy()), logger.NewNop())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ingest_runs_in_flight 0\n"))
	})
	return api.NewRouter(h, metrics, logger.NewNop()), h
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{running: true})

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["running"])
}

func TestMetricsRoute(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ingest_runs_in_flight")
}

func TestLatestRunBeforeAnyRun(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodGet, "/v1/runs/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartRunSynchronous(t *testing.T) {
	runs := &fakeRuns{}
	router, _ := setupRouter(t, runs)

	w := do(router, http.MethodPost, "/v1/runs", `{"sources":"remotive","wait":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var rep ingest.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "remotive", rep.Selection)

	w = do(router, http.MethodGet, "/v1/runs/latest", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"run-1"`)
}

func TestStartRunAsyncDefaultsToAll(t *testing.T) {
	runs := &fakeRuns{}
	router, h := setupRouter(t, runs)

	w := do(router, http.MethodPost, "/v1/runs", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	h.Wait()
	assert.Equal(t, []string{"all"}, runs.calls)
	assert.False(t, runs.Running())
}

func TestStartRunAsyncRejectsSecondRequest(t *testing.T) {
	runs := &fakeRuns{release: make(chan struct{})}
	router, h := setupRouter(t, runs)

	w := do(router, http.MethodPost, "/v1/runs", `{"sources":"ats"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(router, http.MethodPost, "/v1/runs", `{"sources":"aggregators"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), ingest.ErrRunInProgress.Error())

	close(runs.release)
	h.Wait()

	w = do(router, http.MethodPost, "/v1/runs", `{"sources":"aggregators","wait":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ats", "aggregators"}, runs.calls)
}

func TestStartRunConflicts(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{running: true})
	w := do(router, http.MethodPost, "/v1/runs", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	router, _ = setupRouter(t, &fakeRuns{err: ingest.ErrRunInProgress})
	w = do(router, http.MethodPost, "/v1/runs", `{"wait":true}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStartRunErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		code int
	}{
		{"unknown source", sources.ErrUnknownSource, `{"sources":"nope","wait":true}`, http.StatusBadRequest},
		{"no sources", ingest.ErrNoSources, `{"sources":"ats","wait":true}`, http.StatusBadRequest},
		{"other", errors.New("boom"), `{"wait":true}`, http.StatusInternalServerError},
		{"unknown source async", sources.ErrUnknownSource, `{"sources":"nope"}`, http.StatusBadRequest},
		{"no sources async", ingest.ErrNoSources, `{"sources":"ats"}`, http.StatusBadRequest},
		{"malformed body", nil, `{"wait":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupRouter(t, &fakeRuns{err: tc.err})
			w := do(router, http.MethodPost, "/v1/runs", tc.body)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestParseSalaryText(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodPost, "/v1/salary/parse",
		`{"text":"Salary: $150,000 - $180,000 per year","country_code":"US"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ParseSalaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Candidate)
	require.NotNil(t, resp.Salary)
	assert.Equal(t, "USD", resp.Salary.Currency)
	require.NotNil(t, resp.Salary.MinAnnual)
	assert.Equal(t, int64(150_000), *resp.Salary.MinAnnual)
	assert.Equal(t, models.SalarySourceSalaryRaw, resp.Validation.Source)
}

func TestParseSalaryHTML(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodPost, "/v1/salary/parse",
		`{"html":"<div>Base salary range: $124k - $187k annually</div>","vendor":"generic"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ParseSalaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Salary)
	assert.Equal(t, models.SalarySourceDescription, resp.Validation.Source)
}

func TestParseSalaryNothingFound(t *testing.T) {
	resp := api.ParseSalary(salary.NewNormalizer(salary.DefaultPolicy()), api.ParseSalaryRequest{Text: "competitive pay"})
	assert.Nil(t, resp.Candidate)
	assert.Nil(t, resp.Salary)
	assert.Equal(t, models.SalarySourceNone, resp.Validation.Source)
	assert.Equal(t, "competitive pay", resp.Validation.RawText)
}

func TestParseSalaryValidation(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodPost, "/v1/salary/parse", `{"vendor":"generic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/v1/salary/parse", `{"text":"$100k","country_code":"USA"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifyTitle(t *testing.T) {
	router, _ := setupRouter(t, &fakeRuns{})

	w := do(router, http.MethodGet, "/v1/roles/classify?title=Senior+Software+Engineer", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "senior", body["seniority"])
	assert.Equal(t, "senior-software-engineer", body["slug"])

	w = do(router, http.MethodGet, "/v1/roles/classify", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
