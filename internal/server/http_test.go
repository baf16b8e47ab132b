package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sloth.dev/pkg/sloth/internal/domain"
	m "sloth.dev/pkg/sloth/internal/model"
)

type generationCall struct {
	offset, count int
	sortBy        m.SortOrder
	onlyMutated   bool
}

type stubFuzzer struct {
	mu          sync.Mutex
	stat        m.Statistics
	controlErr  error
	snippets    []m.Snippet
	details     map[string]m.SampleDetail
	calls       []string
	generations []generationCall
}

func (f *stubFuzzer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *stubFuzzer) Stat(context.Context) (m.Statistics, error) {
	f.record("stat")
	return f.stat, nil
}

func (f *stubFuzzer) Start(context.Context) error {
	f.record("start")
	return f.controlErr
}

func (f *stubFuzzer) Stop(context.Context) error {
	f.record("stop")
	return f.controlErr
}

func (f *stubFuzzer) TogglePause(context.Context) error {
	f.record("pause")
	return f.controlErr
}

func (f *stubFuzzer) Generation(_ context.Context, offset, count int, sortBy m.SortOrder, onlyMutated bool) ([]m.Snippet, error) {
	f.mu.Lock()
	f.generations = append(f.generations, generationCall{offset, count, sortBy, onlyMutated})
	f.mu.Unlock()

	if offset < 0 || count < 0 {
		return nil, fmt.Errorf("%w: offset %d, count %d", domain.ErrInvalidPage, offset, count)
	}

	return f.snippets, nil
}

func (f *stubFuzzer) Sample(_ context.Context, id string) (m.SampleDetail, error) {
	detail, ok := f.details[id]
	if !ok {
		return m.SampleDetail{}, fmt.Errorf("%w: %s", domain.ErrSampleNotFound, id)
	}

	return detail, nil
}

func newTestServer(t *testing.T, fuzzer domain.Fuzzer) *httptest.Server {
	t.Helper()

	serv, err := NewHTTPServer("127.0.0.1:0", fuzzer)
	require.NoError(t, err)

	ts := httptest.NewServer(serv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func request(t *testing.T, ts *httptest.Server, method, path string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, http.NoBody)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestHTTPServer_Stat(t *testing.T) {
	fuzzer := &stubFuzzer{stat: m.Statistics{RunID: "run-1", RunState: m.Started, GenerationCount: 7}}
	ts := newTestServer(t, fuzzer)

	status, body := request(t, ts, http.MethodGet, "/api/stat")
	require.Equal(t, http.StatusOK, status)

	var stat m.Statistics
	require.NoError(t, json.Unmarshal([]byte(body), &stat))
	assert.Equal(t, fuzzer.stat, stat)
	assert.Contains(t, body, `"runState":"Start"`)
}

func TestHTTPServer_Control(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "start", path: "/api/start", status: http.StatusOK},
		{name: "stop", path: "/api/stop", status: http.StatusOK},
		{name: "pause", path: "/api/pause", status: http.StatusOK},
		{name: "start twice", path: "/api/start", err: domain.ErrAlreadyRunning, status: http.StatusConflict},
		{name: "stop stopped", path: "/api/stop", err: domain.ErrNotRunning, status: http.StatusConflict},
		{name: "pause finished", path: "/api/pause", err: domain.ErrLoopFinished, status: http.StatusConflict},
		{name: "internal", path: "/api/start", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubFuzzer{controlErr: tt.err})

			status, body := request(t, ts, http.MethodPost, tt.path)
			assert.Equal(t, tt.status, status)

			if tt.err != nil {
				assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.err.Error()), body)
			}
		})
	}
}

func TestHTTPServer_ControlRejectsGet(t *testing.T) {
	ts := newTestServer(t, &stubFuzzer{})

	status, _ := request(t, ts, http.MethodGet, "/api/start")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestHTTPServer_Generation(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		want   *generationCall
	}{
		{name: "defaults", query: "", status: http.StatusOK, want: &generationCall{0, DefaultPageSize, m.SortByScore, false}},
		{name: "explicit", query: "?offset=5&count=2&sort=NODES&mutated=true", status: http.StatusOK, want: &generationCall{5, 2, m.SortByNodeCount, true}},
		{name: "bad offset", query: "?offset=x", status: http.StatusBadRequest},
		{name: "bad count", query: "?count=1.5", status: http.StatusBadRequest},
		{name: "bad sort", query: "?sort=fastest", status: http.StatusBadRequest},
		{name: "bad mutated", query: "?mutated=maybe", status: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", status: http.StatusBadRequest, want: &generationCall{-1, DefaultPageSize, m.SortByScore, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fuzzer := &stubFuzzer{snippets: []m.Snippet{{ID: "GN-1-1", Value: 3}}}
			ts := newTestServer(t, fuzzer)

			status, body := request(t, ts, http.MethodGet, "/api/generation"+tt.query)
			assert.Equal(t, tt.status, status)

			if tt.want == nil {
				assert.Empty(t, fuzzer.generations)
				assert.Contains(t, body, domain.ErrInvalidPage.Error())

				return
			}

			require.Len(t, fuzzer.generations, 1)
			assert.Equal(t, *tt.want, fuzzer.generations[0])
		})
	}
}

func TestHTTPServer_Sample(t *testing.T) {
	detail := m.SampleDetail{
		Snippet: m.Snippet{ID: "seeds/a.go", Value: 2},
		Text:    "package main\n",
		Lineage: []m.LineageStep{{ID: "seeds/a.go"}},
	}
	ts := newTestServer(t, &stubFuzzer{details: map[string]m.SampleDetail{"seeds/a.go": detail}})

	status, body := request(t, ts, http.MethodGet, "/api/sample/seeds/a.go")
	require.Equal(t, http.StatusOK, status)

	var got m.SampleDetail
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, detail, got)

	status, _ = request(t, ts, http.MethodGet, "/api/sample/GN-9-9")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTTPServer_Metrics(t *testing.T) {
	fuzzer := &stubFuzzer{stat: m.Statistics{
		RunState:           m.Paused,
		GenerationCount:    3,
		Compilations:       10,
		Successful:         4,
		CompileSuccessRate: 0.4,
		Diagnostics:        map[string]int{"undefined: x": 2},
	}}
	ts := newTestServer(t, fuzzer)

	status, body := request(t, ts, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, status)

	assert.Contains(t, body, "sloth_generations_total 3")
	assert.Contains(t, body, "sloth_compilations_total 10")
	assert.Contains(t, body, "sloth_compile_success_rate 0.4")
	assert.Contains(t, body, `sloth_run_state{state="Pause"} 1`)
	assert.Contains(t, body, `sloth_run_state{state="Start"} 0`)
	assert.Contains(t, body, `sloth_diagnostics_total{message="undefined: x"} 2`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("wrapped: %w", domain.ErrNotRunning)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrInvalidPage))
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.ErrSampleNotFound))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("other")))
}

func TestHTTPServer_ServeStopsWithContext(t *testing.T) {
	serv, err := NewHTTPServer("127.0.0.1:0", &stubFuzzer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- serv.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestHTTPServer_RecoversFromPanics(t *testing.T) {
	ts := newTestServer(t, panickingFuzzer{&stubFuzzer{}})

	status, _ := request(t, ts, http.MethodGet, "/api/stat")
	assert.Equal(t, http.StatusInternalServerError, status)

	status, body := request(t, ts, http.MethodGet, "/api/generation")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(body, "[]"))
}

func TestHTTPServer_RecoversFromPanicsWithGzip(t *testing.T) {
	ts := newTestServer(t, panickingFuzzer{&stubFuzzer{}})

	for range 2 {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/stat", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
}

type panickingFuzzer struct {
	*stubFuzzer
}

func (panickingFuzzer) Stat(context.Context) (m.Statistics, error) {
	panic("stat exploded")
}

func (panickingFuzzer) Generation(context.Context, int, int, m.SortOrder, bool) ([]m.Snippet, error) {
	return []m.Snippet{}, nil
}
