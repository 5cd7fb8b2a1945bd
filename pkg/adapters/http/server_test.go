package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/pkg/adapters/memory"
	tapestryhttp "github.com/aretw0/tapestry/pkg/adapters/http"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/observability"
	"github.com/aretw0/tapestry/pkg/runner"
)

type testServer struct {
	*httptest.Server
	live *observability.Aggregator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	b, err := bundle.ReadFile(filepath.Join("..", "..", "bundle", "testdata", "lantern.yaml"))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	live := observability.NewAggregator()

	graph := memory.NewGraph()
	engine := runtime.NewEngine(graph, memory.NewStore(),
		runtime.WithLifecycleHooks(metrics.Hooks()),
		runtime.WithSubscriber(live.Observe),
	)
	_, err = bundle.Install(context.Background(), graph, engine, b)
	require.NoError(t, err)

	handler := tapestryhttp.NewHandler(engine,
		tapestryhttp.WithLive(live),
		tapestryhttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, live: live}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s *testServer) passage(t *testing.T) runner.RichResponse {
	t.Helper()
	resp, data := s.do(t, http.MethodGet, "/worlds/lantern/passage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rich runner.RichResponse
	require.NoError(t, json.Unmarshal(data, &rich))
	return rich
}

func TestHealthAndInfo(t *testing.T) {
	s := newTestServer(t)

	resp, data := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, data = s.do(t, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"app":"tapestry-http"`)

	resp, _ = s.do(t, http.MethodOptions, "/worlds/lantern/submit", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPassageAndSubmit(t *testing.T) {
	s := newTestServer(t)

	rich := s.passage(t)
	assert.Equal(t, "dark", rich.Passage.Event.ID)
	require.Len(t, rich.Passage.Choices, 2)
	entryID := rich.State.Entry.ID

	submit := tapestryhttp.SubmitRequest{EntryID: entryID, Outcome: runner.ChoiceOf(rich.Passage.Choices[0])}
	resp, data := s.do(t, http.MethodPost, "/worlds/lantern/submit", submit)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var next runner.RichResponse
	require.NoError(t, json.Unmarshal(data, &next))
	assert.Equal(t, "glow", next.Passage.Event.ID)
	assert.Equal(t, "Warm light fills the cellar.", next.Passage.Text)
	assert.False(t, next.State.Duplicate)

	// Submitting the same entry again is absorbed.
	resp, data = s.do(t, http.MethodPost, "/worlds/lantern/submit", submit)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var dup runner.RichResponse
	require.NoError(t, json.Unmarshal(data, &dup))
	assert.True(t, dup.State.Duplicate)
	assert.Equal(t, next.State.Entry.ID, dup.State.Entry.ID)

	resp, data = s.do(t, http.MethodGet, "/worlds/lantern/introspect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info domain.Introspection
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "glow", info.Destination)
	assert.Equal(t, "1", info.State["v-oil"].Value)
}

func TestSubmit_Errors(t *testing.T) {
	s := newTestServer(t)
	entryID := s.passage(t).State.Entry.ID

	tests := []struct {
		name   string
		world  string
		body   any
		status int
	}{
		{"Malformed Body", "lantern", "not an object", http.StatusBadRequest},
		{"Missing Entry", "lantern", tapestryhttp.SubmitRequest{Outcome: domain.PassthroughOutcome("")}, http.StatusBadRequest},
		{"Input At Choice Passage", "lantern", tapestryhttp.SubmitRequest{EntryID: entryID, Outcome: domain.InputOutcome("x", "")}, http.StatusBadRequest},
		{"Oversized Input", "lantern", tapestryhttp.SubmitRequest{EntryID: entryID, Outcome: domain.InputOutcome(strings.Repeat("a", runner.DefaultMaxInputSize+1), "")}, http.StatusBadRequest},
		{"Loopback Without Origin", "lantern", tapestryhttp.SubmitRequest{EntryID: entryID, Outcome: domain.LoopbackOutcome()}, http.StatusConflict},
		{"Unknown Entry", "lantern", tapestryhttp.SubmitRequest{EntryID: "nope", Outcome: domain.LoopbackOutcome()}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := s.do(t, http.MethodPost, "/worlds/"+tt.world+"/submit", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(data))
			var e tapestryhttp.ErrorResponse
			require.NoError(t, json.Unmarshal(data, &e))
			assert.NotEmpty(t, e.Error)
		})
	}

	resp, _ := s.do(t, http.MethodGet, "/worlds/ghost/passage", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryAndRestart(t *testing.T) {
	s := newTestServer(t)
	rich := s.passage(t)

	wait := tapestryhttp.SubmitRequest{EntryID: rich.State.Entry.ID, Outcome: runner.ChoiceOf(rich.Passage.Choices[1])}
	resp, _ := s.do(t, http.MethodPost, "/worlds/lantern/submit", wait)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := s.do(t, http.MethodGet, "/worlds/lantern/history?limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []domain.PlaythroughEvent
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].Seq)

	resp, _ = s.do(t, http.MethodGet, "/worlds/lantern/history?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = s.do(t, http.MethodPost, "/worlds/lantern/restart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var restarted runner.RichResponse
	require.NoError(t, json.Unmarshal(data, &restarted))
	assert.Equal(t, domain.EntryRestart, restarted.State.Entry.Type)
	assert.Equal(t, "dark", restarted.Passage.Event.ID)
	assert.Equal(t, "2", restarted.State.Entry.State["v-oil"].Value)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rich := s.passage(t)
	resp, _ := s.do(t, http.MethodPost, "/worlds/lantern/submit",
		tapestryhttp.SubmitRequest{EntryID: rich.State.Entry.ID, Outcome: runner.ChoiceOf(rich.Passage.Choices[0])})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `tapestry_advances_total{outcome="choice",world="lantern"} 1`)
}

func TestLiveLink(t *testing.T) {
	s := newTestServer(t)
	rich := s.passage(t)
	s.live.Seed(rich.State.Entry)

	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/worlds/lantern/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first domain.StateDiff
	require.NoError(t, conn.ReadJSON(&first))
	require.NotNil(t, first.Destination)
	assert.Equal(t, "dark", *first.Destination)

	resp, _ := s.do(t, http.MethodPost, "/worlds/lantern/submit",
		tapestryhttp.SubmitRequest{EntryID: rich.State.Entry.ID, Outcome: runner.ChoiceOf(rich.Passage.Choices[0])})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var diff domain.StateDiff
	require.NoError(t, conn.ReadJSON(&diff))
	require.NotNil(t, diff.Destination)
	assert.Equal(t, "glow", *diff.Destination)
	assert.Equal(t, "true", diff.Variables["v-lit"].Value)
}
