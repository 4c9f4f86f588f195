package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/njchilds90/golimits/internal/config"
	"github.com/njchilds90/golimits/internal/telemetry"
	"github.com/njchilds90/golimits/limits"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, mutate ...func(*config.Server)) *Server {
	t.Helper()
	cfg := config.Default().Server
	cfg.RateLimit = 1000
	cfg.Burst = 1000
	for _, fn := range mutate {
		fn(&cfg)
	}
	engine := limits.NewKernelEngine()
	analyzer := limits.NewAnalyzer(engine, nil, limits.WithPlotSamples(10))
	return New(cfg, engine, analyzer, telemetry.NewMetrics(), nil)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func callTool(t *testing.T, s *Server, tool string, params map[string]interface{}) ToolResponse {
	t.Helper()
	body, err := json.Marshal(ToolRequest{Tool: tool, Params: params})
	require.NoError(t, err)
	rr := post(t, s.Handler(), "/tool", string(body))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ToolResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestTool_Limit(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{"sinc", map[string]interface{}{"expr": "sin(x)/x", "point": "0"}, "1"},
		{"removable", map[string]interface{}{"expr": "(x^2-1)/(x-1)", "point": "1"}, "2"},
		{"right suffix", map[string]interface{}{"expr": "1/x", "point": "0+"}, "∞"},
		{"left direction", map[string]interface{}{"expr": "1/x", "point": "0", "direction": "left"}, "-∞"},
		{"infinity", map[string]interface{}{"expr": "1/x", "point": "∞"}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "limit", tt.params)
			assert.Empty(t, resp.Error)
			assert.Equal(t, tt.want, resp.String)
			assert.NotEmpty(t, resp.LaTeX)
		})
	}
}

func TestTool_Others(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "normalize", map[string]interface{}{"expr": "2x²"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, "2*x**2", resp.String)
	norm, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tree, ok := norm["tree"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, tree["type"])

	resp = callTool(t, s, "parse_approach", map[string]interface{}{"point": "0-"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, "x → 0⁻", resp.String)

	resp = callTool(t, s, "substitute", map[string]interface{}{"expr": "x^2 + 1", "point": "2"})
	assert.Equal(t, "5", resp.String)

	resp = callTool(t, s, "continuity", map[string]interface{}{"expr": "floor(x)", "point": "1"})
	assert.Equal(t, string(limits.KindJump), resp.String)

	resp = callTool(t, s, "narrate", map[string]interface{}{"expr": "sin(x)/x", "point": "0"})
	assert.Equal(t, "1", resp.String)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, result["steps"])

	resp = callTool(t, s, "analyze", map[string]interface{}{"expr": "sin(x)/x", "expr2": "x", "point": "0"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, "1", resp.String)

	resp = callTool(t, s, "examples", nil)
	examples, ok := resp.Result.([]interface{})
	require.True(t, ok)
	assert.Len(t, examples, len(limits.Examples()))

	resp = callTool(t, s, "mcp_spec", nil)
	assert.NotNil(t, resp.Result)
}

func TestTool_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name    string
		tool    string
		params  map[string]interface{}
		wantErr string
	}{
		{"unknown tool", "integrate", nil, "unknown tool"},
		{"missing expr", "limit", map[string]interface{}{"point": "0"}, "missing param: expr"},
		{"wrong type", "limit", map[string]interface{}{"expr": 3, "point": "0"}, "must be a string"},
		{"bad point", "limit", map[string]interface{}{"expr": "x", "point": "abc"}, "invalid"},
		{"bad direction", "limit", map[string]interface{}{"expr": "x", "point": "0", "direction": "up"}, "direction"},
		{"empty expr", "normalize", map[string]interface{}{"expr": "   "}, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.params)
			assert.Contains(t, resp.Error, tt.wantErr)
		})
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t)
	rr := post(t, s.Handler(), "/analyze", `{"expression":"(x^2-1)/(x-1)","point":"1"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got struct {
		Results []struct {
			Limit struct {
				Tag     string `json:"tag"`
				Display string `json:"display"`
			} `json:"limit"`
			Continuity struct {
				Kind string `json:"kind"`
			} `json:"continuity"`
			Plot []map[string]interface{} `json:"plot"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Results, 1)
	assert.Equal(t, "2", got.Results[0].Limit.Display)
	assert.Equal(t, "integer", got.Results[0].Limit.Tag)
	assert.Equal(t, string(limits.KindRemovable), got.Results[0].Continuity.Kind)
	assert.Len(t, got.Results[0].Plot, 10)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.AnalysisCounter("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RequestCounter("/analyze", http.StatusOK)))
}

func TestAnalyze_BadRequests(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"empty expression", `{"expression":"","point":"0"}`},
		{"bad point", `{"expression":"x","point":"nowhere"}`},
		{"unknown field", `{"expression":"x","point":"0","extra":1}`},
		{"trailing data", `{"expression":"x","point":"0"} {"x":1}`},
		{"not json", `lim x->0`},
		{"too long", `{"expression":"` + strings.Repeat("x+", 300) + `x","point":"0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(t, s.Handler(), "/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/analyze", "/tool"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, path)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/examples", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Server) { c.MaxBodyBytes = 1024 })
	body := `{"expression":"` + strings.Repeat(" ", 2048) + `x","point":"0"}`
	rr := post(t, s.Handler(), "/analyze", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Server) {
		c.RateLimit = 0.001
		c.Burst = 1
	})
	h := s.Handler()
	first := post(t, h, "/tool", `{"tool":"examples"}`)
	assert.Equal(t, http.StatusOK, first.Code)
	second := post(t, h, "/tool", `{"tool":"examples"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Read-only routes are not limited.
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RequestCounter("/tool", http.StatusTooManyRequests)))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rr.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestRecover(t *testing.T) {
	s := newTestServer(t)
	h := s.wrap("/boom", false, func(http.ResponseWriter, *http.Request) { panic("boom") })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RequestCounter("/boom", http.StatusInternalServerError)))
}

func TestSchemaAndMetrics(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/schema", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &spec))
	var names []string
	for _, tool := range spec.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "limit")
	assert.Contains(t, names, "continuity")

	post(t, h, "/analyze", `{"expression":"x","point":"0"}`)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "golimits_http_requests_total")
	assert.Contains(t, rr.Body.String(), `golimits_analyses_total{outcome="ok"} 1`)
}

func TestServe_Shutdown(t *testing.T) {
	s := newTestServer(t, func(c *config.Server) { c.ShutdownWait = time.Second })
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+ln.Addr().String()+"/tool", "application/json",
		bytes.NewBufferString(`{"tool":"limit","params":{"expr":"sin(x)/x","point":"0"}}`))
	require.NoError(t, err)
	var tr ToolResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "1", tr.String)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
