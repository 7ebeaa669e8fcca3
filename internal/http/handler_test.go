package http

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/config"
	"go.ngs.io/harmonize/internal/regrid"
	"go.ngs.io/harmonize/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, cfg config.ServerConfig) *gin.Engine {
	t.Helper()
	engine := regrid.NewEngine()
	reg := regrid.DefaultRegistry(engine, regrid.NewConservative(false))
	uc := usecase.NewRegridUseCase(reg, regrid.MethodAdaptive, zap.NewNop())
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return SetupRouter(uc, cfg, zap.NewNop())
}

// halfDegreeBody is a 3x3 grid at 0.5 degrees with one missing value.
const halfDegreeBody = `{
	"grid": {
		"latitude": [51, 51.5, 52],
		"longitude": [3, 3.5, 4],
		"variables": [{
			"name": "altitude",
			"attrs": {"units": "meter"},
			"data": [0, 1, 2, 3, 4, 5, 6, 7, null]
		}]
	},
	"bounds": {"north": 52, "east": 4, "south": 51, "west": 3},
	"resolution": 0.1,
	"method": "flox"
}`

func do(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := do(newRouter(t, config.ServerConfig{}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	w := do(newRouter(t, config.ServerConfig{}), http.MethodGet, "/health", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestListMethods(t *testing.T) {
	w := do(newRouter(t, config.ServerConfig{}), http.MethodGet, "/v1/methods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Default string              `json:"default"`
		Methods []regrid.MethodInfo `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, regrid.MethodAdaptive, body.Default)
	require.Len(t, body.Methods, 2)
	assert.Equal(t, regrid.MethodAdaptive, body.Methods[0].Name)
	assert.True(t, body.Methods[0].Available)
	assert.Equal(t, regrid.MethodConservative, body.Methods[1].Name)
	assert.False(t, body.Methods[1].Available)
	assert.Contains(t, body.Methods[1].Reason, "conservative_enabled")
}

func TestRegrid_Interpolate(t *testing.T) {
	w := do(newRouter(t, config.ServerConfig{}), http.MethodPost, "/v1/regrid", halfDegreeBody, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Method      string `json:"method"`
		Strategy    string `json:"strategy"`
		MaskedCells int    `json:"masked_cells"`
		Grid        struct {
			Latitude  []float64 `json:"latitude"`
			Longitude []float64 `json:"longitude"`
			Variables []struct {
				Name string     `json:"name"`
				Data []*float64 `json:"data"`
			} `json:"variables"`
		} `json:"grid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, regrid.MethodAdaptive, resp.Method)
	assert.Equal(t, "interpolate", resp.Strategy)
	require.Len(t, resp.Grid.Variables, 1)

	data := resp.Grid.Variables[0].Data
	nLon := len(resp.Grid.Longitude)
	require.Equal(t, len(resp.Grid.Latitude)*nLon, len(data))

	// The south-west target sits on a source node.
	require.NotNil(t, data[0])
	assert.Equal(t, 0.0, *data[0])

	// Cells depending on the missing north-east node come back as null.
	nulls := 0
	for _, p := range data {
		if p == nil {
			nulls++
		}
	}
	assert.Positive(t, nulls)
	assert.Equal(t, nulls, resp.MaskedCells)
}

func TestRegrid_Errors(t *testing.T) {
	router := newRouter(t, config.ServerConfig{})
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"grid":`, http.StatusBadRequest},
		{"missing bounds", `{"grid": {"latitude": [0, 1], "longitude": [0, 1], "variables": []}, "resolution": 1}`, http.StatusBadRequest},
		{"unknown method", strings.Replace(halfDegreeBody, `"flox"`, `"nearest"`, 1), http.StatusBadRequest},
		{"disabled backend", strings.Replace(halfDegreeBody, `"flox"`, `"esmf"`, 1), http.StatusUnprocessableEntity},
		{"zero resolution", strings.Replace(halfDegreeBody, `"resolution": 0.1`, `"resolution": 0`, 1), http.StatusBadRequest},
		{"inverted bounds", strings.Replace(halfDegreeBody, `"south": 51`, `"south": 53`, 1), http.StatusBadRequest},
		{"short data", strings.Replace(halfDegreeBody, `, 7, null]`, `]`, 1), http.StatusBadRequest},
		{"target too large", strings.Replace(halfDegreeBody, `"resolution": 0.1`, `"resolution": 1e-18`, 1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/v1/regrid", tt.body, map[string]string{RequestIDHeader: "req-1"})
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Equal(t, "req-1", body["request_id"])
		})
	}
}

func TestRegrid_BodyTooLarge(t *testing.T) {
	router := newRouter(t, config.ServerConfig{MaxBodyBytes: 64})
	w := do(router, http.MethodPost, "/v1/regrid", halfDegreeBody, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRegrid_RateLimited(t *testing.T) {
	router := newRouter(t, config.ServerConfig{RegridRateLimit: 0.001, RegridBurst: 1})

	first := do(router, http.MethodPost, "/v1/regrid", halfDegreeBody, nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := do(router, http.MethodPost, "/v1/regrid", halfDegreeBody, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/methods", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(t, config.ServerConfig{})
	do(router, http.MethodGet, "/health", "", nil)

	w := do(router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `harmonize_http_requests_total{method="GET",route="/health",status="2xx"}`)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	router := newRouter(t, config.ServerConfig{CORSAllowedOrigins: []string{"https://app.example"}})

	w := do(router, http.MethodGet, "/health", "", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(router, http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestValues_JSON(t *testing.T) {
	in := Values{1.5, math.NaN(), -2}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `[1.5,null,-2]`, string(data))

	var out Values
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out, 3)
	assert.Equal(t, 1.5, out[0])
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, -2.0, out[2])

	buf := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buf).Encode(Values{}))
	assert.Equal(t, "[]\n", buf.String())
}
