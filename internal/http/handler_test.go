package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go.ngs.io/regrid/internal/catalog"
	"go.ngs.io/regrid/internal/domain"
	"go.ngs.io/regrid/internal/usecase"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := catalog.NewRegistry(map[string]map[string]catalog.GridSpec{
		"TestDomain": {
			"coarse": {Type: domain.KindRegular, Params: catalog.GridParams{
				NX: 36, NY: 19, LatMin: -90, LonMin: -180, Dx: 10, Dy: 10,
			}},
			"era5_ensemble": {Type: domain.KindGaussian, Params: catalog.GridParams{GridType: "N160"}},
		},
	})
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	uc := usecase.NewResampleUseCase(reg, nil, nil, usecase.Options{
		Workers: 2, MaxTargetCells: 10_000, DefaultResolution: 10, Logger: logger,
	})
	return SetupRouter(uc, nil)
}

func do(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestListGrids(t *testing.T) {
	router := newTestRouter(t)
	w := do(router, http.MethodGet, "/v1/grids", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Grids []catalog.GridInfo `json:"grids"`
		Count int                `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 || resp.Grids[0].Name != "coarse" || resp.Grids[1].Count != 108160 {
		t.Errorf("grids: got %+v", resp)
	}
}

func TestGetGrid(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/v1/grids/TestDomain/coarse", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var info catalog.GridInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Kind != domain.KindRegular || info.Bounds == nil || info.Bounds.Longitude.Max != 170 {
		t.Errorf("info: got %+v", info)
	}

	w = do(router, http.MethodGet, "/v1/grids/TestDomain/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing grid: expected 404, got %d", w.Code)
	}
}

func TestFindPoint(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIndex  int
	}{
		{"nearest", "?lat=1&lon=12", http.StatusOK, 9*36 + 19},
		{"wraps longitude", "?lat=0&lon=360", http.StatusOK, 9*36 + 18},
		{"missing lon", "?lat=1", http.StatusBadRequest, 0},
		{"bad latitude", "?lat=abc&lon=1", http.StatusBadRequest, 0},
		{"latitude out of range", "?lat=95&lon=1", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		w := do(router, http.MethodGet, "/v1/grids/TestDomain/coarse/point"+tt.query, nil)
		if w.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d: %s", tt.name, tt.wantStatus, w.Code, w.Body.String())
			continue
		}
		if tt.wantStatus != http.StatusOK {
			continue
		}
		var resp usecase.PointResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Index != tt.wantIndex {
			t.Errorf("%s: expected index %d, got %d", tt.name, tt.wantIndex, resp.Index)
		}
	}
}

func TestResample(t *testing.T) {
	router := newTestRouter(t)

	values := make([]*float64, 36*19)
	for i := range values {
		v := float64(i / 36)
		values[i] = &v
	}
	values[9*36+18] = nil

	body, _ := json.Marshal(map[string]any{
		"domain":     "TestDomain",
		"name":       "coarse",
		"values":     values,
		"resolution": 10,
		"latitude":   domain.Range{Min: -10, Max: 10},
		"longitude":  domain.Range{Min: 0, Max: 10},
	})
	w := do(router, http.MethodPost, "/v1/resample", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp usecase.ResampleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.NY != 3 || resp.NX != 2 {
		t.Fatalf("shape: got (%d, %d)", resp.NY, resp.NX)
	}
	rows := resp.Values[0]
	if rows[0][0] == nil || *rows[0][0] != 8 {
		t.Errorf("cell (0, 0): expected row 8, got %v", rows[0][0])
	}
	if rows[1][0] != nil {
		t.Errorf("cell (1, 0): expected null, got %v", *rows[1][0])
	}
	if rows[2][1] == nil || *rows[2][1] != 10 {
		t.Errorf("cell (2, 1): expected row 10, got %v", rows[2][1])
	}
}

func TestResample_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"missing values", `{"domain":"TestDomain","name":"coarse"}`, http.StatusBadRequest},
		{"shape mismatch", `{"domain":"TestDomain","name":"coarse","values":[1,2,3]}`, http.StatusBadRequest},
		{"unknown method", `{"domain":"TestDomain","name":"coarse","values":[1],"method":"cubic"}`, http.StatusBadRequest},
		{"unknown grid", `{"domain":"TestDomain","name":"nope","values":[1]}`, http.StatusNotFound},
		{"too many cells", `{"domain":"TestDomain","name":"coarse","values":[1],"resolution":0.1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := do(router, http.MethodPost, "/v1/resample", []byte(tt.body))
		if w.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d: %s", tt.name, tt.wantStatus, w.Code, w.Body.String())
		}
	}
}

func TestHealthAndMethods(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", w.Code)
	}

	w = do(router, http.MethodGet, "/v1/methods", nil)
	var resp struct {
		Methods []string `json:"methods"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Methods) != 1 || resp.Methods[0] != "nearest" {
		t.Errorf("methods: got %v", resp.Methods)
	}

	w = do(router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", w.Code)
	}
}
