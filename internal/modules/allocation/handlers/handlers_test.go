package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileJSON struct {
	Name    string `json:"name"`
	Targets []struct {
		Asset  string  `json:"asset"`
		Weight float64 `json:"weight"`
	} `json:"targets"`
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	NewHandler(zerolog.Nop()).RegisterRoutes(r)
	return r
}

func TestHandleListProfiles(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profiles/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data     []profileJSON          `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	assert.Equal(t, "Conservative", body.Data[0].Name)
	assert.Equal(t, "Aggressive", body.Data[2].Name)
	assert.Contains(t, body.Metadata, "timestamp")
}

func TestHandleGetProfile(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantName   string
	}{
		{"/profiles/moderate", http.StatusOK, "Moderate"},
		{"/profiles/AGGRESSIVE", http.StatusOK, "Aggressive"},
		{"/profiles/yolo", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantName == "" {
				assert.JSONEq(t, `{"error":"profile not found"}`, rec.Body.String())
				return
			}
			var body struct {
				Data profileJSON `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantName, body.Data.Name)
			assert.Len(t, body.Data.Targets, 2)
		})
	}
}
