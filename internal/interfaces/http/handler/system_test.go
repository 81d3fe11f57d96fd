package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relist/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemGet(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	NewSystemHandler().RegisterRoutes(router.Group("/api/v1"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func successData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w := systemGet(t, "/api/v1/system/info")
	require.Equal(t, http.StatusOK, w.Code)

	data := successData(t, w)
	assert.Equal(t, "Relist Backend API", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
	assert.Greater(t, data["goroutines"], float64(0))
}

func TestSystemHandler_Ping(t *testing.T) {
	w := systemGet(t, "/api/v1/system/ping")
	require.Equal(t, http.StatusOK, w.Code)

	data := successData(t, w)
	assert.Equal(t, "pong", data["message"])

	timestamp, ok := data["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, timestamp)
	assert.NoError(t, err)
}

func TestSystemHandler_UptimeAdvances(t *testing.T) {
	h := NewSystemHandler()
	require.False(t, h.startTime.IsZero())
	assert.LessOrEqual(t, h.startTime, time.Now())
}
