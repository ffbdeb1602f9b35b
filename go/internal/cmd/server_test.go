package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/watchparty/go/internal/models"
)

func TestServerRoutes(t *testing.T) {
	t.Setenv("NATS_URL", "")
	path := filepath.Join(t.TempDir(), "watchparty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
	config, err := loadConfig(path)
	require.NoError(t, err)

	services, err := setupServices(context.Background(), config, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(newHandler(services, config))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/movies")
	require.NoError(t, err)
	var movieList struct {
		Success bool           `json:"success"`
		Data    []models.Movie `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movieList))
	resp.Body.Close()
	require.Len(t, movieList.Data, 1)

	body, _ := json.Marshal(models.CreateRoomRequest{MovieID: "bbb", Name: "Friday"})
	resp, err = http.Post(srv.URL+"/rooms", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/rooms", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
