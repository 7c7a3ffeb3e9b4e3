package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/at-ishikawa/wordday/internal/app"
	"github.com/at-ishikawa/wordday/internal/config"
	"github.com/at-ishikawa/wordday/internal/server"
	"github.com/at-ishikawa/wordday/internal/session"
)

func newTestConfig(t *testing.T, allowLocalUser bool) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Port:                8080,
			CORS:                config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
			AllowLocalUser:      allowLocalUser,
			ExpirySweepInterval: time.Minute,
		},
		Storage: config.StorageConfig{
			Backend:     config.BackendNone,
			LocalFile:   filepath.Join(dir, "local.yml"),
			SessionFile: filepath.Join(dir, "session.yml"),
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	a, err := app.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	handler, err := newHTTPHandler(cfg, a, session.NewManager(a.Store), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func call(t *testing.T, url, procedure string) (map[string]any, error) {
	t.Helper()
	client := connect.NewClient[structpb.Struct, structpb.Struct](http.DefaultClient, url+procedure)
	res, err := client.CallUnary(context.Background(), connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		return nil, err
	}
	return res.Msg.AsMap(), nil
}

func TestNewHTTPHandler(t *testing.T) {
	url := newTestServer(t, newTestConfig(t, true))

	got, err := call(t, url, server.CompleteDayProcedure)
	require.NoError(t, err)
	assert.Equal(t, float64(2), got["day"])

	got, err = call(t, url, server.GetProgressProcedure)
	require.NoError(t, err)
	assert.Equal(t, float64(2), got["day"])
	assert.Equal(t, "active", got["state"])
}

func TestNewHTTPHandler_LocalUserNotAllowed(t *testing.T) {
	url := newTestServer(t, newTestConfig(t, false))

	_, err := call(t, url, server.GetProgressProcedure)
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestNewHTTPHandler_CORS(t *testing.T) {
	url := newTestServer(t, newTestConfig(t, true))

	req, err := http.NewRequest(http.MethodOptions, url+server.GetProgressProcedure, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}
