package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xscopehub/mcp-http-server/pkg/manifest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "mcp-server dev\n", out.String())
}

func TestLoadConfigAddrFlagWins(t *testing.T) {
	t.Setenv("MCP_ADDRESS", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":7000\"\n"), 0o600))

	cfg, err := loadConfig(flags{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)

	cfg, err = loadConfig(flags{configPath: path, addr: ":9000"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
}

func TestBuildServesRPC(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	cfg, err := loadConfig(flags{configPath: filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, err)

	srv, cleanup, err := build(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer cleanup()

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"get_weather"`)
}

func TestBuildManifestListsCatalog(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")
	cfg, err := loadConfig(flags{configPath: filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, err)

	srv, cleanup, err := build(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var mf manifest.Manifest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mf))
	assert.Contains(t, mf.Tools, "get_weather")
	assert.Contains(t, mf.Tools, "add_numbers")
	assert.Equal(t, []string{"test_resource"}, mf.Resources)
	assert.Contains(t, mf.Methods, "tools/call")
}
