package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":              "www.example:8008",
		"server_name":                     "example.org",
		"database_dsn":                    "postgres://example/roost",
		"db_pool_size":                    7,
		"redis_addr":                      "redis.example:6379",
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "45m",
		"otp_validity_duration":           "3m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:8008", cfg.EndpointAddrHTTP)
		assert.Equal(t, "example.org", cfg.ServerName)
		assert.Equal(t, "postgres://example/roost", cfg.DatabaseDSN)
		assert.Equal(t, 7, cfg.DBPoolSize)
		assert.Equal(t, "redis.example:6379", cfg.RedisAddr)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 45*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.OTPValidityDuration)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddrHTTP:            "defaults:1234",
			ServerName:                  "defaults.org",
			DatabaseDSN:                 "postgres://defaults/roost",
			DBPoolSize:                  3,
			RedisAddr:                   "defaults:6379",
			SecretKey:                   "key",
			AccessTokenValidityDuration: 2 * time.Minute,
			OTPValidityDuration:         time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "defaults.org", cfg.ServerName)
		assert.Equal(t, "postgres://defaults/roost", cfg.DatabaseDSN)
		assert.Equal(t, 3, cfg.DBPoolSize)
		assert.Equal(t, "defaults:6379", cfg.RedisAddr)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Minute, cfg.OTPValidityDuration)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
