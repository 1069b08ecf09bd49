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

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()

	jsonBody, err := json.Marshal(map[string]any{
		"endpoint_addr_http":              ":8081",
		"endpoint_addr_grpc":              ":9000",
		"database_dsn":                    "postgres://db/workly",
		"secret_key":                      "json_secret",
		"token_issuer":                    "json-issuer",
		"access_token_validity_duration":  "10m",
		"refresh_token_validity_duration": "24h",
		"password_hash_cost":              12,
		"refresh_token_store":             "redis",
		"redis_addr":                      "redis:6379",
		"redis_db":                        3,
	})
	require.NoError(t, err)
	jsonPath := writeTempFile(t, dir, "server.json", jsonBody)

	yamlPath := writeTempFile(t, dir, "server.yaml", []byte(`
secret_key: yaml_secret
access_token_validity_duration: 20m
refresh_token_validity_duration: 3600000000000
log_level: debug
`))

	t.Run("loads json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", jsonPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, ":8081", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db/workly", cfg.DatabaseDSN)
		assert.Equal(t, "json_secret", cfg.SecretKey)
		assert.Equal(t, "json-issuer", cfg.TokenIssuer)
		assert.Equal(t, 10*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 12, cfg.PasswordHashCost)
		assert.Equal(t, StoreRedis, cfg.RefreshTokenStore)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 3, cfg.RedisDB)
		assert.Equal(t, "info", cfg.LogLevel, "unset keys keep defaults")
	})

	t.Run("loads yaml and keeps unset fields", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", yamlPath}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "yaml_secret", cfg.SecretKey)
		assert.Equal(t, 20*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "workly-api", cfg.TokenIssuer)
		assert.Equal(t, StorePostgres, cfg.RefreshTokenStore)
	})

	t.Run("no config flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{SecretKey: "key", AccessTokenValidityDuration: 2 * time.Minute}
		parseFile(cfg)

		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := writeTempFile(t, dir, "bad.json", []byte(`{ this is not valid json`))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("invalid yaml duration panics", func(t *testing.T) {
		bad := writeTempFile(t, dir, "bad.yml", []byte("access_token_validity_duration: later\n"))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
