package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/workly/internal/flagx"
	"github.com/dmitrijs2005/workly/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Intervals use
// timex.Duration so files may contain "15m" or integer nanoseconds.
// Zero values leave the current setting untouched.
type FileConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	TokenIssuer                  string         `json:"token_issuer" yaml:"token_issuer"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	PasswordHashCost             int            `json:"password_hash_cost" yaml:"password_hash_cost"`
	RefreshTokenStore            string         `json:"refresh_token_store" yaml:"refresh_token_store"`
	RedisAddr                    string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword                string         `json:"redis_password" yaml:"redis_password"`
	RedisDB                      int            `json:"redis_db" yaml:"redis_db"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile loads the file named by -c/-config into config. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. A missing flag
// means no file; an unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.TokenIssuer, fc.TokenIssuer)
	setString(&config.RefreshTokenStore, fc.RefreshTokenStore)
	setString(&config.RedisAddr, fc.RedisAddr)
	setString(&config.RedisPassword, fc.RedisPassword)
	setString(&config.LogLevel, fc.LogLevel)

	if fc.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.PasswordHashCost != 0 {
		config.PasswordHashCost = fc.PasswordHashCost
	}
	if fc.RedisDB != 0 {
		config.RedisDB = fc.RedisDB
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
