package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkhin/roost/internal/flagx"
	"github.com/avolkhin/roost/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which
// allows parsing both string values such as "60m" and integer
// nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into
// the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	ServerName                  string         `json:"server_name"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DBPoolSize                  int            `json:"db_pool_size"`
	RedisAddr                   string         `json:"redis_addr"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	OTPValidityDuration         timex.Duration `json:"otp_validity_duration"`
}

// parseJson loads configuration values from a JSON file into the
// provided Config instance.
//
// The file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.ServerName = c.ServerName
	config.DatabaseDSN = c.DatabaseDSN
	config.DBPoolSize = c.DBPoolSize
	config.RedisAddr = c.RedisAddr
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.OTPValidityDuration = time.Duration(c.OTPValidityDuration.Duration)
}
