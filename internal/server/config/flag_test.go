package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags set", args: []string{"cmd",
			"-a", "127.0.0.1:8008", "-n", "example.org", "-d", "db", "-p", "10",
			"-r", "127.0.0.1:6380", "-s", "secret", "-t", "30", "-o", "2",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP:            "127.0.0.1:8008",
				ServerName:                  "example.org",
				DatabaseDSN:                 "db",
				DBPoolSize:                  10,
				RedisAddr:                   "127.0.0.1:6380",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 30 * time.Minute,
				OTPValidityDuration:         2 * time.Minute,
			}},
		{name: "unknown flags ignored", args: []string{"cmd",
			"-n", "example.org", "-z", "ignored",
		}, expectPanic: false,
			expected: &Config{
				ServerName: "example.org",
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
