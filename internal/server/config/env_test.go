package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv(EnvHTTPAddr, ":1111")
	t.Setenv(EnvGRPCAddr, ":2222")
	t.Setenv(EnvDatabaseDSN, "dsn")
	t.Setenv(EnvJWTSecret, "s3cr3t-value")
	t.Setenv(EnvJWTExpiresIn, "1d")
	t.Setenv(EnvJWTClockSkew, "5")
	t.Setenv(EnvJWTIssuer, "iss")
	t.Setenv(EnvBcryptCost, "11")
	t.Setenv(EnvPhoneRegion, "US")
	t.Setenv(EnvLogLevel, "warn")

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseEnv(&c))

	assert.Equal(t, Config{
		EndpointAddrHTTP:      ":1111",
		EndpointAddrGRPC:      ":2222",
		DatabaseDSN:           "dsn",
		SecretKey:             "s3cr3t-value",
		TokenValidityDuration: 24 * time.Hour,
		TokenClockSkew:        5 * time.Second,
		TokenIssuer:           "iss",
		PasswordHashCost:      11,
		PhoneRegion:           "US",
		LogLevel:              "warn",
	}, c)
}

func TestParseEnv_Errors(t *testing.T) {
	for _, name := range []string{EnvJWTExpiresIn, EnvJWTClockSkew, EnvBcryptCost} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "not-a-number")
			var c Config
			err := parseEnv(&c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}
