package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// Environment variable names.
const (
	EnvHTTPAddr     = "HTTP_ADDR"
	EnvGRPCAddr     = "GRPC_ADDR"
	EnvDatabaseDSN  = "DATABASE_DSN"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiresIn = "JWT_EXPIRES_IN"
	EnvJWTClockSkew = "JWT_CLOCK_SKEW"
	EnvJWTIssuer    = "JWT_ISSUER"
	EnvBcryptCost   = "BCRYPT_COST"
	EnvPhoneRegion  = "PHONE_REGION"
	EnvLogLevel     = "LOG_LEVEL"
)

// parseEnv overlays set environment variables onto config. JWT_EXPIRES_IN
// and JWT_CLOCK_SKEW take "24h", "7d" or a number of seconds.
func parseEnv(config *Config) error {
	lookupString(EnvHTTPAddr, &config.EndpointAddrHTTP)
	lookupString(EnvGRPCAddr, &config.EndpointAddrGRPC)
	lookupString(EnvDatabaseDSN, &config.DatabaseDSN)
	lookupString(EnvJWTSecret, &config.SecretKey)
	lookupString(EnvJWTIssuer, &config.TokenIssuer)
	lookupString(EnvPhoneRegion, &config.PhoneRegion)
	lookupString(EnvLogLevel, &config.LogLevel)

	if v, ok := os.LookupEnv(EnvJWTExpiresIn); ok {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJWTExpiresIn, err)
		}
		config.TokenValidityDuration = d
	}
	if v, ok := os.LookupEnv(EnvJWTClockSkew); ok {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJWTClockSkew, err)
		}
		config.TokenClockSkew = d
	}
	if v, ok := os.LookupEnv(EnvBcryptCost); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
		config.PasswordHashCost = n
	}
	return nil
}

func lookupString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}
