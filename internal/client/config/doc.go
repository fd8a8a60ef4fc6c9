// Package config loads runtime configuration for the gophauth CLI.
//
// Sources and precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/-config or CONFIG.
//  3. Command-line flags, which override earlier values.
//
// JSON schema:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "request_timeout": "10s"
//	}
package config
