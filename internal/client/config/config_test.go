package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointAddr)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_DefaultsAndFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("CONFIG", "")

	os.Args = []string{"cli"}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerEndpointAddr)

	os.Args = []string{"cli", "-a", "https://auth.example.com", "-t", "3"}
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", cfg.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("CONFIG", "")

	os.Args = []string{"cli", "-t", "abc"}
	_, err := LoadConfig()
	require.Error(t, err)

	os.Args = []string{"cli", "-t", "0"}
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https", "https://auth.example.com", false},
		{"empty", "", true},
		{"not a url", "::::", true},
		{"ftp", "ftp://example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{ServerEndpointAddr: tt.addr, RequestTimeout: time.Second}
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
