// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/roster/internal/platform/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/*
TestLoad_Defaults verifies default values when only the mandatory settings are present.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.TokenKindStrict)
	assert.Equal(t, 10, cfg.BcryptCost)
}

/*
TestLoad_Validation checks the cross-field rules.
*/
func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		hasErr bool
	}{
		{"missing_secret", map[string]string{"STORE_DRIVER": "memory"}, true},
		{"short_secret", map[string]string{"JWT_SECRET": "short", "STORE_DRIVER": "memory"}, true},
		{"postgres_without_dsn", map[string]string{"JWT_SECRET": testSecret}, true},
		{"postgres_with_dsn", map[string]string{"JWT_SECRET": testSecret, "DATABASE_URL": "postgres://u:p@localhost/roster"}, false},
		{"redis_without_url", map[string]string{"JWT_SECRET": testSecret, "STORE_DRIVER": "redis"}, true},
		{"redis_with_url", map[string]string{"JWT_SECRET": testSecret, "STORE_DRIVER": "redis", "REDIS_URL": "redis://localhost:6379/0"}, false},
		{"unknown_driver", map[string]string{"JWT_SECRET": testSecret, "STORE_DRIVER": "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"JWT_SECRET", "STORE_DRIVER", "DATABASE_URL", "REDIS_URL"} {
				t.Setenv(key, "")
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			if _, ok := tt.env["STORE_DRIVER"]; !ok {
				t.Setenv("STORE_DRIVER", "postgres")
			}

			_, err := config.Load()
			if tt.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
