package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			env: map[string]string{
				"API_TOKEN":           "device-token",
				"MANAGEMENT_PASSWORD": "staff",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "3000", cfg.Port)
				assert.Equal(t, "postgres", cfg.DatabaseType)
				assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
				assert.Equal(t, "INFO", cfg.Log.Level)
				assert.Equal(t, 100, cfg.Log.MaxSize)
				assert.True(t, cfg.Log.Compress)
				assert.False(t, cfg.IsProduction())
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"API_TOKEN":           "device-token",
				"MANAGEMENT_PASSWORD": "staff",
				"PORT":                "8081",
				"ENVIRONMENT":         "production",
				"DATABASE_TYPE":       "sqlite",
				"DATABASE_URL":        "file:attendance.db",
				"CORS_ORIGINS":        "https://a.example, https://b.example",
				"LOG_MAX_SIZE":        "not-a-number",
				"LOG_COMPRESS":        "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8081", cfg.Port)
				assert.Equal(t, "sqlite", cfg.DatabaseType)
				assert.Equal(t, "file:attendance.db", cfg.DatabaseURL)
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
				assert.Equal(t, 100, cfg.Log.MaxSize)
				assert.False(t, cfg.Log.Compress)
				assert.True(t, cfg.IsProduction())
			},
		},
		{
			name:    "missing api token",
			env:     map[string]string{"MANAGEMENT_PASSWORD": "staff"},
			wantErr: "API_TOKEN",
		},
		{
			name:    "missing management password",
			env:     map[string]string{"API_TOKEN": "device-token"},
			wantErr: "MANAGEMENT_PASSWORD",
		},
		{
			name: "unknown database type",
			env: map[string]string{
				"API_TOKEN":           "device-token",
				"MANAGEMENT_PASSWORD": "staff",
				"DATABASE_TYPE":       "mysql",
			},
			wantErr: "DATABASE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadKiosk(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(*testing.T, *KioskConfig)
	}{
		{
			name: "defaults",
			env:  map[string]string{"API_TOKEN": "device-token"},
			check: func(t *testing.T, cfg *KioskConfig) {
				assert.Equal(t, "http://localhost:3000", cfg.APIURL)
				assert.Equal(t, "device-token", cfg.APIToken)
				assert.Equal(t, 16, cfg.DisplayCols)
				assert.Equal(t, "INFO", cfg.Log.Level)
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"API_TOKEN":    "device-token",
				"API_URL":      "http://attendance.local:8080/",
				"DISPLAY_COLS": "20",
				"LOG_FILENAME": "/var/log/kiosk.log",
			},
			check: func(t *testing.T, cfg *KioskConfig) {
				assert.Equal(t, "http://attendance.local:8080", cfg.APIURL)
				assert.Equal(t, 20, cfg.DisplayCols)
				assert.Equal(t, "/var/log/kiosk.log", cfg.Log.Filename)
			},
		},
		{
			name:    "missing api token",
			env:     map[string]string{},
			wantErr: "API_TOKEN",
		},
		{
			name:    "non-positive display width",
			env:     map[string]string{"API_TOKEN": "device-token", "DISPLAY_COLS": "0"},
			wantErr: "DISPLAY_COLS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadKiosk()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	clearEnv(t)

	err := os.WriteFile(filepath.Join(dir, ".env"), []byte("API_TOKEN=from-file\nMANAGEMENT_PASSWORD=pw\n"), 0o600)
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIToken)
	assert.Equal(t, "pw", cfg.ManagementPassword)
}

// clearEnv unsets every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "CORS_ORIGINS", "DATABASE_TYPE", "DATABASE_URL",
		"API_TOKEN", "MANAGEMENT_PASSWORD", "LOG_LEVEL", "LOG_FILENAME",
		"LOG_MAX_SIZE", "LOG_MAX_BACKUPS", "LOG_MAX_AGE", "LOG_COMPRESS", "SENTRY_DSN",
		"API_URL", "DISPLAY_COLS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
