package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "DODO_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "DODO_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "DODO_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "DODO_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "DODO_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "DODO_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "DODO_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "parses zero", key: "DODO_TEST_INT_ZERO", setVal: strPtr("0"), fallback: 99, want: 0},
		{name: "returns fallback for empty string", key: "DODO_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "DODO_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "DODO_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "DODO_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "DODO_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses minutes", key: "DODO_TEST_DUR_MIN", setVal: strPtr("15m"), fallback: 0, want: 15 * time.Minute},
		{name: "parses composite", key: "DODO_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "errors on invalid", key: "DODO_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "DODO_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback []string
		want     []string
	}{
		{name: "returns fallback when unset", key: "DODO_TEST_LIST_UNSET", setVal: nil, fallback: []string{"a"}, want: []string{"a"}},
		{name: "splits on comma", key: "DODO_TEST_LIST_SPLIT", setVal: strPtr("a,b,c"), fallback: nil, want: []string{"a", "b", "c"}},
		{name: "trims whitespace", key: "DODO_TEST_LIST_TRIM", setVal: strPtr(" a , b "), fallback: nil, want: []string{"a", "b"}},
		{name: "drops empty entries", key: "DODO_TEST_LIST_EMPTY", setVal: strPtr("a,,b,"), fallback: nil, want: []string{"a", "b"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnvList(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		// DB_PORT parse errors
		{name: "DB_PORT not a number", envKey: "DODO_DB_PORT", envVal: "abc", errMsg: "DODO_DB_PORT"},
		{name: "DB_PORT float", envKey: "DODO_DB_PORT", envVal: "3.14", errMsg: "DODO_DB_PORT"},

		// DB_PORT validation errors (parses fine, fails bounds)
		{name: "DB_PORT zero", envKey: "DODO_DB_PORT", envVal: "0", errMsg: "DODO_DB_PORT"},
		{name: "DB_PORT negative", envKey: "DODO_DB_PORT", envVal: "-1", errMsg: "DODO_DB_PORT"},
		{name: "DB_PORT too high", envKey: "DODO_DB_PORT", envVal: "65536", errMsg: "DODO_DB_PORT"},

		// DB_MAX_CONNS
		{name: "DB_MAX_CONNS zero", envKey: "DODO_DB_MAX_CONNS", envVal: "0", errMsg: "DODO_DB_MAX_CONNS"},
		{name: "DB_MAX_CONNS negative", envKey: "DODO_DB_MAX_CONNS", envVal: "-5", errMsg: "DODO_DB_MAX_CONNS"},
		{name: "DB_MAX_CONNS not a number", envKey: "DODO_DB_MAX_CONNS", envVal: "many", errMsg: "DODO_DB_MAX_CONNS"},

		// Gemini retry budget
		{name: "GEMINI_MAX_ATTEMPTS zero", envKey: "DODO_GEMINI_MAX_ATTEMPTS", envVal: "0", errMsg: "DODO_GEMINI_MAX_ATTEMPTS"},
		{name: "GEMINI_MAX_ATTEMPTS not a number", envKey: "DODO_GEMINI_MAX_ATTEMPTS", envVal: "lots", errMsg: "DODO_GEMINI_MAX_ATTEMPTS"},

		// Session store
		{name: "SESSION_BACKEND unknown", envKey: "DODO_SESSION_BACKEND", envVal: "mongo", errMsg: "DODO_SESSION_BACKEND"},
		{name: "SESSION_MAX_ENTRIES zero", envKey: "DODO_SESSION_MAX_ENTRIES", envVal: "0", errMsg: "DODO_SESSION_MAX_ENTRIES"},
		{name: "SESSION_TTL invalid", envKey: "DODO_SESSION_TTL", envVal: "badval", errMsg: "DODO_SESSION_TTL"},
		{name: "SESSION_TTL zero", envKey: "DODO_SESSION_TTL", envVal: "0s", errMsg: "DODO_SESSION_TTL"},

		// Server timeouts
		{name: "SERVER_READ_TIMEOUT invalid", envKey: "DODO_SERVER_READ_TIMEOUT", envVal: "notduration", errMsg: "DODO_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT invalid", envKey: "DODO_SERVER_WRITE_TIMEOUT", envVal: "notduration", errMsg: "DODO_SERVER_WRITE_TIMEOUT"},
		{name: "SERVER_READ_TIMEOUT zero", envKey: "DODO_SERVER_READ_TIMEOUT", envVal: "0s", errMsg: "DODO_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT zero", envKey: "DODO_SERVER_WRITE_TIMEOUT", envVal: "0s", errMsg: "DODO_SERVER_WRITE_TIMEOUT"},

		// Redis DB
		{name: "REDIS_DB not a number", envKey: "DODO_REDIS_DB", envVal: "abc", errMsg: "DODO_REDIS_DB"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "concierge", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "concierge_dev", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxConns)

	// Redis defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	// Gemini defaults.
	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	assert.Empty(t, cfg.Gemini.BaseURL)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)

	// Session defaults.
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 1024, cfg.Session.MaxEntries)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		// Database
		"DODO_DB_HOST":      "db.prod.internal",
		"DODO_DB_PORT":      "5433",
		"DODO_DB_USER":      "prod_user",
		"DODO_DB_PASSWORD":  "s3cret!",
		"DODO_DB_NAME":      "concierge_prod",
		"DODO_DB_SSLMODE":   "require",
		"DODO_DB_MAX_CONNS": "50",
		// Redis
		"DODO_REDIS_ADDR":     "redis.prod:6380",
		"DODO_REDIS_PASSWORD": "redis-pass",
		"DODO_REDIS_DB":       "3",
		// Gemini
		"DODO_GEMINI_API_KEY":      "test-api-key",
		"DODO_GEMINI_MODEL":        "gemini-1.5-flash",
		"DODO_GEMINI_BASE_URL":     "http://localhost:9999",
		"DODO_GEMINI_MAX_ATTEMPTS": "5",
		// Session
		"DODO_SESSION_BACKEND":     "redis",
		"DODO_SESSION_MAX_ENTRIES": "4096",
		"DODO_SESSION_TTL":         "2h",
		// Server
		"DODO_SERVER_ADDR":          ":9090",
		"DODO_SERVER_READ_TIMEOUT":  "5s",
		"DODO_SERVER_WRITE_TIMEOUT": "15s",
		"DODO_CORS_ORIGINS":         "https://app.dodopoint.com, https://staging.dodopoint.com",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Database
	assert.Equal(t, "db.prod.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "prod_user", cfg.Database.User)
	assert.Equal(t, "s3cret!", cfg.Database.Password)
	assert.Equal(t, "concierge_prod", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxConns)

	// Redis
	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)

	// Gemini
	assert.Equal(t, "test-api-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "http://localhost:9999", cfg.Gemini.BaseURL)
	assert.Equal(t, 5, cfg.Gemini.MaxAttempts)

	// Session
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 4096, cfg.Session.MaxEntries)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)

	// Server
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://app.dodopoint.com", "https://staging.dodopoint.com"}, cfg.Server.CORSOrigins)
}

// ---------------------------------------------------------------------------
// DSN() output format
// ---------------------------------------------------------------------------

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "default dev values",
			cfg: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "concierge",
				Password: "", DBName: "concierge_dev", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=concierge password= dbname=concierge_dev sslmode=disable",
		},
		{
			name: "production values",
			cfg: DatabaseConfig{
				Host: "db.prod.internal", Port: 5433, User: "prod_user",
				Password: "s3cret!", DBName: "concierge_prod", SSLMode: "require",
			},
			want: "host=db.prod.internal port=5433 user=prod_user password=s3cret! dbname=concierge_prod sslmode=require",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

func strPtr(s string) *string {
	return &s
}
