package dbconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_MAX_CONNS"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDisabledByDefault(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.False(t, cfg.Enabled())
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "watchparty", cfg.Database)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "fields",
			cfg:  Config{Host: "db", Port: 5433, User: "wp", Password: "secret", Database: "watchparty", SSLMode: "disable"},
			want: "postgres://wp:secret@db:5433/watchparty?sslmode=disable",
		},
		{
			name: "escapes password",
			cfg:  Config{Host: "db", Port: 5432, User: "wp", Password: "p@ss/word", Database: "watchparty", SSLMode: "require"},
			want: "postgres://wp:p%40ss%2Fword@db:5432/watchparty?sslmode=require",
		},
		{
			name: "url wins",
			cfg:  Config{URL: "postgres://other/x", Host: "db"},
			want: "postgres://other/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestFromEnvAndPoolConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_CONNS", "7")

	cfg := FromEnv()
	require.True(t, cfg.Enabled())

	pool, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", pool.ConnConfig.Host)
	assert.Equal(t, uint16(6543), pool.ConnConfig.Port)
	assert.Equal(t, int32(7), pool.MaxConns)
}
