package config

import (
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const secret = "config-test-secret-0123456789"

func TestLoadMemoryDefaults(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("JWT_SECRET", secret)
    t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, DriverMemory, cfg.StoreDriver)
    assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
    assert.Equal(t, 12, cfg.BcryptCost)
    assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
    assert.False(t, cfg.EventsEnabled)
}

func TestLoadRequiresSecret(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("JWT_SECRET", "")

    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "JWT_SECRET")

    t.Setenv("JWT_SECRET", "too-short")
    _, err = Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "at least 16 bytes")
}

func TestLoadReportsEveryMissingMySQLVar(t *testing.T) {
    t.Setenv("STORE_DRIVER", "MySQL")
    t.Setenv("JWT_SECRET", secret)
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
        t.Setenv(k, "")
    }

    _, err := Load()
    require.Error(t, err)
    for _, k := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
        assert.Contains(t, err.Error(), k)
    }
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
    t.Setenv("STORE_DRIVER", "sqlite")
    t.Setenv("JWT_SECRET", secret)
    _, err := Load()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "STORE_DRIVER")
}

func TestLoadMongoNeedsURI(t *testing.T) {
    t.Setenv("STORE_DRIVER", "mongo")
    t.Setenv("JWT_SECRET", secret)
    t.Setenv("MONGO_URI", "")
    _, err := Load()
    require.Error(t, err)

    t.Setenv("MONGO_URI", "mongodb://localhost:27017")
    cfg, err := Load()
    require.NoError(t, err)
    assert.Equal(t, "complaints", cfg.MongoDB)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    rl := LoadRateLimitConfig()
    assert.Equal(t, 1, rl.Capacity)
    assert.Equal(t, 10*time.Second, rl.TTL)

    t.Setenv("RATE_LIMIT_REFILL_EVERY", "30s")
    rl = LoadRateLimitConfig()
    assert.Equal(t, 30*time.Second, rl.RefillInterval)
    assert.Equal(t, 1, rl.RefillTokens)
}

func TestLoadRateLimitConfigKeyStrategy(t *testing.T) {
    assert.Equal(t, KeyByIPRoute, LoadRateLimitConfig().KeyStrategy)

    t.Setenv("RATE_LIMIT_KEY_STRATEGY", "IP")
    assert.Equal(t, KeyByIP, LoadRateLimitConfig().KeyStrategy)

    for _, s := range []string{"user", "ip_user", "user_route", "route"} {
        t.Setenv("RATE_LIMIT_KEY_STRATEGY", s)
        assert.Equal(t, KeyByIPRoute, LoadRateLimitConfig().KeyStrategy, s)
    }
}

func TestNewRedisClient(t *testing.T) {
    mr := miniredis.RunT(t)
    client := NewRedisClient(RedisConfig{Enabled: true, Addr: mr.Addr()})
    require.NotNil(t, client)
    _ = client.Close()

    assert.Nil(t, NewRedisClient(RedisConfig{Enabled: false, Addr: mr.Addr()}))

    addr := mr.Addr()
    mr.Close()
    assert.Nil(t, NewRedisClient(RedisConfig{Enabled: true, Addr: addr}))
}
