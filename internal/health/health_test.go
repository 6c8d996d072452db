package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fakeCache struct{ enabled, healthy bool }

func (c fakeCache) Enabled() bool                  { return c.enabled }
func (c fakeCache) IsHealthy(context.Context) bool { return c.healthy }

func TestCheckBasic(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	s := NewHealthChecker(up, fakeCache{}).CheckBasic(context.Background())
	assert.Equal(t, "healthy", s.Status)
	assert.Equal(t, "disabled", s.Redis.Status)

	s = NewHealthChecker(up, fakeCache{enabled: true}).CheckBasic(context.Background())
	assert.Equal(t, "healthy", s.Status, "redis is optional")
	assert.Equal(t, "unhealthy", s.Redis.Status)

	s = NewHealthChecker(down, fakeCache{enabled: true, healthy: true}).CheckBasic(context.Background())
	assert.Equal(t, "unhealthy", s.Status)
	assert.Equal(t, "unhealthy", s.Database.Status)
	assert.Equal(t, "healthy", s.Redis.Status)
}

func TestCheckDetailedIncludesSystemStats(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	d := NewHealthChecker(up, nil).CheckDetailed(context.Background())
	assert.Equal(t, "healthy", d.Status)
	assert.Positive(t, d.System.Goroutines)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.0 MB", formatBytes(512*1024*1024))
	assert.Equal(t, "2.0 GB", formatBytes(2*1024*1024*1024))
}
