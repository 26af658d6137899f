package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLimiter struct {
	err error
}

func (s stubLimiter) Check(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return key != "10.0.0.9", nil
}

func serve(l Limiter, remoteAddr string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(l, zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(stubLimiter{}, "10.0.0.1:5555").Code)

	rec := serve(stubLimiter{}, "10.0.0.9:5555")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"`+LimitExceededMessage+`"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, serve(stubLimiter{err: errors.New("redis down")}, "10.0.0.9:5555").Code, "fails open")
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, err := m.Check(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := m.Check(ctx, "a")
	assert.False(t, ok)
	ok, _ = m.Check(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(30 * time.Second)
	ok, _ = m.Check(ctx, "a")
	assert.True(t, ok, "one token refilled")
	ok, _ = m.Check(ctx, "a")
	assert.False(t, ok)
}

func TestMemory_SweepIdle(t *testing.T) {
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	m := NewMemory(10, time.Minute)
	m.now = func() time.Time { return now }
	_, _ = m.Check(context.Background(), "a")
	_, _ = m.Check(context.Background(), "b")

	assert.Zero(t, m.Sweep(time.Minute))
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, m.Sweep(time.Minute))
	assert.Zero(t, m.Len())
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1_900_000_000, 0)
	l := NewRedis(client, 2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := l.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	key := "ratelimit:1.2.3.4:" + strconv.FormatInt(now.UnixNano()/int64(time.Minute), 16)
	assert.Equal(t, time.Minute, mr.TTL(key))

	now = now.Add(time.Minute)
	ok, err = l.Check(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts a new counter")

	mr.Close()
	_, err = l.Check(ctx, "1.2.3.4")
	assert.Error(t, err)
}
