package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	d, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = rl.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed, "third hit in the window is rejected")
	assert.Equal(t, time.Minute, d.ResetIn)

	d, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, d.Allowed, "keys are counted separately")

	now = now.Add(30 * time.Second)
	d, _ = rl.Allow(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.ResetIn)

	now = now.Add(30 * time.Second)
	d, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, d.Allowed, "window resets after the interval")
}

func TestRateLimiter_SweepsEndedWindows(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	rl := NewRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }

	_, _ = rl.Allow(ctx, "a")
	_, _ = rl.Allow(ctx, "b")
	now = now.Add(2 * time.Second)
	_, _ = rl.Allow(ctx, "c")

	assert.Len(t, rl.windows, 1)
}

func TestRedisLimiter_Allow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		count         int64
		pttl          int64
		wantAllowed   bool
		wantRemaining int
	}{
		{"first hit", 1, 60000, true, 1},
		{"at limit", 2, 30000, true, 0},
		{"over limit", 3, 1500, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb, mock := redismock.NewClientMock()
			l := NewRedisLimiter(rdb, 2, time.Minute, "rl:login")

			mock.ExpectEvalSha(incrExpireScript.Hash(), []string{"rl:login:1.2.3.4"}, int64(60000)).
				SetVal([]interface{}{tt.count, tt.pttl})

			d, err := l.Allow(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantRemaining, d.Remaining)
			assert.Equal(t, time.Duration(tt.pttl)*time.Millisecond, d.ResetIn)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRedisLimiter_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLimiter(rdb, 2, time.Minute, "")

	mock.ExpectEvalSha(incrExpireScript.Hash(), []string{"rl:k"}, int64(60000)).SetErr(errors.New("redis down"))

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
