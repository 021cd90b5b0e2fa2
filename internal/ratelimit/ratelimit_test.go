package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FixedWindow(t *testing.T) {
	l := New(Config{Requests: 2, Window: time.Minute, MaxKeys: 10})
	require.NotNil(t, l)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("u1", "submit")
	assert.True(t, ok)
	ok, _ = l.Allow("u1", "submit")
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, wait := l.Allow("u1", "submit")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	ok, _ = l.Allow("u1", "next")
	assert.True(t, ok, "actions are limited independently")
	ok, _ = l.Allow("u2", "submit")
	assert.True(t, ok, "users are limited independently")

	now = now.Add(40 * time.Second)
	ok, _ = l.Allow("u1", "submit")
	assert.True(t, ok, "window resets")
}

func TestLimiter_BoundedKeys(t *testing.T) {
	l := New(Config{Requests: 1, Window: time.Hour, MaxKeys: 2})
	l.Allow("a", "x")
	l.Allow("b", "x")
	l.Allow("c", "x")
	assert.Equal(t, 2, l.Len())

	ok, _ := l.Allow("a", "x")
	assert.True(t, ok, "evicted key starts a fresh window")
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(Config{})
	assert.Nil(t, l)
	for range 100 {
		ok, _ := l.Allow("u", "a")
		require.True(t, ok)
	}
	assert.Zero(t, l.Len())
}
