// Package cache contains unit tests for the TTL memo store.
package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoGetSet(t *testing.T) {
	m := NewMemo[string](time.Minute, zap.NewNop())

	t.Run("miss on absent key", func(t *testing.T) {
		value, found := m.Get("absent")

		assert.False(t, found)
		assert.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		stored := m.Set("greeting", "hello", time.Minute)

		assert.Equal(t, "hello", stored)

		value, found := m.Get("greeting")

		assert.True(t, found)
		assert.Equal(t, "hello", value)
	})

	t.Run("set replaces the previous entry", func(t *testing.T) {
		m.Set("color", "red", time.Minute)
		m.Set("color", "blue", time.Minute)

		value, _ := m.Get("color")

		assert.Equal(t, "blue", value)
	})
}

func TestMemoExpiry(t *testing.T) {
	m := NewMemo[int](time.Minute, zap.NewNop())

	m.Set("short", 42, 20*time.Millisecond)

	_, found := m.Get("short")
	require.True(t, found)

	time.Sleep(40 * time.Millisecond)

	_, found = m.Get("short")
	assert.False(t, found)
}

func TestMemoGetOrCompute(t *testing.T) {
	t.Run("computes once within ttl", func(t *testing.T) {
		m := NewMemo[int](time.Minute, zap.NewNop())
		calls := 0

		compute := func() (int, error) {
			calls++
			return 7, nil
		}

		value, err := m.GetOrCompute("key", time.Minute, compute)

		require.NoError(t, err)
		assert.Equal(t, 7, value)

		value, err = m.GetOrCompute("key", time.Minute, compute)

		require.NoError(t, err)
		assert.Equal(t, 7, value)
		assert.Equal(t, 1, calls)
	})

	t.Run("a compute failure caches nothing", func(t *testing.T) {
		m := NewMemo[int](time.Minute, zap.NewNop())
		calls := 0

		_, err := m.GetOrCompute("key", time.Minute, func() (int, error) {
			calls++
			return 0, errors.New("upstream down")
		})

		require.Error(t, err)

		value, err := m.GetOrCompute("key", time.Minute, func() (int, error) {
			calls++
			return 9, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 9, value)
		assert.Equal(t, 2, calls)
	})

	t.Run("recomputes after expiry", func(t *testing.T) {
		m := NewMemo[int](time.Minute, zap.NewNop())
		calls := 0

		compute := func() (int, error) {
			calls++
			return calls, nil
		}

		value, err := m.GetOrCompute("key", 20*time.Millisecond, compute)

		require.NoError(t, err)
		assert.Equal(t, 1, value)

		time.Sleep(40 * time.Millisecond)

		value, err = m.GetOrCompute("key", 20*time.Millisecond, compute)

		require.NoError(t, err)
		assert.Equal(t, 2, value)
	})
}

func TestMemoFlush(t *testing.T) {
	m := NewMemo[string](time.Minute, zap.NewNop())

	m.Set("a", "1", time.Minute)
	m.Set("b", "2", time.Minute)
	m.Flush()

	_, found := m.Get("a")
	assert.False(t, found)

	_, found = m.Get("b")
	assert.False(t, found)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "weather.observation.city_id=5", Key("weather", "observation", "city_id=5"))
	assert.Equal(t, "stockmarket.quote", Key("stockmarket", "quote"))
	assert.Equal(t, "a.b.c.d", Key("a", "b", "c", "d"))
}
