package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsync_ResolvesOnce(t *testing.T) {
	a := Resolved("first")
	assert.False(t, a.Resolve("second"))
	assert.False(t, a.Reject(errors.New("late")))
	assert.False(t, a.Abandon())
	assert.Equal(t, int64(3), a.Violations())

	got, err := a.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestAsync_WaitOutcomes(t *testing.T) {
	t.Run("resolved later", func(t *testing.T) {
		a := NewAsync(func(a *Async[int]) {
			time.Sleep(5 * time.Millisecond)
			a.Resolve(42)
		})
		got, err := a.Wait(context.Background(), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("timeout", func(t *testing.T) {
		a := NewAsync(func(*Async[int]) {})
		_, err := a.Wait(context.Background(), 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("abandoned", func(t *testing.T) {
		a := NewAsync(func(a *Async[int]) { a.Abandon() })
		_, err := a.Wait(context.Background(), time.Second)
		assert.ErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("rejected", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Rejected[int](boom).Wait(context.Background(), time.Second)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewAsync(func(*Async[int]) {}).Wait(ctx, time.Second)
		assert.ErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("producer panic", func(t *testing.T) {
		a := NewAsync(func(*Async[int]) { panic("render crashed") })
		_, err := a.Wait(context.Background(), time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render crashed")
	})
}

func TestSync(t *testing.T) {
	upper := Sync(func(s string) (string, error) {
		if s == "" {
			return "", errors.New("empty")
		}
		return strings.ToUpper(s), nil
	})

	got, err := upper("abc").Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ABC", got)

	_, err = upper("").Wait(context.Background(), time.Second)
	assert.EqualError(t, err, "empty")
}

func TestPullback(t *testing.T) {
	type user struct{ Name string }

	byName := Pullback(textStrategy(), func(u user) string { return u.Name })
	assert.Equal(t, "txt", byName.PathExtension)

	got, err := byName.Snapshot(user{Name: "ada"}).Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ada", got)
}

func TestAsyncPullback(t *testing.T) {
	lookup := AsyncPullback(textStrategy(), func(id int) *Async[string] {
		return NewAsync(func(a *Async[string]) {
			if id < 0 {
				a.Abandon()
				return
			}
			a.Resolve(strings.Repeat("x", id))
		})
	})

	got, err := lookup.Snapshot(3).Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "xxx", got)

	_, err = lookup.Snapshot(-1).Wait(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
