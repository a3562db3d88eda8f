package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
	return Change{}
}

func assertQuiet(t *testing.T, ch <-chan Change) {
	t.Helper()
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewHub().Open()
	defer s.Close()

	v, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "user", []byte("a")))
	require.NoError(t, s.Set(ctx, "profile", []byte("b")))

	v, err = s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)

	require.NoError(t, s.Delete(ctx, "user", "profile", "missing"))
	v, err = s.Get(ctx, "profile")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestHub_ChangesReachOtherContextsOnly(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	tabA := hub.Open()
	tabB := hub.Open()
	defer tabA.Close()
	defer tabB.Close()

	chA, cancelA := tabA.Subscribe()
	defer cancelA()
	chB, cancelB := tabB.Subscribe()
	defer cancelB()

	require.NoError(t, tabA.Set(ctx, "user", []byte("x")))
	c := receive(t, chB)
	assert.Equal(t, Change{Key: "user", Origin: tabA.Origin()}, c)
	assertQuiet(t, chA)

	require.NoError(t, tabA.Delete(ctx, "user", "never-set"))
	c = receive(t, chB)
	assert.Equal(t, "user", c.Key)
	assert.True(t, c.Removed)
	assertQuiet(t, chB)
}

func TestHub_CancelAndClose(t *testing.T) {
	hub := NewHub()
	s := hub.Open()

	ch, cancel := s.Subscribe()
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	ch2, _ := s.Subscribe()
	require.NoError(t, s.Close())
	_, ok = <-ch2
	assert.False(t, ok)

	_, err := s.Get(context.Background(), "k")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Set(context.Background(), "k", nil), ErrClosed)
	require.ErrorIs(t, s.Delete(context.Background(), "k"), ErrClosed)
	require.NoError(t, s.Close())
}

func TestFeed_SlowReaderDoesNotLoseChanges(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	writer := hub.Open()
	reader := hub.Open()

	ch, cancel := reader.Subscribe()
	defer cancel()

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		require.NoError(t, writer.Set(ctx, k, []byte(k)))
	}
	for _, k := range keys {
		assert.Equal(t, k, receive(t, ch).Key)
	}
}
