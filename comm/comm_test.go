package comm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func payload(n int) []byte {
	buf := make([]byte, n)
	for i := range buf { buf[i] = byte(i*7 + 3) }
	return buf
}

func TestBcastLarge(t *testing.T) {
	tests := []struct {
		ranks, root, chunk, n int
	}{
		{1, 0, 4, 10},
		{4, 0, 7, 0},
		{4, 0, 7, 1},
		{4, 0, 7, 7},
		{4, 2, 7, 50},
		{3, 1, 1000, 999},
		{5, 4, 3, 1001},
	}

	for _, test := range tests {
		cs, err := NewGroup(test.ranks, max(test.chunk, 8))
		require.NoError(t, err)

		want := payload(test.n)
		got := make([][]byte, test.ranks)
		err = Run(context.Background(), cs, func(ctx context.Context, c Comm) error {
			var buf []byte
			if c.Rank() == test.root { buf = append([]byte{}, want...) }
			if err := BcastLarge(ctx, c, &buf, test.root, test.chunk); err != nil {
				return err
			}
			got[c.Rank()] = buf
			return nil
		})
		require.NoError(t, err, "%+v", test)

		for r := range got {
			assert.Equal(t, len(want), len(got[r]), "%+v rank %d", test, r)
			assert.Equal(t, want, append([]byte{}, got[r]...), "%+v rank %d", test, r)
		}
	}
}

func TestBcastMessageLimit(t *testing.T) {
	cs, err := NewGroup(2, 16)
	require.NoError(t, err)

	err = Run(context.Background(), cs, func(ctx context.Context, c Comm) error {
		buf := payload(64)
		return BcastLarge(ctx, c, &buf, 0, 32)
	})
	assert.True(t, errors.Is(err, ErrMessageTooLarge), "got %v", err)
}

func TestBcastLengthMismatch(t *testing.T) {
	cs, err := NewGroup(2, 0)
	require.NoError(t, err)

	err = Run(context.Background(), cs, func(ctx context.Context, c Comm) error {
		return c.Bcast(ctx, make([]byte, 4 + c.Rank()), 0)
	})
	assert.Error(t, err)
}

func TestCancellation(t *testing.T) {
	cs, err := NewGroup(4, 0)
	require.NoError(t, err)

	failure := errors.New("rank 3 could not read its file")
	err = Run(context.Background(), cs, func(ctx context.Context, c Comm) error {
		if c.Rank() == 3 { return failure }
		var buf []byte
		if c.Rank() == 0 { buf = payload(100) }
		return BcastLarge(ctx, c, &buf, 0, 10)
	})
	assert.Equal(t, failure, err)
}

func TestBarrierRounds(t *testing.T) {
	const rounds = 20
	cs, err := NewGroup(6, 0)
	require.NoError(t, err)

	var entered [rounds]int32
	err = Run(context.Background(), cs, func(ctx context.Context, c Comm) error {
		for i := 0; i < rounds; i++ {
			atomic.AddInt32(&entered[i], 1)
			if err := c.Barrier(ctx); err != nil { return err }
			if n := atomic.LoadInt32(&entered[i]); n != 6 {
				return errors.New("left a barrier before every rank entered")
			}
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestBadArguments(t *testing.T) {
	_, err := NewGroup(0, 0)
	assert.Error(t, err)

	cs, err := NewGroup(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cs[0].Size())
	assert.Equal(t, 0, cs[0].Rank())

	buf := payload(3)
	assert.Error(t, BcastLarge(context.Background(), cs[0], &buf, 0, 0))
	assert.Error(t, cs[0].Bcast(context.Background(), buf, 1))
}
