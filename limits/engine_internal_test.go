package limits

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Timeout(t *testing.T) {
	k := NewKernelEngine(WithTimeout(10 * time.Millisecond))
	_, err := run(context.Background(), k, "slow", func() (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrEngineTimeout)
}

func TestRun_Panic(t *testing.T) {
	k := NewKernelEngine()
	_, err := run(context.Background(), k, "boom", func() (int, error) {
		panic("kernel bug")
	})
	require.ErrorIs(t, err, ErrEnginePanic)
	assert.Contains(t, err.Error(), "kernel bug")
}

func TestRun_CanceledContext(t *testing.T) {
	k := NewKernelEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	release := make(chan struct{})
	defer close(release)
	_, err := run(ctx, k, "blocked", func() (int, error) {
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrEngineTimeout)
}

func TestRun_Observer(t *testing.T) {
	var mu sync.Mutex
	var ops []string
	k := NewKernelEngine(WithObserver(func(op string, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	}))
	ctx := context.Background()
	h, err := k.Parse(ctx, "x**2")
	require.NoError(t, err)
	_, err = k.Limit(ctx, h, FinitePoint(3), Both)
	require.NoError(t, err)
	_, err = k.Substitute(ctx, h, PosInf)
	assert.ErrorIs(t, err, ErrSubstitution)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"parse", "limit", "substitute"}, ops)
}

func TestClassify_Table(t *testing.T) {
	one, two := FormatNumber(1), FormatNumber(2)
	undef, failed, inf := Undefined("u"), Failed("f"), FormatNumber(math.Inf(1))
	tests := []struct {
		name              string
		f, left, right, b Value
		want              Kind
	}{
		{"continuous", one, one, one, one, KindContinuous},
		{"hole", undef, two, two, two, KindRemovable},
		{"hole with failed sides", undef, failed, failed, failed, KindEssential},
		{"pole", undef, inf, inf, inf, KindEssential},
		{"sides differ without value", undef, one, two, undef, KindEssential},
		{"jump", one, one, two, undef, KindJump},
		{"value off the limit", two, one, one, one, KindRemovable},
		{"one side failed", one, one, failed, failed, KindEssential},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.f, tt.left, tt.right, tt.b), tt.name)
	}
}
