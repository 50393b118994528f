package run_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/mock"
	"github.com/pipelined/engine/run"
	"github.com/pipelined/engine/signal"
)

const quantum = 512

var errTest = errors.New("test")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, processors ...*mock.Processor) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.WithMix(mock.NewSource("source", 2, quantum, 0.5)))
	require.NoError(t, err)
	for _, p := range processors {
		e.Register(p)
	}
	require.NoError(t, e.Push(e.Play()))
	return e
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		sink     func(*int, context.CancelFunc) run.SinkFunc
		expected int
		err      error
	}{
		{
			name: "eof",
			sink: func(n *int, _ context.CancelFunc) run.SinkFunc {
				return func(signal.Float64) error {
					*n++
					if *n == 10 {
						return io.EOF
					}
					return nil
				}
			},
			expected: 10,
		},
		{
			name: "cancel",
			sink: func(n *int, cancel context.CancelFunc) run.SinkFunc {
				return func(signal.Float64) error {
					*n++
					if *n == 3 {
						cancel()
					}
					return nil
				}
			},
			expected: 3,
		},
		{
			name: "sink error",
			sink: func(n *int, _ context.CancelFunc) run.SinkFunc {
				return func(signal.Float64) error {
					*n++
					return errTest
				}
			},
			expected: 1,
			err:      errTest,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := &mock.Processor{Name: "p"}
			e := newEngine(t, p)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var sunk int
			r := run.New(ctx, e, 2, quantum, test.sink(&sunk, cancel))
			err := r.Wait()
			if test.err != nil {
				assert.True(t, errors.Is(err, test.err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, test.expected, sunk)
			blocks, samples := p.Count()
			assert.Equal(t, test.expected, blocks)
			assert.Equal(t, test.expected*quantum, samples)
		})
	}
}

func TestRunFailure(t *testing.T) {
	p := &mock.Processor{Name: "p", ErrorOnCall: errTest}
	e := newEngine(t, p)
	r := run.New(context.Background(), e, 2, quantum, func(signal.Float64) error {
		return nil
	})
	err := r.Wait()
	assert.True(t, errors.Is(err, errTest))
	assert.True(t, e.Halted())
}

func TestRunCancel(t *testing.T) {
	e := newEngine(t)
	r := run.New(context.Background(), e, 2, quantum, func(signal.Float64) error {
		return nil
	})
	r.Cancel()
	assert.NoError(t, r.Wait())
}

func TestBounce(t *testing.T) {
	e := newEngine(t)
	buf, err := run.Bounce(context.Background(), e, 2, quantum, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, engine.DefaultSampleRate, buf.Format.SampleRate)
	require.Len(t, buf.Data, 2*4*quantum)
	for _, v := range buf.Data {
		require.Equal(t, 0.5, v)
	}
	assert.InDelta(t, 4*20.48, e.Status().Position, 1e-9)

	buf, err = run.Bounce(context.Background(), e, 2, quantum, 0)
	require.NoError(t, err)
	assert.Empty(t, buf.Data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = run.Bounce(ctx, e, 2, quantum, 4)
	assert.True(t, errors.Is(err, context.Canceled))
}
