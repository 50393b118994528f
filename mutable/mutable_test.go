package mutable_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/engine/mutable"
)

// mutableMock used to set up test cases for mutators
type mutableMock struct {
	Mutability mutable.Context
	value      int
	operations int
	expected   int
}

// mutators closure to mutable.value
func (m *mutableMock) AddDelta(delta int) mutable.Mutation {
	return m.Mutability.Mutate(func() {
		m.value += delta
	})
}

func mocks(operations ...int) []*mutableMock {
	ms := make([]*mutableMock, 0, len(operations))
	for _, ops := range operations {
		ms = append(ms, &mutableMock{
			Mutability: mutable.Mutable(),
			operations: ops,
			expected:   ops * 10,
		})
	}
	return ms
}

func TestMutations(t *testing.T) {
	tests := []struct {
		name  string
		mocks []*mutableMock
	}{
		{name: "single", mocks: mocks(1)},
		{name: "repeated", mocks: mocks(2)},
		{name: "many components", mocks: mocks(3, 4)},
		{name: "no mutations", mocks: mocks(4, 0)},
	}
	const delta = 10
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var mutations mutable.Mutations
			for _, m := range test.mocks {
				m.value = 0
				for j := 0; j < m.operations; j++ {
					mutations = mutations.Put(m.AddDelta(delta))
				}
			}
			for _, m := range test.mocks {
				mutations.ApplyTo(m.Mutability)
				assert.Equal(t, m.expected, m.value)
			}
			assert.Empty(t, mutations)
		})
	}
}

func TestMutability(t *testing.T) {
	assert.False(t, mutable.Immutable().IsMutable())
	assert.True(t, mutable.Mutable().IsMutable())
	assert.NotEqual(t, mutable.Mutable(), mutable.Mutable())
	assert.Panics(t, func() {
		mutable.Immutable().Mutate(func() {})
	})

	var ms mutable.Mutations
	ms = ms.Put(mutable.Mutation{})
	assert.Nil(t, ms, "immutable mutations are ignored")

	mock := &mutableMock{Mutability: mutable.Mutable()}
	mock.AddDelta(10).Apply()
	assert.Equal(t, 10, mock.value)
}

func TestQueue(t *testing.T) {
	mock := &mutableMock{Mutability: mutable.Mutable()}
	var order []int
	q := mutable.NewQueue(3)
	for i := 0; i < 3; i++ {
		i := i
		assert.NoError(t, q.Push(mock.Mutability.Mutate(func() {
			order = append(order, i)
		})))
	}
	assert.Equal(t, 3, q.Len())

	err := q.Push(mock.AddDelta(1), mock.AddDelta(1))
	assert.True(t, errors.Is(err, mutable.ErrQueueFull))

	ms := q.Drain(nil)
	assert.Equal(t, 0, q.Len())
	ms.ApplyTo(mock.Mutability)
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 0, mock.value)

	assert.NoError(t, q.Push(mock.AddDelta(1)))
	other := mutable.Mutable()
	assert.NoError(t, q.Push(other.Mutate(func() {})))
	ms = q.Drain(ms)
	ms.ApplyTo(mock.Mutability)
	assert.Equal(t, 1, mock.value)
	assert.Equal(t, 1, ms.Discard())
	assert.Empty(t, ms)
}
