package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_PutGet(t *testing.T) {
	b := New(4)
	assert.True(t, b.Empty())

	b.Put(1)
	b.Put(2)
	assert.Equal(t, 2, b.Len())
	assert.False(t, b.Empty())

	assert.Equal(t, byte(1), b.Get())
	assert.Equal(t, byte(2), b.Get())
	assert.True(t, b.Empty())
}

func TestBuffer_GetOnEmptyReturnsZero(t *testing.T) {
	b := New(4)
	assert.Equal(t, byte(0), b.Get())
	assert.True(t, b.Empty())
}

func TestBuffer_OverwritesOldestWhenFull(t *testing.T) {
	b := New(4)
	b.Write([]byte{1, 2, 3, 4})
	assert.True(t, b.Full())

	b.Put(5) // overwrites 1, advances tail
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, []byte{2, 3, 4, 5}, b.Drain())
	assert.True(t, b.Empty())
}

func TestBuffer_CapacityNeverExceeded(t *testing.T) {
	b := New(8)
	for i := 0; i < 100; i++ {
		b.Put(byte(i))
	}
	assert.Equal(t, 8, b.Len())
	assert.Equal(t, 8, b.Capacity())
}

func TestBuffer_DefaultCapacity(t *testing.T) {
	b := New(0)
	assert.Equal(t, DefaultCapacity, b.Capacity())
}
