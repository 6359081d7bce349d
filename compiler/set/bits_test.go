package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	s := MakeBits[int](10)

	assert.False(t, s.IsSet(3))
	assert.True(t, s.TrySet(3))
	assert.False(t, s.TrySet(3))
	assert.True(t, s.IsSet(3))

	s.Set(200)
	s.Set(64)
	s.Set(0)

	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(1000))
	assert.Equal(t, 4, s.Size())

	var got []int

	s.Range(func(k int) bool {
		got = append(got, k)
		return true
	})

	assert.Equal(t, []int{0, 3, 64, 200}, got)

	got = got[:0]

	s.Range(func(k int) bool {
		got = append(got, k)
		return len(got) < 2
	})

	assert.Equal(t, []int{0, 3}, got)
}

func TestBitsZero(t *testing.T) {
	var s Bits[int64]

	assert.False(t, s.IsSet(5))
	assert.Equal(t, 0, s.Size())

	s.Set(5)
	assert.True(t, s.IsSet(5))
}
