package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitVect(t *testing.T) {
	v := NewBitVect(16)
	assert.Equal(t, KindBitVect, v.Kind())
	assert.Equal(t, uint64(16), v.Length())
	assert.Zero(t, v.Count())

	v.Set(1)
	v.Set(9)
	v.Set(20) // out of range, ignored
	assert.Equal(t, 2, v.Count())
	assert.True(t, v.Test(9))
	assert.False(t, v.Test(20))
	assert.Equal(t, []uint{1, 9}, v.OnBits())

	c := v.Clone()
	c.Clear(1)
	assert.True(t, v.Test(1))
	assert.False(t, c.Test(1))
	assert.False(t, v.Equal(c))

	mask := NewBitVect(16)
	mask.Set(9)
	diff := v.AndNot(mask)
	assert.Equal(t, []uint{1}, diff.OnBits())
	assert.Equal(t, []uint{1, 9}, v.OnBits())
}

func TestBitVect_Bytes(t *testing.T) {
	v := NewBitVect(16)
	v.Set(0)
	v.Set(3)
	v.Set(15)
	data := v.Bytes()
	require.Len(t, data, 2)
	assert.Equal(t, byte(0x09), data[0])
	assert.Equal(t, byte(0x80), data[1])

	back := BitVectFromBytes(16, data)
	assert.True(t, v.Equal(back))
}

func TestSparseIntVect(t *testing.T) {
	v := NewSparseIntVect(1 << 20)
	assert.Equal(t, KindCount, v.Kind())
	assert.Equal(t, uint64(1<<20), v.Length())

	v.Add(7, 2)
	v.Add(3, 1)
	v.Add(7, 1)
	assert.Equal(t, 3, v.Get(7))
	assert.Equal(t, 4, v.Total())
	assert.Equal(t, []uint64{3, 7}, v.Keys())

	v.Add(3, -1)
	assert.Equal(t, 1, v.NumNonZero())
	assert.Zero(t, v.Get(3))

	c := v.Clone()
	c.Add(7, 5)
	assert.Equal(t, 3, v.Get(7))
	assert.Equal(t, map[uint64]int{7: 8}, c.Counts())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "bitvect", KindBitVect.String())
	assert.Equal(t, "count", KindCount.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

//Personal.AI order the ending
