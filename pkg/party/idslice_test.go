package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDSliceSorts(t *testing.T) {
	ids := NewIDSlice([]ID{3, 1, 2})
	assert.Equal(t, IDSlice{1, 2, 3}, ids)
	assert.True(t, ids.Valid())
}

func TestIDSliceValid(t *testing.T) {
	assert.False(t, IDSlice{1, 1, 2}.Valid(), "duplicates are invalid")
	assert.False(t, IDSlice{2, 1}.Valid(), "unsorted is invalid")
	assert.False(t, IDSlice{0, 1}.Valid(), "zero id is invalid")
	assert.True(t, IDSlice{}.Valid())
	assert.True(t, IDSlice{1}.Valid())
}

func TestIDSliceContains(t *testing.T) {
	ids := RangeN(5)
	assert.True(t, ids.Contains(1, 5))
	assert.False(t, ids.Contains(6))
	assert.Equal(t, 2, ids.GetIndex(3))
	assert.Equal(t, -1, ids.GetIndex(42))
}

func TestIDRoundTrip(t *testing.T) {
	id := ID(513)
	assert.Equal(t, id, FromBytes(id.Bytes()))

	parsed, err := FromString(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)
}
