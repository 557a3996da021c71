package favorites

import (
	"testing"

	"github.com/motoshop/catalog/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestRebuild(t *testing.T) {
	idx := Rebuild([]types.Product{
		{"id": "p2"},
		{"id": "p1"},
		{"id": "p2"},
		{"name": "no id"},
	})
	assert.True(t, idx.Has("p1"))
	assert.True(t, idx.Has("p2"))
	assert.False(t, idx.Has("p3"))
	assert.False(t, idx.Has(""))
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"p2", "p1"}, idx.Ids())
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.False(t, idx.Has("p1"))
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Ids())
	assert.Equal(t, 0, Rebuild(nil).Len())
}
