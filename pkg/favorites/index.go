package favorites

import (
	"slices"

	"github.com/motoshop/catalog/pkg/types"
)

// Index is the set of favorite product ids derived from the persisted list.
// It is rebuilt from the full list and never patched.
type Index struct {
	ids   map[string]struct{}
	order []string
}

func Rebuild(list []types.Product) *Index {
	idx := &Index{
		ids:   make(map[string]struct{}, len(list)),
		order: make([]string, 0, len(list)),
	}
	for _, p := range list {
		id := p.GetId()
		if id == "" {
			continue
		}
		if _, ok := idx.ids[id]; ok {
			continue
		}
		idx.ids[id] = struct{}{}
		idx.order = append(idx.order, id)
	}
	return idx
}

func (idx *Index) Has(id string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.ids[id]
	return ok
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// Ids returns the ids in persisted order.
func (idx *Index) Ids() []string {
	if idx == nil {
		return []string{}
	}
	return slices.Clone(idx.order)
}
