package tracking

import (
	"github.com/upyoung/warroom/internal/models"
)

// Index holds the derived lookup maps rebuilt from the flat collections
// after every mutating batch. Indexes are caches, never sources of truth.
type Index struct {
	SubsByParent  map[uint][]*models.SubProject
	ParentByID    map[uint]*models.Project
	BrandNameByID map[uint]string
}

// BuildIndex normalizes the raw collections into lookup maps. Inputs are
// never modified; calling it twice on the same collections yields the same
// maps. Sub-projects appearing in both the active and historical sets are
// deduplicated by id, first occurrence wins, insertion order preserved.
func BuildIndex(brands []models.Brand, parents []*models.Project, subs []*models.SubProject) *Index {
	idx := &Index{
		SubsByParent:  make(map[uint][]*models.SubProject),
		ParentByID:    make(map[uint]*models.Project, len(parents)),
		BrandNameByID: make(map[uint]string, len(brands)),
	}

	seen := make(map[uint]bool, len(subs))
	for _, sp := range subs {
		if seen[sp.ID] {
			continue
		}
		seen[sp.ID] = true
		idx.SubsByParent[sp.ParentID] = append(idx.SubsByParent[sp.ParentID], sp)
	}

	for _, p := range parents {
		idx.ParentByID[p.ID] = p
	}

	for i := range brands {
		idx.BrandNameByID[brands[i].ID] = brands[i].Name
	}

	return idx
}

// Subs returns the children of a parent, or nil.
func (idx *Index) Subs(parentID uint) []*models.SubProject {
	return idx.SubsByParent[parentID]
}

// BrandName resolves a brand id, falling back to "Unknown" like the
// dashboard views expect.
func (idx *Index) BrandName(brandID uint) string {
	if name, ok := idx.BrandNameByID[brandID]; ok {
		return name
	}
	return "Unknown"
}
