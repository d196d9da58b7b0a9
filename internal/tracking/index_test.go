package tracking

import (
	"reflect"
	"testing"

	"github.com/upyoung/warroom/internal/models"
)

func TestBuildIndex(t *testing.T) {
	brands := []models.Brand{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Orbit"}}
	parents := []*models.Project{
		{ID: 10, BrandID: 1, Title: "Spring Launch"},
		{ID: 20, BrandID: 2, Title: "Rebrand"},
	}
	subs := []*models.SubProject{
		{ID: 100, ParentID: 10},
		{ID: 101, ParentID: 10},
		{ID: 200, ParentID: 20},
	}

	idx := BuildIndex(brands, parents, subs)

	if len(idx.Subs(10)) != 2 {
		t.Errorf("parent 10 children = %d, expected 2", len(idx.Subs(10)))
	}
	if len(idx.Subs(20)) != 1 {
		t.Errorf("parent 20 children = %d, expected 1", len(idx.Subs(20)))
	}
	if idx.ParentByID[10].Title != "Spring Launch" {
		t.Errorf("parent lookup broken")
	}
	if idx.BrandName(2) != "Orbit" {
		t.Errorf("BrandName(2) = %q", idx.BrandName(2))
	}
	if idx.BrandName(99) != "Unknown" {
		t.Errorf("missing brand should resolve to Unknown, got %q", idx.BrandName(99))
	}
}

func TestBuildIndex_DedupsOverlappingSets(t *testing.T) {
	// The active and historical collections can overlap right after a
	// closure; the first occurrence wins.
	subs := []*models.SubProject{
		{ID: 100, ParentID: 10, Status: models.SubStatusCompleted},
		{ID: 100, ParentID: 10, Status: models.SubStatusInProgress}, // stale duplicate
	}

	idx := BuildIndex(nil, nil, subs)
	children := idx.Subs(10)
	if len(children) != 1 {
		t.Fatalf("children = %d, expected 1 after dedup", len(children))
	}
	if children[0].Status != models.SubStatusCompleted {
		t.Errorf("dedup kept %q, expected first occurrence", children[0].Status)
	}
}

func TestBuildIndex_Idempotent(t *testing.T) {
	brands := []models.Brand{{ID: 1, Name: "Acme"}}
	parents := []*models.Project{{ID: 10, BrandID: 1}}
	subs := []*models.SubProject{{ID: 100, ParentID: 10}, {ID: 101, ParentID: 10}}

	a := BuildIndex(brands, parents, subs)
	b := BuildIndex(brands, parents, subs)

	if !reflect.DeepEqual(a.SubsByParent, b.SubsByParent) {
		t.Error("SubsByParent differs between identical builds")
	}
	if !reflect.DeepEqual(a.ParentByID, b.ParentByID) {
		t.Error("ParentByID differs between identical builds")
	}
	if !reflect.DeepEqual(a.BrandNameByID, b.BrandNameByID) {
		t.Error("BrandNameByID differs between identical builds")
	}
}

func TestBuildIndex_DoesNotMutateInputs(t *testing.T) {
	subs := []*models.SubProject{{ID: 100, ParentID: 10}, {ID: 101, ParentID: 10}}
	before := []uint{subs[0].ID, subs[1].ID}

	BuildIndex(nil, nil, subs)

	after := []uint{subs[0].ID, subs[1].ID}
	if !reflect.DeepEqual(before, after) {
		t.Error("source collection order changed")
	}
}
