package scene_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/voxsight/voxsight/pkg/scene"
)

func testNodes() []scene.Node {
	return []scene.Node{
		{ID: 1, CategoryName: "Walls", FamilyName: "Basic Wall"},
		{ID: 2, CategoryName: "Walls", FamilyName: "Curtain Wall"},
		{ID: 3, CategoryName: "Doors", FamilyName: "Single-Flush"},
		{ID: 4, CategoryName: "Walls — Interior"},
		{ID: 5},
	}
}

func TestQuery_Matches(t *testing.T) {
	t.Parallel()

	wall := scene.Node{ID: 1, CategoryName: "Walls — Interior", FamilyName: "Basic Wall"}
	blank := scene.Node{ID: 2}

	cases := []struct {
		name string
		q    scene.Query
		node scene.Node
		want bool
	}{
		{"exact hit", scene.Query{Field: scene.FieldCategoryName, Value: "Walls — Interior", Mode: scene.MatchExact}, wall, true},
		{"exact case miss", scene.Query{Field: scene.FieldCategoryName, Value: "walls — interior", Mode: scene.MatchExact}, wall, false},
		{"exact fold hit", scene.Query{Field: scene.FieldCategoryName, Value: "walls — interior", Mode: scene.MatchExactFold}, wall, true},
		{"contains hit", scene.Query{Field: scene.FieldCategoryName, Value: "Interior", Mode: scene.MatchContains}, wall, true},
		{"contains fold hit", scene.Query{Field: scene.FieldCategoryName, Value: "wall", Mode: scene.MatchContainsFold}, wall, true},
		{"family fold hit", scene.Query{Field: scene.FieldFamilyName, Value: "basic", Mode: scene.MatchContainsFold}, wall, true},
		{"missing attribute never matches", scene.Query{Field: scene.FieldCategoryName, Value: "", Mode: scene.MatchContainsFold}, blank, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.q.Matches(tc.node); got != tc.want {
				t.Errorf("Matches(%+v) = %v, want %v", tc.node, got, tc.want)
			}
		})
	}
}

func TestMemStore_NodesIsSnapshot(t *testing.T) {
	t.Parallel()

	s := scene.NewMemStore(testNodes()...)

	got, err := s.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(Nodes()) = %d, want 5", len(got))
	}

	// Mutating the store after the read must not change the snapshot.
	s.Add(scene.Node{ID: 6, CategoryName: "Roofs"})
	if len(got) != 5 {
		t.Errorf("snapshot grew to %d after Add, want 5", len(got))
	}
}

func TestMemStore_Remove(t *testing.T) {
	t.Parallel()

	s := scene.NewMemStore(testNodes()...)
	s.Remove(2, 4, 99) // 99 does not exist

	if got := s.Len(); got != 3 {
		t.Fatalf("Len() = %d after Remove, want 3", got)
	}
	got, err := s.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	for _, n := range got {
		if n.ID == 2 || n.ID == 4 {
			t.Errorf("node %d still present after Remove", n.ID)
		}
	}
}

func TestMemStore_Find(t *testing.T) {
	t.Parallel()

	s := scene.NewMemStore(testNodes()...)

	got, err := s.Find(context.Background(), scene.Query{
		Field: scene.FieldCategoryName,
		Value: "wall",
		Mode:  scene.MatchContainsFold,
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	var ids []int
	for _, n := range got {
		ids = append(ids, n.ID)
	}
	if want := []int{1, 2, 4}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Find ids = %v, want %v", ids, want)
	}
}

func TestNameIndex_Search(t *testing.T) {
	t.Parallel()

	x := scene.BuildNameIndex(testNodes())

	matches := x.Search("walls")
	if len(matches) == 0 {
		t.Fatal("Search returned no matches")
	}
	if matches[0].Name != "Walls" {
		t.Errorf("best match = %q, want %q", matches[0].Name, "Walls")
	}
	if want := []int{1, 2}; !reflect.DeepEqual(matches[0].IDs, want) {
		t.Errorf("best match IDs = %v, want %v", matches[0].IDs, want)
	}
	if matches[0].Score <= matches[len(matches)-1].Score && len(matches) > 1 {
		t.Errorf("matches not ranked best-first: %v", matches)
	}
}

func TestNameIndex_ApproximateTerm(t *testing.T) {
	t.Parallel()

	x := scene.NewNameIndex()
	x.Insert("Walls", 1, 2)
	x.Insert("Doors", 3)

	// A misrecognized term should still rank the nearest name first.
	matches := x.Search("wals")
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Name != "Walls" {
		t.Errorf("best match for %q = %q, want %q", "wals", matches[0].Name, "Walls")
	}
}

func TestNameIndex_EmptyTerm(t *testing.T) {
	t.Parallel()

	x := scene.NewNameIndex()
	x.Insert("Walls", 1)
	if matches := x.Search("  "); matches != nil {
		t.Errorf("Search(blank) = %v, want nil", matches)
	}
}

func TestLoadNodesFromReader(t *testing.T) {
	t.Parallel()

	src := `
nodes:
  - id: 10
    category: "Walls"
    family: "Basic Wall"
  - id: 11
    category: "Walls"
`
	s, err := scene.LoadNodesFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadNodesFromReader: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	nodes, err := s.Nodes(context.Background())
	if err != nil {
		t.Fatalf("Nodes: %v", err)
	}
	if nodes[0].ID != 10 || nodes[0].CategoryName != "Walls" || nodes[0].FamilyName != "Basic Wall" {
		t.Errorf("nodes[0] = %+v, want id=10 category=Walls family=Basic Wall", nodes[0])
	}
}

func TestLoadNodesFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := scene.LoadNodesFromReader(strings.NewReader("nodes:\n  - id: 1\n    colour: red\n"))
	if err == nil {
		t.Fatal("LoadNodesFromReader with unknown field: err = nil, want error")
	}
}
