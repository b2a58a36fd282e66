package scene

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// NodesFile is the top-level structure of a scene nodes YAML file, used to
// bootstrap a [MemStore] for headless operation.
//
// Example:
//
//	nodes:
//	  - id: 10
//	    category: "Walls"
//	    family: "Basic Wall"
//	  - id: 11
//	    category: "Walls"
type NodesFile struct {
	Nodes []NodeEntry `yaml:"nodes"`
}

// NodeEntry is one node definition in a [NodesFile].
type NodeEntry struct {
	ID       int    `yaml:"id"`
	Category string `yaml:"category"`
	Family   string `yaml:"family"`
}

// LoadNodesFile reads and parses a scene nodes YAML file from disk.
func LoadNodesFile(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open nodes file %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadNodesFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("scene: parse nodes file %q: %w", path, err)
	}
	return s, nil
}

// LoadNodesFromReader parses scene nodes YAML from r and returns a populated
// [MemStore].
func LoadNodesFromReader(r io.Reader) (*MemStore, error) {
	var nf NodesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&nf); err != nil {
		return nil, fmt.Errorf("scene: decode yaml: %w", err)
	}

	nodes := make([]Node, 0, len(nf.Nodes))
	for _, e := range nf.Nodes {
		nodes = append(nodes, Node{ID: e.ID, CategoryName: e.Category, FamilyName: e.Family})
	}
	return NewMemStore(nodes...), nil
}
