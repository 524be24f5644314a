package models

// MaxMindMapDepth is the deepest allowed node nesting.
// Title is level 0, top nodes are level 1, their children level 2, leaves level 3.
const MaxMindMapDepth = 3

// MindMapNode is a single node in the hierarchy
type MindMapNode struct {
	Name     string        `json:"name"`
	Children []MindMapNode `json:"children,omitempty"`
}

// MindMap is the hierarchical summary of one section.
// Exactly one mind map is generated per section.
type MindMap struct {
	Title        string        `json:"title"`
	Nodes        []MindMapNode `json:"nodes"`
	SectionIndex int           `json:"section_index"`
	SectionTitle string        `json:"section_title,omitempty"`
}

// MindMapSet is the persisted wrapper holding all mind maps for a date
type MindMapSet struct {
	MindMaps []MindMap `json:"mindmaps"`
}

// Depth returns the deepest nesting level of the map's nodes.
// An empty map has depth 0, a map with only top-level nodes has depth 1.
func (m *MindMap) Depth() int {
	max := 0
	for i := range m.Nodes {
		if d := nodeDepth(&m.Nodes[i]); d > max {
			max = d
		}
	}
	return max
}

func nodeDepth(n *MindMapNode) int {
	max := 0
	for i := range n.Children {
		if d := nodeDepth(&n.Children[i]); d > max {
			max = d
		}
	}
	return max + 1
}
