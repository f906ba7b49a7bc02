package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/tree"
)

// maxLabel caps the node text shown inside a shape.
const maxLabel = 48

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds the overlay of a tree-mode session.
func OverlayFor(st *domain.State) *GraphOverlay {
	if st == nil || st.Mode != domain.ModeTree {
		return nil
	}
	return &GraphOverlay{VisitedNodes: st.Path, CurrentNode: st.CurrentNodeID}
}

// GenerateMermaid produces a Mermaid flowchart of a decision tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Boolean: {Rhombus}
// - Multiple choice and number: [/Parallelogram/]
// - Result: ([Stadium]), classed approved or rejected
// Edge targets that do not exist are drawn as dashed placeholders.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(kb *domain.KnowledgeBase, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	views := tree.Catalog(kb)
	missing := map[string]bool{}
	var approved, rejected []string

	for _, v := range views {
		node := kb.DecisionTree.Nodes[v.ID]
		safeID := sanitizeMermaidID(v.ID)

		opener, closer := "[", "]"
		switch {
		case v.Root:
			opener, closer = "((", "))"
		case node.IsResult():
			opener, closer = "([", "])"
		case node.Type == domain.NodeTypeBoolean:
			opener, closer = "{", "}"
		case node.Type == domain.NodeTypeMultipleChoice, node.Type == domain.NodeTypeNumber:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label(v), closer)

		if node.IsResult() {
			if node.Approved() {
				approved = append(approved, safeID)
			} else {
				rejected = append(rejected, safeID)
			}
		}

		for _, e := range v.Edges {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(e.Label), sanitizeMermaidID(e.To))
		}
		for _, id := range v.Missing {
			missing[id] = true
		}
	}

	if len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		sb.WriteString("\n    %% Missing nodes\n")
		sb.WriteString("    classDef missing fill:#fff,stroke:#d32f2f,stroke-dasharray:5 5,color:#d32f2f;\n")
		for _, id := range ids {
			safeID := sanitizeMermaidID(id)
			fmt.Fprintf(&sb, "    %s[\"%s (missing)\"]\n", safeID, escape(id))
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	if len(approved) > 0 || len(rejected) > 0 {
		sb.WriteString("\n    %% Results\n")
		sb.WriteString("    classDef approved fill:#e8f5e9,stroke:#2e7d32,color:#000;\n")
		sb.WriteString("    classDef rejected fill:#ffebee,stroke:#c62828,color:#000;\n")
		if len(approved) > 0 {
			fmt.Fprintf(&sb, "    class %s approved;\n", strings.Join(approved, ","))
		}
		if len(rejected) > 0 {
			fmt.Fprintf(&sb, "    class %s rejected;\n", strings.Join(rejected, ","))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.CurrentNode {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func label(v tree.NodeView) string {
	text := v.Text
	if r := []rune(text); len(r) > maxLabel {
		text = string(r[:maxLabel-3]) + "..."
	}
	if text == "" {
		return escape(v.ID)
	}
	return escape(v.ID) + "<br/>" + escape(text)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
