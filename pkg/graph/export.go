package graph

import (
	"fmt"
	"strings"
)

// DOT renders the subgraph as a Graphviz digraph. Nodes are declared with
// their content as label; edges carry the link type (and label, if any).
func (s Subgraph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph tasknet {\n")
	b.WriteString("  rankdir=LR;\n")

	for _, n := range s.Nodes {
		fmt.Fprintf(&b, "  %q [label=%q];\n", n.ID, n.Content)
	}
	for _, e := range s.Edges {
		label := string(e.Type)
		if e.Label != "" {
			label += ": " + e.Label
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.SourceID, e.TargetID, label)
	}

	b.WriteString("}\n")
	return b.String()
}

// Mermaid renders the subgraph as Mermaid flowchart markup. Task ids are
// replaced by short aliases (n0, n1, ...) since Mermaid identifiers cannot
// carry arbitrary characters.
func (s Subgraph) Mermaid() string {
	alias := make(map[string]string, len(s.Nodes))

	var b strings.Builder
	b.WriteString("graph TD\n")

	for i, n := range s.Nodes {
		a := fmt.Sprintf("n%d", i)
		alias[n.ID] = a
		fmt.Fprintf(&b, "    %s[%q]\n", a, mermaidEscape(n.Content))
	}
	for _, e := range s.Edges {
		src, okS := alias[e.SourceID]
		dst, okT := alias[e.TargetID]
		if !okS || !okT {
			continue
		}
		fmt.Fprintf(&b, "    %s -->|%s| %s\n", src, e.Type, dst)
	}

	return b.String()
}

func mermaidEscape(s string) string {
	return strings.NewReplacer("\"", "'", "\n", " ").Replace(s)
}
