package xbrl

import "strings"

// Pattern selects a family of elements in a parsed document.
type Pattern int

const (
	// FactPattern matches elements whose name carries the document's
	// taxonomy prefix. The match is case-sensitive: concept names are
	// case-significant in the source.
	FactPattern Pattern = iota

	// ContextPattern matches elements whose local name is "context",
	// case-insensitively, in any namespace.
	ContextPattern

	// LinkLabelPattern matches label linkbase resources ("link:label").
	LinkLabelPattern
)

// Search returns every node matching the pattern, in document order.
func (d *Document) Search(p Pattern) []*Node {
	var out []*Node
	prefix := d.taxonomy + ":"

	for _, n := range d.nodes {
		switch p {
		case FactPattern:
			if strings.HasPrefix(n.Name, prefix) {
				out = append(out, n)
			}
		case ContextPattern:
			if strings.EqualFold(n.LocalName(), "context") {
				out = append(out, n)
			}
		case LinkLabelPattern:
			if n.Name == "link:label" {
				out = append(out, n)
			}
		}
	}
	return out
}
