package xbrl

import "strings"

// SegmentMember is one dimensional qualifier of a context, in the order
// the document declares them.
type SegmentMember struct {
	Dimension string
	Member    string
}

// Context is one reporting context: who the value is about and for what
// period. A context is either a duration (StartDate+EndDate) or a point
// in time (Instant); a context declaring both is treated as an instant.
type Context struct {
	ID        string
	Entity    string
	StartDate string
	EndDate   string
	Instant   string
	Segment   []SegmentMember
}

// Usable reports whether the context carries a complete period of either
// shape. Contexts without one cannot join to facts meaningfully.
func (c Context) Usable() bool {
	return c.Instant != "" || (c.StartDate != "" && c.EndDate != "")
}

// IsInstant reports whether the context is a point-in-time context.
func (c Context) IsInstant() bool {
	return c.Instant != ""
}

// ExtractContexts collects every context element with its entity, period,
// and segment members.
func ExtractContexts(doc *Document) []Context {
	nodes := doc.Search(ContextPattern)
	contexts := make([]Context, 0, len(nodes))

	for _, n := range nodes {
		c := Context{ID: n.Attrs["id"]}

		for _, d := range n.Descendants() {
			local := strings.ToLower(d.LocalName())
			switch {
			case local == "identifier":
				c.Entity = d.Text
			case strings.Contains(local, "startdate"):
				c.StartDate = d.Text
			case strings.Contains(local, "enddate"):
				c.EndDate = d.Text
			case strings.Contains(local, "instant"):
				c.Instant = d.Text
			case local == "segment":
				c.Segment = segmentMembers(d)
			}
		}

		if c.Instant != "" {
			c.StartDate = ""
			c.EndDate = ""
		}
		contexts = append(contexts, c)
	}
	return contexts
}

// segmentMembers pulls the dimensional qualifiers out of a segment
// element. Only the explicit-member vocabulary carries dimensions.
func segmentMembers(segment *Node) []SegmentMember {
	var members []SegmentMember
	for _, d := range segment.Descendants() {
		if !strings.HasPrefix(d.Name, "xbrldi:") {
			continue
		}
		members = append(members, SegmentMember{
			Dimension: d.Attrs["dimension"],
			Member:    d.Text,
		})
	}
	return members
}
