package xbrl

// Fact is one tagged value from an instance document.
type Fact struct {
	Name       string
	ID         string
	ContextRef string
	UnitRef    string
	Decimals   string
	Value      string
}

// ExtractFacts collects every taxonomy-prefixed element as a Fact, in
// document order.
func ExtractFacts(doc *Document) []Fact {
	nodes := doc.Search(FactPattern)
	facts := make([]Fact, 0, len(nodes))
	for _, n := range nodes {
		facts = append(facts, Fact{
			Name:       n.Name,
			ID:         n.Attrs["id"],
			ContextRef: n.Attrs["contextRef"],
			UnitRef:    n.Attrs["unitRef"],
			Decimals:   n.Attrs["decimals"],
			Value:      n.Text,
		})
	}
	return facts
}
