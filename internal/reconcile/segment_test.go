package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/edgar-sync/internal/xbrl"
)

func TestResolveSegments(t *testing.T) {
	labels := []xbrl.Label{
		{Key: "us-gaap:statementbusinesssegmentsaxis", Role: "label", Text: "Segments [Axis]"},
		{Key: "us-gaap:productmember", Role: "label", Text: "Product"},
		{Key: "us-gaap:productmember", Role: "terseLabel", Text: "Products"},
	}
	rows := []Row{
		{Segment: []xbrl.SegmentMember{
			{Dimension: "us-gaap:StatementBusinessSegmentsAxis", Member: "us-gaap:ProductMember"},
		}},
		{Segment: []xbrl.SegmentMember{
			{Dimension: "us-gaap:StatementBusinessSegmentsAxis", Member: "aapl:UnlabeledMember"},
			{Dimension: "srt:GeographyAxis", Member: "country:US"},
		}},
		{}, // no segment
	}

	rows = ResolveSegments(rows, labels)

	assert.Equal(t, "Segments [Axis]", rows[0].SegmentAxis)
	assert.Equal(t, "Product", rows[0].SegmentValue)

	// Unresolved names pass through; multiple members join with ", ".
	assert.Equal(t, "Segments [Axis], srt:GeographyAxis", rows[1].SegmentAxis)
	assert.Equal(t, "aapl:UnlabeledMember, country:US", rows[1].SegmentValue)

	assert.Empty(t, rows[2].SegmentAxis)
	assert.Empty(t, rows[2].SegmentValue)
}

func TestStandardize(t *testing.T) {
	mapping := map[string]string{
		"Revenues":  "Revenue",
		"Net sales": "Revenue",
	}
	rows := Standardize([]Row{
		{LabelText: "Net sales"},
		{LabelText: "Operating expenses"},
	}, mapping)

	assert.Equal(t, "Revenue", rows[0].StandardName)
	// A miss passes the label through unchanged.
	assert.Equal(t, "Operating expenses", rows[1].StandardName)
}
