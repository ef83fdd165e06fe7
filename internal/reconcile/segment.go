package reconcile

import (
	"strings"

	"github.com/sells-group/edgar-sync/internal/xbrl"
)

// ResolveSegments translates each row's segment members through the label
// table and projects them into the SegmentAxis / SegmentValue columns.
// Dimension and member names are looked up by their normalized key; a
// name with no label passes through unchanged. Multiple members join with
// ", " in the order the context declared them.
func ResolveSegments(rows []Row, labels []xbrl.Label) []Row {
	labelByKey := make(map[string]string, len(labels))
	for _, l := range labels {
		if l.Role != "label" {
			continue
		}
		if _, seen := labelByKey[l.Key]; seen {
			continue
		}
		labelByKey[l.Key] = l.Text
	}

	resolve := func(name string) string {
		if text, ok := labelByKey[strings.ToLower(name)]; ok {
			return text
		}
		return name
	}

	for i := range rows {
		r := &rows[i]
		if len(r.Segment) == 0 {
			continue
		}
		axes := make([]string, len(r.Segment))
		values := make([]string, len(r.Segment))
		for j, m := range r.Segment {
			axes[j] = resolve(m.Dimension)
			values[j] = resolve(m.Member)
		}
		r.SegmentAxis = strings.Join(axes, ", ")
		r.SegmentValue = strings.Join(values, ", ")
	}
	return rows
}
