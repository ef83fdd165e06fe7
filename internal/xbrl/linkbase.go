package xbrl

import (
	"context"
	"strconv"
	"strings"
)

// Label is one human-readable label resource from the label linkbase.
type Label struct {
	// Key is the normalized lookup key ("us-gaap:revenues").
	Key string
	// OriginalKey is the resource label as written in the linkbase.
	OriginalKey string
	// Role is the final path segment of the role URI ("label",
	// "terseLabel", "documentation").
	Role string
	Text string
}

// ArcKind selects which relationship linkbase to read.
type ArcKind string

const (
	CalculationArcs ArcKind = "_cal"
	DefinitionArcs  ArcKind = "_def"
)

// Arc is one structural relationship between two concepts. Relationships
// are extracted as-is; no arithmetic is evaluated over them.
type Arc struct {
	From   string
	To     string
	Role   string
	Order  float64
	Weight float64
}

// ExtractLabels locates the label linkbase in the filing folder and
// returns its label resources.
func (e *Extractor) ExtractLabels(ctx context.Context, folderURL string) ([]Label, error) {
	doc, err := e.loadLinkbase(ctx, folderURL, "_lab")
	if err != nil {
		return nil, err
	}

	var labels []Label
	for _, n := range doc.nodes {
		if n.Attrs["xlink:type"] != "resource" {
			continue
		}
		original := n.Attrs["xlink:label"]
		labels = append(labels, Label{
			Key:         NormalizeLabelKey(original),
			OriginalKey: original,
			Role:        roleName(n.Attrs["xlink:role"]),
			Text:        n.Text,
		})
	}
	return labels, nil
}

// ExtractArcs reads the calculation or definition linkbase and returns
// its arc elements.
func (e *Extractor) ExtractArcs(ctx context.Context, folderURL string, kind ArcKind) ([]Arc, error) {
	doc, err := e.loadLinkbase(ctx, folderURL, string(kind))
	if err != nil {
		return nil, err
	}

	var arcs []Arc
	for _, n := range doc.nodes {
		if n.Attrs["xlink:type"] != "arc" {
			continue
		}
		arcs = append(arcs, Arc{
			From:   n.Attrs["xlink:from"],
			To:     n.Attrs["xlink:to"],
			Role:   roleName(n.Attrs["xlink:arcrole"]),
			Order:  parseFloat(n.Attrs["order"]),
			Weight: parseFloat(n.Attrs["weight"]),
		})
	}
	return arcs, nil
}

// loadLinkbase finds the first folder document whose name contains the
// marker and parses it.
func (e *Extractor) loadLinkbase(ctx context.Context, folderURL, marker string) (*Document, error) {
	items, err := e.idx.FolderIndex(ctx, folderURL)
	if err != nil {
		return nil, &ExtractionError{Stage: "index", URL: folderURL, Err: err}
	}

	var name string
	for _, item := range items {
		if strings.Contains(item.Name, marker) {
			name = item.Name
			break
		}
	}
	if name == "" {
		return nil, &ExtractionError{Stage: "index", URL: folderURL, Err: errNoLinkbase(marker)}
	}

	url := folderURL + "/" + name
	body, err := e.f.Fetch(ctx, url)
	if err != nil {
		return nil, &ExtractionError{Stage: "fetch", URL: url, Err: err}
	}
	defer body.Close() //nolint:errcheck

	doc, err := Parse(body)
	if err != nil {
		return nil, &ExtractionError{Stage: "parse", URL: url, Err: err}
	}
	return doc, nil
}

type errNoLinkbase string

func (e errNoLinkbase) Error() string {
	return "no document matching " + strconv.Quote(string(e)) + " in folder index"
}

// NormalizeLabelKey converts a linkbase resource label into the lookup
// key used to join against fact names: strip the "lab_" prefix and the
// "_en-US" suffix, keep the first two underscore-separated segments
// joined with ":", lowercase. Applying it to an already-normalized key
// returns the key unchanged.
func NormalizeLabelKey(key string) string {
	key = strings.TrimPrefix(key, "lab_")
	key = strings.TrimSuffix(key, "_en-US")
	parts := strings.Split(key, "_")
	if len(parts) >= 2 {
		key = parts[0] + ":" + parts[1]
	}
	return strings.ToLower(key)
}

// roleName reduces a role URI to its final path segment.
func roleName(uri string) string {
	if i := strings.LastIndexByte(uri, '/'); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
