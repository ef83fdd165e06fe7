package xbrl

import (
	"context"
	"strings"

	"github.com/sells-group/edgar-sync/internal/fetcher"
)

// MetaLink is one concept's documentation record from MetaLinks.json.
type MetaLink struct {
	Key           string
	LocalName     string
	Label         string
	TerseLabel    string
	Documentation string
}

// ExtractMetaLinks fetches the filing's MetaLinks.json and flattens the
// per-concept tag records. Structural key casing varies across filer
// software ("en-US" vs "enUS"), so navigation matches keys reduced to
// lowercase alphanumerics; concept keys themselves are preserved.
func (e *Extractor) ExtractMetaLinks(ctx context.Context, folderURL string) ([]MetaLink, error) {
	url := folderURL + "/MetaLinks.json"
	body, err := e.f.Fetch(ctx, url)
	if err != nil {
		return nil, &ExtractionError{Stage: "fetch", URL: url, Err: err}
	}
	defer body.Close() //nolint:errcheck

	var raw map[string]any
	if err := fetcher.DecodeJSON(body, &raw); err != nil {
		return nil, &ExtractionError{Stage: "parse", URL: url, Err: err}
	}

	instance := lookupMap(raw, "instance")
	var links []MetaLink
	for _, instDoc := range instance {
		tags := lookupMap(asMap(instDoc), "tag")
		for key, tag := range tags {
			m := asMap(tag)
			role := lookupMap(lookupMap(lookupMap(m, "lang"), "enus"), "role")
			links = append(links, MetaLink{
				Key:           strings.ToLower(key),
				LocalName:     lookupString(m, "localname"),
				Label:         lookupString(role, "label"),
				TerseLabel:    lookupString(role, "terselabel"),
				Documentation: lookupString(role, "documentation"),
			})
		}
		break // one instance document per filing
	}
	return links, nil
}

// lookup finds the value whose key reduces to the given normalized form.
func lookup(m map[string]any, key string) any {
	for k, v := range m {
		if normalizeKey(k) == key {
			return v
		}
	}
	return nil
}

func lookupMap(m map[string]any, key string) map[string]any {
	return asMap(lookup(m, key))
}

func lookupString(m map[string]any, key string) string {
	s, _ := lookup(m, key).(string)
	return s
}

// normalizeKey reduces a structural key to lowercase alphanumerics, so
// "en-US", "enUS", and "enus" all match.
func normalizeKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(k) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
