// Package xbrl extracts facts, contexts, and linkbase data from XBRL
// filing documents.
package xbrl

import (
	"context"
	"encoding/xml"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/fetcher"
)

// DefaultTaxonomy is the concept namespace prefix facts are matched on.
const DefaultTaxonomy = "us-gaap"

// Node is one element of a parsed filing document. Name keeps the prefix
// as written in the source ("us-gaap:Revenues"), which the resolver-based
// decoder would otherwise erase.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Parent   *Node
}

// LocalName returns the element name without its namespace prefix.
func (n *Node) LocalName() string {
	if i := strings.IndexByte(n.Name, ':'); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// Descendants returns every node under n in document order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(m *Node) {
		for _, c := range m.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

// Document is a parsed filing with a flat node list for pattern search.
type Document struct {
	AccessionNumber string
	Root            *Node

	nodes    []*Node
	taxonomy string
}

// FolderIndexer lists the documents inside a filing folder. Satisfied by
// *edgar.Client.
type FolderIndexer interface {
	FolderIndex(ctx context.Context, folderURL string) ([]edgar.IndexItem, error)
}

// Extractor loads and parses filing documents. Parsed documents are
// memoized per accession number; a full submission file is large enough
// that re-parsing on every extraction pass would dominate the run.
type Extractor struct {
	f        fetcher.Fetcher
	idx      FolderIndexer
	taxonomy string

	mu    sync.Mutex
	cache map[string]*Document
}

// NewExtractor creates an extractor over the shared fetcher. An empty
// taxonomy selects the default.
func NewExtractor(f fetcher.Fetcher, idx FolderIndexer, taxonomy string) *Extractor {
	if taxonomy == "" {
		taxonomy = DefaultTaxonomy
	}
	return &Extractor{
		f:        f,
		idx:      idx,
		taxonomy: taxonomy,
		cache:    make(map[string]*Document),
	}
}

// Load fetches and parses the filing's full submission document, serving
// repeat calls for the same accession from cache.
func (e *Extractor) Load(ctx context.Context, filing edgar.Filing) (*Document, error) {
	return e.load(ctx, filing, false)
}

// LoadForce re-fetches the document even when a cached parse exists.
func (e *Extractor) LoadForce(ctx context.Context, filing edgar.Filing) (*Document, error) {
	return e.load(ctx, filing, true)
}

func (e *Extractor) load(ctx context.Context, filing edgar.Filing, force bool) (*Document, error) {
	e.mu.Lock()
	if !force {
		if doc, ok := e.cache[filing.AccessionNumber]; ok {
			e.mu.Unlock()
			return doc, nil
		}
	}
	e.mu.Unlock()

	body, err := e.f.Fetch(ctx, filing.DocumentURL)
	if err != nil {
		return nil, &ExtractionError{Stage: "fetch", URL: filing.DocumentURL, Err: err}
	}
	defer body.Close() //nolint:errcheck

	doc, err := Parse(body)
	if err != nil {
		return nil, &ExtractionError{Stage: "parse", URL: filing.DocumentURL, Err: err}
	}
	doc.AccessionNumber = filing.AccessionNumber
	doc.taxonomy = e.taxonomy

	zap.L().Debug("document parsed",
		zap.String("accession", filing.AccessionNumber),
		zap.Int("nodes", len(doc.nodes)),
	)

	e.mu.Lock()
	e.cache[filing.AccessionNumber] = doc
	e.mu.Unlock()
	return doc, nil
}

// Parse builds a node tree from a filing document. Full submission files
// are SGML wrappers around XML and HTML fragments, so parsing is lenient:
// missing end tags are synthesized and a malformed tail stops the walk
// without discarding what parsed before it.
func Parse(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = xml.HTMLAutoClose
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charsetReader

	root := &Node{Name: "#document"}
	doc := &Document{Root: root, taxonomy: DefaultTaxonomy}

	cur := root
	scopes := []map[string]string{{}} // namespace URI -> prefix, per element

	for {
		tok, err := d.Token()
		if err != nil {
			if err != io.EOF && len(doc.nodes) == 0 {
				return nil, eris.Wrap(err, "xbrl: parse document")
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			scope := pushScope(scopes[len(scopes)-1], t.Attr)
			scopes = append(scopes, scope)

			n := &Node{
				Name:   prefixedName(t.Name, scope),
				Attrs:  make(map[string]string, len(t.Attr)),
				Parent: cur,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				n.Attrs[prefixedName(a.Name, scope)] = a.Value
			}
			cur.Children = append(cur.Children, n)
			doc.nodes = append(doc.nodes, n)
			cur = n

		case xml.EndElement:
			if cur.Parent != nil {
				cur = cur.Parent
			}
			if len(scopes) > 1 {
				scopes = scopes[:len(scopes)-1]
			}

		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				if cur.Text != "" {
					cur.Text += " "
				}
				cur.Text += s
			}
		}
	}

	return doc, nil
}

// pushScope extends the enclosing namespace scope with this element's
// xmlns declarations.
func pushScope(parent map[string]string, attrs []xml.Attr) map[string]string {
	scope := parent
	copied := false
	for _, a := range attrs {
		var prefix string
		switch {
		case a.Name.Space == "xmlns":
			prefix = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			prefix = ""
		default:
			continue
		}
		if !copied {
			scope = make(map[string]string, len(parent)+1)
			for k, v := range parent {
				scope[k] = v
			}
			copied = true
		}
		scope[a.Value] = prefix
	}
	return scope
}

// prefixedName reconstructs the source-form name. The decoder resolves
// declared prefixes to namespace URIs; undeclared prefixes pass through
// unchanged, so a scope miss falls back to the raw space value.
func prefixedName(name xml.Name, scope map[string]string) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := scope[name.Space]
	if !ok {
		prefix = name.Space
	}
	if prefix == "" {
		return name.Local
	}
	return prefix + ":" + name.Local
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "xbrl: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
