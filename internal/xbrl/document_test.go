package xbrl

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/fetcher"
)

const sampleInstance = `<?xml version="1.0" encoding="utf-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance"
      xmlns:us-gaap="http://fasb.org/us-gaap/2023"
      xmlns:xbrldi="http://xbrl.org/2006/xbrldi">
  <context id="c1">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
      <segment>
        <xbrldi:explicitMember dimension="us-gaap:StatementBusinessSegmentsAxis">us-gaap:ProductMember</xbrldi:explicitMember>
      </segment>
    </entity>
    <period>
      <startDate>2023-07-01</startDate>
      <endDate>2023-09-30</endDate>
    </period>
  </context>
  <context id="c2">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
    </entity>
    <period>
      <instant>2023-09-30</instant>
    </period>
  </context>
  <context id="c3">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
    </entity>
  </context>
  <us-gaap:Revenues id="f1" contextRef="c1" unitRef="usd" decimals="-6">1000000</us-gaap:Revenues>
  <us-gaap:Assets id="f2" contextRef="c2" unitRef="usd" decimals="-6">5000000</us-gaap:Assets>
</xbrl>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(sampleInstance))
	require.NoError(t, err)
	return doc
}

func TestParseKeepsPrefixes(t *testing.T) {
	doc := parseSample(t)

	facts := doc.Search(FactPattern)
	require.Len(t, facts, 2)
	assert.Equal(t, "us-gaap:Revenues", facts[0].Name)
	assert.Equal(t, "us-gaap:Assets", facts[1].Name)

	// The default-namespace element name carries no prefix.
	contexts := doc.Search(ContextPattern)
	require.Len(t, contexts, 3)
	assert.Equal(t, "context", contexts[0].Name)
}

func TestFactPatternIsCaseSensitive(t *testing.T) {
	src := `<xbrl xmlns:US-GAAP="http://fasb.org/us-gaap/2023">
		<US-GAAP:Revenues contextRef="c1">1</US-GAAP:Revenues>
	</xbrl>`
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Empty(t, doc.Search(FactPattern))
}

func TestParseLenientSGML(t *testing.T) {
	// Full submission files wrap XML in SGML headers with unclosed tags.
	src := `<SEC-DOCUMENT>
<SEC-HEADER>
<ACCEPTANCE-DATETIME>20231103
ACCESSION NUMBER: 0000320193-23-000106
</SEC-HEADER>
<DOCUMENT>
<TYPE>10-K
<TEXT>
<xbrl xmlns:us-gaap="http://fasb.org/us-gaap/2023">
<us-gaap:Revenues contextRef="c1">42</us-gaap:Revenues>
</xbrl>
</TEXT>
</DOCUMENT>
</SEC-DOCUMENT>`
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	facts := doc.Search(FactPattern)
	require.Len(t, facts, 1)
	assert.Equal(t, "42", facts[0].Text)
}

func TestExtractFacts(t *testing.T) {
	doc := parseSample(t)
	facts := ExtractFacts(doc)
	require.Len(t, facts, 2)

	assert.Equal(t, Fact{
		Name:       "us-gaap:Revenues",
		ID:         "f1",
		ContextRef: "c1",
		UnitRef:    "usd",
		Decimals:   "-6",
		Value:      "1000000",
	}, facts[0])
}

func TestExtractContexts(t *testing.T) {
	doc := parseSample(t)
	contexts := ExtractContexts(doc)
	require.Len(t, contexts, 3)

	c1 := contexts[0]
	assert.Equal(t, "c1", c1.ID)
	assert.Equal(t, "0000320193", c1.Entity)
	assert.Equal(t, "2023-07-01", c1.StartDate)
	assert.Equal(t, "2023-09-30", c1.EndDate)
	assert.Empty(t, c1.Instant)
	assert.True(t, c1.Usable())
	assert.False(t, c1.IsInstant())
	require.Len(t, c1.Segment, 1)
	assert.Equal(t, SegmentMember{
		Dimension: "us-gaap:StatementBusinessSegmentsAxis",
		Member:    "us-gaap:ProductMember",
	}, c1.Segment[0])

	c2 := contexts[1]
	assert.Equal(t, "2023-09-30", c2.Instant)
	assert.True(t, c2.IsInstant())

	// No period at all: unusable.
	assert.False(t, contexts[2].Usable())
}

func TestDualPeriodContextBecomesInstant(t *testing.T) {
	src := `<xbrl xmlns="http://www.xbrl.org/2003/instance">
	<context id="c1">
		<period>
			<startDate>2023-01-01</startDate>
			<endDate>2023-12-31</endDate>
			<instant>2023-12-31</instant>
		</period>
	</context>
	</xbrl>`
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)

	contexts := ExtractContexts(doc)
	require.Len(t, contexts, 1)
	c := contexts[0]
	assert.True(t, c.IsInstant())
	assert.Equal(t, "2023-12-31", c.Instant)
	assert.Empty(t, c.StartDate)
	assert.Empty(t, c.EndDate)
}

// stubFetcher serves canned bodies by URL.
type stubFetcher struct {
	docs map[string]string
	hits map[string]int
}

func newStubFetcher(docs map[string]string) *stubFetcher {
	return &stubFetcher{docs: docs, hits: make(map[string]int)}
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	s.hits[url]++
	body, ok := s.docs[url]
	if !ok {
		return nil, &fetcher.RemoteFetchError{URL: url, Status: 404}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *stubFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := s.Fetch(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close() //nolint:errcheck
	return json.NewDecoder(body).Decode(v)
}

// stubIndexer serves a fixed folder listing.
type stubIndexer struct {
	items []edgar.IndexItem
}

func (s *stubIndexer) FolderIndex(context.Context, string) ([]edgar.IndexItem, error) {
	return s.items, nil
}

func TestLoadMemoizes(t *testing.T) {
	filing := edgar.Filing{
		AccessionNumber: "0000320193-23-000106",
		DocumentURL:     "https://example.com/doc.txt",
	}
	f := newStubFetcher(map[string]string{filing.DocumentURL: sampleInstance})
	e := NewExtractor(f, &stubIndexer{}, "")

	doc1, err := e.Load(context.Background(), filing)
	require.NoError(t, err)
	doc2, err := e.Load(context.Background(), filing)
	require.NoError(t, err)
	assert.Same(t, doc1, doc2)
	assert.Equal(t, 1, f.hits[filing.DocumentURL])

	// LoadForce bypasses the cache.
	doc3, err := e.LoadForce(context.Background(), filing)
	require.NoError(t, err)
	assert.NotSame(t, doc1, doc3)
	assert.Equal(t, 2, f.hits[filing.DocumentURL])
}

func TestLoadFetchError(t *testing.T) {
	filing := edgar.Filing{
		AccessionNumber: "missing",
		DocumentURL:     "https://example.com/missing.txt",
	}
	e := NewExtractor(newStubFetcher(nil), &stubIndexer{}, "")

	_, err := e.Load(context.Background(), filing)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "fetch", extractErr.Stage)

	var remote *fetcher.RemoteFetchError
	assert.ErrorAs(t, err, &remote)
}
