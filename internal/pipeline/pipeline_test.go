package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/edgar-sync/internal/edgar"
	"github.com/sells-group/edgar-sync/internal/xbrl"
)

const testInstance = `<?xml version="1.0" encoding="utf-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance"
      xmlns:us-gaap="http://fasb.org/us-gaap/2023">
  <context id="c1">
    <entity>
      <identifier scheme="http://www.sec.gov/CIK">0000320193</identifier>
    </entity>
    <period>
      <startDate>2023-07-01</startDate>
      <endDate>2023-09-30</endDate>
    </period>
  </context>
  <us-gaap:Revenues id="f1" contextRef="c1" unitRef="usd" decimals="-6">1000</us-gaap:Revenues>
  <us-gaap:ObscureConcept id="f2" contextRef="c1">77</us-gaap:ObscureConcept>
</xbrl>`

const emptyInstance = `<?xml version="1.0" encoding="utf-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance"></xbrl>`

type stubLocator struct {
	cik        string
	sub        *edgar.Submissions
	filings    []edgar.Filing
	resolveErr error
}

func (s *stubLocator) Resolve(_ context.Context, _ string) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.cik, nil
}

func (s *stubLocator) Submissions(_ context.Context, _ string) (*edgar.Submissions, error) {
	return s.sub, nil
}

func (s *stubLocator) Filings(_ context.Context, _ *edgar.Submissions) ([]edgar.Filing, error) {
	return s.filings, nil
}

type stubExtractor struct {
	docs     map[string]string // accession -> instance XML
	loadErr  map[string]error
	labels   []xbrl.Label
	labelErr error
	arcs     []xbrl.Arc
	arcErr   error
	metaErr  error
}

func (s *stubExtractor) Load(_ context.Context, filing edgar.Filing) (*xbrl.Document, error) {
	if err := s.loadErr[filing.AccessionNumber]; err != nil {
		return nil, err
	}
	doc, err := xbrl.Parse(strings.NewReader(s.docs[filing.AccessionNumber]))
	if err != nil {
		return nil, err
	}
	doc.AccessionNumber = filing.AccessionNumber
	return doc, nil
}

func (s *stubExtractor) ExtractLabels(_ context.Context, _ string) ([]xbrl.Label, error) {
	if s.labelErr != nil {
		return nil, s.labelErr
	}
	return s.labels, nil
}

func (s *stubExtractor) ExtractArcs(_ context.Context, _ string, _ xbrl.ArcKind) ([]xbrl.Arc, error) {
	if s.arcErr != nil {
		return nil, s.arcErr
	}
	return s.arcs, nil
}

func (s *stubExtractor) ExtractMetaLinks(_ context.Context, _ string) ([]xbrl.MetaLink, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	return nil, nil
}

func testFiling(accession string, filed time.Time) edgar.Filing {
	return edgar.Filing{
		AccessionNumber: accession,
		CIK:             "0000320193",
		Form:            "10-Q",
		FilingDate:      filed,
		FolderURL:       "https://example.com/" + accession,
		DocumentURL:     "https://example.com/" + accession + "/" + accession + ".txt",
	}
}

func revenueLabels() []xbrl.Label {
	return []xbrl.Label{
		{Key: "us-gaap:revenues", OriginalKey: "lab_us-gaap_Revenues_en-US", Role: "label", Text: "Revenues"},
	}
}

func TestRunEndToEnd(t *testing.T) {
	filing := testFiling("acc-1", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))
	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193", Name: "Apple Inc."},
		filings: []edgar.Filing{filing},
	}
	ext := &stubExtractor{
		docs:   map[string]string{"acc-1": testInstance},
		labels: revenueLabels(),
	}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{})
	require.NoError(t, err)

	assert.Equal(t, "0000320193", result.CIK)
	assert.Equal(t, 1, result.Counts.FilingsProcessed)
	assert.Equal(t, 2, result.Counts.FactsExtracted)
	assert.Empty(t, result.Failures)

	// The unlabeled concept is diagnosed, not emitted.
	assert.Equal(t, 1, result.Counts.RowsUnlabeled)
	require.Len(t, result.Unlabeled, 1)
	assert.Equal(t, "us-gaap:ObscureConcept", result.Unlabeled[0].FactName)

	require.Len(t, result.Rows, 1)
	row := result.Rows[0]
	assert.Equal(t, "Revenues", row.LabelText)
	assert.Equal(t, "2023-07-01", row.StartDate)
	assert.Equal(t, "2023-09-30", row.EndDate)
	require.NotNil(t, row.Numeric)
	assert.Equal(t, 1000.0, *row.Numeric)
	assert.Equal(t, 3, row.PeriodMonths)
	assert.Equal(t, "Three Months Ended", row.MonthsEnded)

	require.Len(t, result.Durations, 1)
	assert.Empty(t, result.Instants)
	assert.Equal(t, 1, result.Counts.RowsFinal)
}

func TestRunFailedFilingDoesNotBlockOthers(t *testing.T) {
	broken := testFiling("acc-bad", time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC))
	good := testFiling("acc-good", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))

	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193"},
		filings: []edgar.Filing{good, broken},
	}
	ext := &stubExtractor{
		docs:    map[string]string{"acc-good": testInstance},
		loadErr: map[string]error{"acc-bad": eris.New("document unreachable")},
		labels:  revenueLabels(),
	}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{})
	require.NoError(t, err)

	// The broken filing lands in the failed-items list.
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "acc-bad", result.Failures[0].AccessionNumber)
	assert.Error(t, result.Failures[0].Err)

	// The good filing still made it through.
	assert.Equal(t, 1, result.Counts.FilingsProcessed)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Revenues", result.Rows[0].LabelText)
}

func TestRunNoData(t *testing.T) {
	filing := testFiling("acc-empty", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))
	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193"},
		filings: []edgar.Filing{filing},
	}
	ext := &stubExtractor{docs: map[string]string{"acc-empty": emptyInstance}}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{})
	require.ErrorIs(t, err, ErrNoData)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Counts.FilingsNoData)
	assert.Empty(t, result.Failures)
}

func TestRunAllFailuresReturnsResultWithoutError(t *testing.T) {
	filing := testFiling("acc-bad", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))
	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193"},
		filings: []edgar.Filing{filing},
	}
	ext := &stubExtractor{loadErr: map[string]error{"acc-bad": eris.New("boom")}}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{})
	require.NoError(t, err)
	require.Len(t, result.Failures, 1)
	assert.Empty(t, result.Rows)
}

func TestRunSelection(t *testing.T) {
	old := testFiling("acc-old", time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC))
	mid := testFiling("acc-mid", time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC))
	newest := testFiling("acc-new", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))

	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193"},
		filings: []edgar.Filing{newest, mid, old},
	}
	ext := &stubExtractor{
		docs: map[string]string{
			"acc-new": testInstance,
			"acc-mid": testInstance,
			"acc-old": testInstance,
		},
		labels: revenueLabels(),
	}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{
		MinFilingDate: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		Limit:         1,
	})
	require.NoError(t, err)

	// Pre-coverage filing dropped by the floor, then the limit keeps the
	// newest of what remains.
	require.Len(t, result.Filings, 1)
	assert.Equal(t, "acc-new", result.Filings[0].AccessionNumber)
	assert.Equal(t, 1, result.Counts.FilingsProcessed)
}

func TestRunArcFailureDoesNotSkipFiling(t *testing.T) {
	filing := testFiling("acc-1", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC))
	loc := &stubLocator{
		cik:     "0000320193",
		sub:     &edgar.Submissions{CIK: "0000320193"},
		filings: []edgar.Filing{filing},
	}
	ext := &stubExtractor{
		docs:   map[string]string{"acc-1": testInstance},
		labels: revenueLabels(),
		arcErr: eris.New("no calculation linkbase"),
	}

	result, err := NewRunner(loc, ext, nil).Run(context.Background(), "AAPL", RunOpts{})
	require.NoError(t, err)

	// One failure per arc kind, but the merge still happened.
	assert.Len(t, result.Failures, 2)
	assert.Equal(t, 1, result.Counts.FilingsProcessed)
	require.Len(t, result.Rows, 1)
}

func TestRunResolveErrorPropagates(t *testing.T) {
	loc := &stubLocator{resolveErr: eris.New("unknown ticker")}
	_, err := NewRunner(loc, &stubExtractor{}, nil).Run(context.Background(), "ZZZZ", RunOpts{})
	require.Error(t, err)
}
