package edgar

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// SICCode is one row of the SEC's standard industrial classification list.
type SICCode struct {
	Code   string
	Office string
	Title  string
}

// SICList scrapes the SIC code table from the sec.gov corpfin page.
func (c *Client) SICList(ctx context.Context) ([]SICCode, error) {
	body, err := c.f.Fetch(ctx, c.webBaseURL+sicListPath)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: fetch SIC list")
	}
	defer body.Close() //nolint:errcheck

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, eris.Wrap(err, "edgar: parse SIC list")
	}

	var codes []SICCode
	doc.Find("table.list tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		codes = append(codes, SICCode{
			Code:   strings.TrimSpace(cells.Eq(0).Text()),
			Office: strings.TrimSpace(cells.Eq(1).Text()),
			Title:  strings.TrimSpace(cells.Eq(2).Text()),
		})
	})

	return codes, nil
}
