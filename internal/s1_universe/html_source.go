package s1_universe

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Fetcher downloads a page body
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// HTMLSource reads the universe from the first HTML table with a Symbol/Ticker header,
// e.g. an index constituents page
type HTMLSource struct {
	url     string
	fetcher Fetcher
	builder *Builder
}

// NewHTMLSource creates an HTML table universe source
func NewHTMLSource(url string, fetcher Fetcher, builder *Builder) *HTMLSource {
	return &HTMLSource{url: url, fetcher: fetcher, builder: builder}
}

// Load fetches and parses the page
func (s *HTMLSource) Load(ctx context.Context) (*contracts.Universe, error) {
	body, err := s.fetcher.GetBody(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch universe page: %w", err)
	}

	raw, err := ParseSymbolTable(body)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(s.url, raw), nil
}

// ParseSymbolTable extracts the symbol column of the first matching table
func ParseSymbolTable(page []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse universe page: %w", err)
	}

	var symbols []string
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return true
		}

		header := make([]string, 0)
		rows.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			header = append(header, cell.Text())
		})

		col := symbolColumn(header)
		if col < 0 {
			return true
		}

		found = true
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cell := row.Find("td, th").Eq(col)
			if cell.Length() > 0 {
				symbols = append(symbols, cell.Text())
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with a symbol column: %w", contracts.ErrUnrecognizedLayout)
	}
	return symbols, nil
}
