package s1_universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

const constituentsPage = `<html><body>
<table><tr><th>Index</th><th>Value</th></tr><tr><td>NIFTY 50</td><td>22000</td></tr></table>
<table class="constituents">
  <thead><tr><th>Company</th><th>Symbol</th><th>Sector</th></tr></thead>
  <tbody>
    <tr><td>Infosys</td><td> INFY </td><td>IT</td></tr>
    <tr><td>Reliance</td><td>RELIANCE</td><td>Energy</td></tr>
  </tbody>
</table>
</body></html>`

type staticFetcher struct {
	body []byte
	err  error
}

func (f staticFetcher) GetBody(ctx context.Context, url string) ([]byte, error) {
	return f.body, f.err
}

func TestParseSymbolTable(t *testing.T) {
	symbols, err := ParseSymbolTable([]byte(constituentsPage))
	require.NoError(t, err)
	assert.Equal(t, []string{" INFY ", "RELIANCE"}, symbols)

	_, err = ParseSymbolTable([]byte(`<table><tr><th>Name</th></tr></table>`))
	assert.True(t, errors.Is(err, contracts.ErrUnrecognizedLayout))
}

func TestHTMLSource_Load(t *testing.T) {
	src := NewHTMLSource("https://example.test/nifty50", staticFetcher{body: []byte(constituentsPage)}, NewBuilder(Config{Suffix: ".NS"}))

	universe, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY.NS", "RELIANCE.NS"}, universe.Symbols)
	assert.Equal(t, "https://example.test/nifty50", universe.Source)

	_, err = NewHTMLSource("x", staticFetcher{err: errors.New("offline")}, NewBuilder(Config{})).Load(context.Background())
	assert.Error(t, err)
}
