package s1_universe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(Config{Suffix: ".NS"})

	universe := b.Build("test", []string{" reliance ", "TCS", "tcs.ns", "", "M&M", "BAD SYMBOL", "^NSEI"})

	assert.Equal(t, []string{"RELIANCE.NS", "TCS.NS", "M&M.NS", "^NSEI"}, universe.Symbols)
	assert.Equal(t, "duplicate", universe.Excluded["TCS.NS"])
	assert.Equal(t, "invalid symbol", universe.Excluded["BAD SYMBOL"])
	assert.Equal(t, 4, universe.Count())
}

func TestBuilder_NoSuffix(t *testing.T) {
	universe := NewBuilder(Config{}).Build("test", []string{"aapl", "MSFT"})
	assert.Equal(t, []string{"AAPL", "MSFT"}, universe.Symbols)
}

func TestCSVSource_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    []string
		wantErr error
	}{
		{
			name: "symbol column",
			path: write("a.csv", "Company Name,Industry,Symbol\nInfosys,IT,INFY\nTata,IT,TCS\n"),
			want: []string{"INFY.NS", "TCS.NS"},
		},
		{
			name: "ticker column",
			path: write("b.csv", "ticker,weight\nHDFCBANK,0.1\n"),
			want: []string{"HDFCBANK.NS"},
		},
		{
			name:    "unrecognized header",
			path:    write("c.csv", "Company,Weight\nInfosys,0.1\n"),
			wantErr: contracts.ErrUnrecognizedLayout,
		},
		{
			name:    "empty file",
			path:    write("d.csv", ""),
			wantErr: contracts.ErrMissingInputData,
		},
		{
			name:    "absent file",
			path:    filepath.Join(dir, "missing.csv"),
			wantErr: contracts.ErrMissingInputData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			universe, err := NewCSVSource(tt.path, NewBuilder(Config{Suffix: ".NS"})).Load(context.Background())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, universe.Symbols)
		})
	}
}
