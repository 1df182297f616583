package s1_universe

import (
	"regexp"
	"strings"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// symbolPattern accepts exchange tickers such as "RELIANCE", "M&M", "BAJAJ-AUTO.NS"
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9&.\-^=]*$`)

// symbolHeaders are the accepted names of the symbol column (case-insensitive)
// ⭐ SSOT: 유니버스 파일 컬럼 매핑은 여기서만
var symbolHeaders = []string{"symbol", "ticker"}

// Config holds universe normalization settings
type Config struct {
	Suffix string // appended to symbols that do not already carry an exchange suffix
}

// Builder normalizes raw symbol lists into a Universe
type Builder struct {
	config Config
}

// NewBuilder creates a new Universe Builder
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Build trims, upper-cases, suffixes and de-duplicates raw symbols.
// Rejected entries are kept in Excluded with a reason.
// ⭐ SSOT: S1 유니버스 생성
func (b *Builder) Build(source string, raw []string) *contracts.Universe {
	universe := &contracts.Universe{
		Date:     time.Now().UTC(),
		Source:   source,
		Symbols:  make([]string, 0, len(raw)),
		Excluded: make(map[string]string),
	}

	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		sym := b.normalize(r)
		switch {
		case sym == "":
			continue
		case !symbolPattern.MatchString(sym):
			universe.Excluded[strings.TrimSpace(r)] = "invalid symbol"
		case seen[sym]:
			universe.Excluded[sym] = "duplicate"
		default:
			seen[sym] = true
			universe.Symbols = append(universe.Symbols, sym)
		}
	}
	return universe
}

func (b *Builder) normalize(raw string) string {
	sym := strings.ToUpper(strings.TrimSpace(raw))
	if sym == "" || b.config.Suffix == "" {
		return sym
	}
	suffix := strings.ToUpper(b.config.Suffix)
	if strings.HasSuffix(sym, suffix) || strings.HasPrefix(sym, "^") {
		return sym
	}
	return sym + suffix
}

// symbolColumn finds the symbol column in a header row, or -1
func symbolColumn(header []string) int {
	for _, want := range symbolHeaders {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), want) {
				return i
			}
		}
	}
	return -1
}
