package s0_data

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// PriceSchema maps OHLCV fields to column indexes of a price file
type PriceSchema struct {
	Date   int
	Open   int
	High   int
	Low    int
	Close  int
	Volume int
}

// priceAliases lists accepted header names per field (case-insensitive)
// ⭐ SSOT: 가격 파일 컬럼 매핑은 여기서만
var priceAliases = map[string][]string{
	"date":   {"date", "datetime", "timestamp"},
	"open":   {"open"},
	"high":   {"high"},
	"low":    {"low"},
	"close":  {"close"},
	"volume": {"volume", "vol"},
}

// adjCloseAliases are used for close only when no close column exists
var adjCloseAliases = []string{"adj close", "adj_close", "adjclose"}

// MapPriceHeader resolves every OHLCV field to a column.
// Any missing or duplicated field fails with ErrUnrecognizedLayout.
func MapPriceHeader(header []string) (PriceSchema, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	resolve := func(field string, aliases []string) (int, error) {
		found := -1
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				if found >= 0 && found != i {
					return -1, fmt.Errorf("%w: %s matched twice", contracts.ErrUnrecognizedLayout, field)
				}
				found = i
			}
		}
		if found < 0 {
			return -1, fmt.Errorf("%w: no %s column in %v", contracts.ErrUnrecognizedLayout, field, header)
		}
		return found, nil
	}

	var schema PriceSchema
	var err error
	if schema.Date, err = resolve("date", priceAliases["date"]); err != nil {
		return schema, err
	}
	if schema.Open, err = resolve("open", priceAliases["open"]); err != nil {
		return schema, err
	}
	if schema.High, err = resolve("high", priceAliases["high"]); err != nil {
		return schema, err
	}
	if schema.Low, err = resolve("low", priceAliases["low"]); err != nil {
		return schema, err
	}
	if schema.Close, err = resolve("close", priceAliases["close"]); err != nil {
		if schema.Close, err = resolve("close", adjCloseAliases); err != nil {
			return schema, err
		}
	}
	if schema.Volume, err = resolve("volume", priceAliases["volume"]); err != nil {
		return schema, err
	}
	return schema, nil
}

// width is the minimum record length the schema can read
func (s PriceSchema) width() int {
	max := s.Date
	for _, i := range []int{s.Open, s.High, s.Low, s.Close, s.Volume} {
		if i > max {
			max = i
		}
	}
	return max + 1
}

// normalizeRecords collapses the three-row header written by recent
// downloaders (Price / Ticker / Date) into a single header row.
// Returns the header and the index of the first data record.
func normalizeRecords(records [][]string) ([]string, int) {
	if len(records) == 0 {
		return nil, 0
	}
	header := append([]string(nil), records[0]...)
	start := 1

	if len(header) > 0 && strings.EqualFold(strings.TrimSpace(header[0]), "price") {
		header[0] = "Date"
		for start < len(records) && isHeaderContinuation(records[start]) {
			start++
		}
	}
	return header, start
}

func isHeaderContinuation(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "ticker" || first == "date"
}

// ParseBar converts one record; numeric cells that do not parse become NaN.
// ok is false when the date cannot be parsed.
func (s PriceSchema) ParseBar(record []string) (contracts.PriceBar, bool) {
	if len(record) < s.width() {
		return contracts.PriceBar{}, false
	}
	date, err := ParseDate(record[s.Date])
	if err != nil {
		return contracts.PriceBar{}, false
	}
	return contracts.PriceBar{
		Date:   date,
		Open:   CoerceFloat(record[s.Open]),
		High:   CoerceFloat(record[s.High]),
		Low:    CoerceFloat(record[s.Low]),
		Close:  CoerceFloat(record[s.Close]),
		Volume: CoerceFloat(record[s.Volume]),
	}, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// ParseDate accepts the date layouts seen in downloaded price files.
// Intraday timestamps are truncated to their calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// CoerceFloat parses a numeric cell, mapping blanks and junk to NaN
func CoerceFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatFloat writes the shortest representation that parses back exactly; NaN becomes empty
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
