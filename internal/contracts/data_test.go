package contracts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceSeries_CloseOn(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	series := PriceSeries{
		Symbol: "AAA.NS",
		Bars: []PriceBar{
			{Date: day(4), Close: 100, Volume: 1},
			{Date: day(5), Close: 101, Volume: 1},
			{Date: day(6), Close: math.NaN(), Volume: 1},
			{Date: day(8), Close: 104, Volume: 1},
		},
	}

	tests := []struct {
		name   string
		date   time.Time
		want   float64
		wantOK bool
	}{
		{"exact date", day(5), 101, true},
		{"nan close falls back", day(6), 101, true},
		{"weekend falls back", day(7), 101, true},
		{"after last bar", day(20), 104, true},
		{"before first bar", day(1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := series.CloseOn(tt.date)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceBar_HasCoreValues(t *testing.T) {
	assert.True(t, PriceBar{Close: 1, Volume: 0, Open: math.NaN()}.HasCoreValues())
	assert.False(t, PriceBar{Close: math.NaN(), Volume: 1}.HasCoreValues())
	assert.False(t, PriceBar{Close: 1, Volume: math.Inf(1)}.HasCoreValues())
}

func TestRankedList_Top(t *testing.T) {
	list := RankedList{Records: []PredictionRecord{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}}}

	assert.Len(t, list.Top(2), 2)
	assert.Len(t, list.Top(0), 3)
	assert.Len(t, list.Top(10), 3)
	assert.Equal(t, 2, list.RankOf("B"))
	assert.Equal(t, 0, list.RankOf("Z"))
}
