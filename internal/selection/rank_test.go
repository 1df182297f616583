package selection

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

func TestRank(t *testing.T) {
	runDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	records := []contracts.PredictionRecord{
		{Symbol: "A", Pred1W: 0.1},
		{Symbol: "B", Pred1W: 0.3},
		{Symbol: "C", Pred1W: math.NaN()},
		{Symbol: "D", Pred1W: 0.1},
		{Symbol: "E", Pred1W: -0.2},
		{Symbol: "F", Pred1W: 0.1},
	}

	list := Rank(runDate, records)

	var order []string
	for _, r := range list.Records {
		order = append(order, r.Symbol)
	}
	assert.Equal(t, []string{"B", "A", "D", "F", "E"}, order)
	assert.Equal(t, runDate, list.RunDate)
	assert.Equal(t, 0, list.RankOf("C"))
	assert.Equal(t, 2, list.RankOf("A"))
	assert.Len(t, list.Top(2), 2)
}

func TestRank_Empty(t *testing.T) {
	list := Rank(time.Now(), []contracts.PredictionRecord{{Symbol: "X", Pred1W: math.NaN()}})
	assert.Equal(t, 0, list.Len())
	assert.Empty(t, list.Top(10))
}
