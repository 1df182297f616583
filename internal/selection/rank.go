package selection

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Rank drops records without a usable Pred1W and sorts the rest descending.
// Records with equal Pred1W keep their input order.
// ⭐ SSOT: S4 랭킹 정렬은 여기서만
func Rank(runDate time.Time, records []contracts.PredictionRecord) *contracts.RankedList {
	kept := make([]contracts.PredictionRecord, 0, len(records))
	for _, rec := range records {
		if math.IsNaN(rec.Pred1W) || math.IsInf(rec.Pred1W, 0) {
			continue
		}
		kept = append(kept, rec)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Pred1W > kept[j].Pred1W
	})

	return &contracts.RankedList{RunDate: runDate, Records: kept}
}
