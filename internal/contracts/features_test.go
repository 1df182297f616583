package contracts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureTableHeader(t *testing.T) {
	header := FeatureTableHeader()

	assert.Len(t, header, 1+NumFeatures+NumTargets)
	assert.Equal(t, DateColumn, header[0])
	assert.Equal(t, "Return", header[1])
	assert.Equal(t, "BB_Position", header[NumFeatures])
	assert.Equal(t, []string{"Target_1D", "Target_1W", "Target_1M"}, header[1+NumFeatures:])
}

func TestFeatureNames_ReturnsCopy(t *testing.T) {
	names := FeatureNames()
	names[0] = "Tampered"

	assert.Equal(t, "Return", FeatureNames()[0])
}

func TestFeatureFingerprint(t *testing.T) {
	fp := FeatureFingerprint()

	assert.Len(t, fp, 64)
	assert.Equal(t, fp, FingerprintOf(FeatureNames()))

	swapped := FeatureNames()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.NotEqual(t, fp, FingerprintOf(swapped))
}

func TestFeatureRow_IsFinite(t *testing.T) {
	row := FeatureRow{}
	assert.True(t, row.IsFinite())

	row.Features[5] = math.Inf(1)
	assert.False(t, row.IsFinite())

	row.Features[5] = 0
	row.Targets[2] = math.NaN()
	assert.False(t, row.IsFinite())
}

func TestFeatureTable_HasColumn(t *testing.T) {
	built := &FeatureTable{Symbol: "A"}
	assert.True(t, built.HasColumn(WeeklyTarget))

	read := &FeatureTable{Symbol: "B", Columns: []string{DateColumn, "Return"}}
	assert.True(t, read.HasColumn("Return"))
	assert.False(t, read.HasColumn(WeeklyTarget))
}
