package s3_training

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// Split partitions row indices into train and test sets.
// The test size is ceil(n*testFraction); the permutation is fixed by seed.
func Split(n int, testFraction float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		return nil, nil, fmt.Errorf("%d rows leave no training split: %w", n, contracts.ErrNoTrainableData)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
