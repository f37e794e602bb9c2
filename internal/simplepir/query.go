package simplepir

import (
	"math/rand/v2"

	"github.com/exo-explore/private-search/internal/matrix"
)

// Secret is a fresh per-query LWE secret, uniform in [0, q)^n. It never
// leaves the client and must not be reused across queries.
type Secret struct {
	S []uint64
}

// Query builds a one-round LWE ciphertext selecting row i: samples a fresh
// secret s, a one-hot vector Delta*e_i, a Gaussian error term, and returns
// (s, A*s + e + Delta*e_i mod q). Fails with *BoundsError if i is not a
// valid row index for params.M.
func Query(rng *rand.Rand, i uint64, params *Params) (*Secret, []uint64, error) {
	if i >= params.M {
		return nil, nil, &BoundsError{Index: i, Limit: params.M}
	}

	s := matrix.UniformVec(rng, params.N)
	e := matrix.GaussianVec(rng, params.M, params.StdDev, params.Bound)

	cq := matrix.MatVec(params.A, s)
	for j := range cq {
		cq[j] += e[j]
	}
	cq[i] += params.Delta()

	return &Secret{S: s}, cq, nil
}
