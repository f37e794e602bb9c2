// Package simplepir implements the SimplePIR primitive: a single-server,
// LWE-based private information retrieval scheme over Z/2^64Z. It exposes
// the operations spec.md fixes exactly: GenParams, GenHint, Query, Answer,
// Recover, and RecoverRow.
//
// Grounded on the SimplePIR Go reference (henrycg/simplepir's pir.Client /
// pir.Query / pir.Answer / pir.SecretLHE naming) and on the exo-explore
// private-search Python reference (pir.py) this service's wire contract was
// distilled from.
package simplepir

import (
	"fmt"
	"math/rand/v2"

	"github.com/exo-explore/private-search/internal/matrix"
)

// Default tuning, per spec.md §3.
const (
	DefaultN      = 2048
	DefaultL      = 17
	DefaultStdDev = 3.2
	DefaultBound  = 8
)

// Params holds one SimplePIR instance's public parameters. Immutable after
// GenParams returns.
type Params struct {
	N      uint64  // secret dimension
	M      uint64  // database side length
	Q      uint64  // ciphertext modulus; always 2^64 via uint64 wraparound
	P      uint64  // plaintext modulus, 2^L
	L      uint64  // log2(P)
	StdDev float64 // error standard deviation
	Bound  int64   // Gaussian rejection bound B
	A      *matrix.Matrix
}

// Delta is q/p, the scaling factor between plaintext and ciphertext slots.
// q = 2^64 does not fit in a uint64, so Delta is computed as 2^(64-L)
// directly rather than via division.
func (p *Params) Delta() uint64 {
	return uint64(1) << (64 - p.L)
}

// GenParams builds fresh parameters for an m-by-m database: samples A
// uniformly at random and fixes q = 2^64, p = 2^l.
//
// Fails with a *ConfigError if l is out of range: l must leave room for a
// plaintext modulus strictly less than q (l < 64) and the kernel requires
// n >= 512 per spec.md's invariants.
func GenParams(rng *rand.Rand, m uint64, n uint64, l uint64) (*Params, error) {
	if l == 0 || l >= 64 {
		return nil, &ConfigError{Msg: fmt.Sprintf("plaintext modulus exponent l=%d must satisfy 0 < l < 64", l)}
	}
	if n < 512 {
		return nil, &ConfigError{Msg: fmt.Sprintf("secret dimension n=%d must be >= 512", n)}
	}
	if m == 0 {
		return nil, &ConfigError{Msg: "database side length m must be positive"}
	}

	return &Params{
		N:      n,
		M:      m,
		Q:      0, // 2^64, represented implicitly by uint64 wraparound
		P:      uint64(1) << l,
		L:      l,
		StdDev: DefaultStdDev,
		Bound:  DefaultBound,
		A:      matrix.Uniform(rng, m, n),
	}, nil
}

// GenParamsDefault builds parameters using spec.md's defaults (n=2048,
// l=17).
func GenParamsDefault(rng *rand.Rand, m uint64) (*Params, error) {
	return GenParams(rng, m, DefaultN, DefaultL)
}
