// Package matrix implements the modular linear-algebra kernel the SimplePIR
// primitive is built on: dense matrices over Z/2^64Z, plus the uniform and
// discrete-Gaussian samplers used to generate public parameters, secrets,
// and LWE error terms.
//
// All arithmetic is performed on Go's unsigned 64-bit integers and relies on
// their defined wraparound semantics to realize reduction mod q = 2^64; no
// value is ever explicitly reduced.
package matrix

import (
	cryptorand "crypto/rand"
	"fmt"
	"math"
	"math/rand/v2"
)

// Matrix is a dense, row-major matrix over uint64.
type Matrix struct {
	rows, cols uint64
	data       []uint64
}

// New allocates a zeroed rows-by-cols matrix.
func New(rows, cols uint64) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]uint64, rows*cols)}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() uint64 { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() uint64 { return m.cols }

// Get returns the element at (i, j).
func (m *Matrix) Get(i, j uint64) uint64 {
	if i >= m.rows || j >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of bounds for %dx%d", i, j, m.rows, m.cols))
	}
	return m.data[i*m.cols+j]
}

// Set assigns the element at (i, j).
func (m *Matrix) Set(i, j uint64, v uint64) {
	if i >= m.rows || j >= m.cols {
		panic(fmt.Sprintf("matrix: index (%d,%d) out of bounds for %dx%d", i, j, m.rows, m.cols))
	}
	m.data[i*m.cols+j] = v
}

// Row returns a copy of row i as a length-cols slice.
func (m *Matrix) Row(i uint64) []uint64 {
	if i >= m.rows {
		panic(fmt.Sprintf("matrix: row %d out of bounds for %d rows", i, m.rows))
	}
	out := make([]uint64, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// SetRow overwrites row i with v, which must have length cols.
func (m *Matrix) SetRow(i uint64, v []uint64) {
	if i >= m.rows {
		panic(fmt.Sprintf("matrix: row %d out of bounds for %d rows", i, m.rows))
	}
	if uint64(len(v)) != m.cols {
		panic(fmt.Sprintf("matrix: row length %d does not match %d columns", len(v), m.cols))
	}
	copy(m.data[i*m.cols:(i+1)*m.cols], v)
}

// Col returns a copy of column j as a length-rows slice.
func (m *Matrix) Col(j uint64) []uint64 {
	if j >= m.cols {
		panic(fmt.Sprintf("matrix: col %d out of bounds for %d cols", j, m.cols))
	}
	out := make([]uint64, m.rows)
	for i := uint64(0); i < m.rows; i++ {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

// Copy returns a deep copy.
func (m *Matrix) Copy() *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]uint64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// Equal reports whether m and n have the same shape and entries.
func (m *Matrix) Equal(n *Matrix) bool {
	if m.rows != n.rows || m.cols != n.cols {
		return false
	}
	for i, v := range m.data {
		if n.data[i] != v {
			return false
		}
	}
	return true
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	out := New(m.cols, m.rows)
	for i := uint64(0); i < m.rows; i++ {
		for j := uint64(0); j < m.cols; j++ {
			out.Set(j, i, m.Get(i, j))
		}
	}
	return out
}

// MatMul returns a*b, an a.rows-by-b.cols matrix. Panics on dimension
// mismatch. Accumulation happens in uint64 per term, so the reduction mod
// 2^64 is exactly Go's integer wraparound.
func MatMul(a, b *Matrix) *Matrix {
	if a.cols != b.rows {
		panic(fmt.Sprintf("matrix: MatMul dimension mismatch %dx%d * %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	out := New(a.rows, b.cols)
	for i := uint64(0); i < a.rows; i++ {
		for k := uint64(0); k < a.cols; k++ {
			aik := a.Get(i, k)
			if aik == 0 {
				continue
			}
			for j := uint64(0); j < b.cols; j++ {
				out.data[i*out.cols+j] += aik * b.Get(k, j)
			}
		}
	}
	return out
}

// MatVec returns m*v, a length-m.rows vector.
func MatVec(m *Matrix, v []uint64) []uint64 {
	if uint64(len(v)) != m.cols {
		panic(fmt.Sprintf("matrix: MatVec dimension mismatch %dx%d * %d", m.rows, m.cols, len(v)))
	}
	out := make([]uint64, m.rows)
	for i := uint64(0); i < m.rows; i++ {
		var sum uint64
		base := i * m.cols
		for j := uint64(0); j < m.cols; j++ {
			sum += m.data[base+j] * v[j]
		}
		out[i] = sum
	}
	return out
}

// Dot returns the modular dot product of u and v, which must have equal
// length.
func Dot(u, v []uint64) uint64 {
	if len(u) != len(v) {
		panic(fmt.Sprintf("matrix: Dot length mismatch %d vs %d", len(u), len(v)))
	}
	var sum uint64
	for i := range u {
		sum += u[i] * v[i]
	}
	return sum
}

// AddVec returns u+v elementwise, mod 2^64.
func AddVec(u, v []uint64) []uint64 {
	if len(u) != len(v) {
		panic(fmt.Sprintf("matrix: AddVec length mismatch %d vs %d", len(u), len(v)))
	}
	out := make([]uint64, len(u))
	for i := range u {
		out[i] = u[i] + v[i]
	}
	return out
}

// SubVec returns u-v elementwise, mod 2^64.
func SubVec(u, v []uint64) []uint64 {
	if len(u) != len(v) {
		panic(fmt.Sprintf("matrix: SubVec length mismatch %d vs %d", len(u), len(v)))
	}
	out := make([]uint64, len(u))
	for i := range u {
		out[i] = u[i] - v[i]
	}
	return out
}

// Sum returns the modular sum of v's entries.
func Sum(v []uint64) uint64 {
	var sum uint64
	for _, x := range v {
		sum += x
	}
	return sum
}

// NewRandom returns a ChaCha8-backed random source seeded with seed. Callers
// in production should seed from crypto/rand (see RandomSeed); tests fix a
// deterministic seed to make property tests reproducible, per spec's
// "ambient randomness" re-architecture note: the source is always passed in
// explicitly, never read from a package-global generator.
func NewRandom(seed [32]byte) *rand.Rand {
	return rand.New(rand.NewChaCha8(seed))
}

// RandomSeed draws a fresh 32-byte seed from the operating system's
// cryptographic entropy source, for production callers of NewRandom.
func RandomSeed() ([32]byte, error) {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("matrix: reading random seed: %w", err)
	}
	return seed, nil
}

// Uniform returns a rows-by-cols matrix with entries drawn uniformly from
// [0, 2^64).
func Uniform(rng *rand.Rand, rows, cols uint64) *Matrix {
	out := New(rows, cols)
	for i := range out.data {
		out.data[i] = rng.Uint64()
	}
	return out
}

// UniformVec returns a length-n vector with entries drawn uniformly from
// [0, 2^64).
func UniformVec(rng *rand.Rand, n uint64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = rng.Uint64()
	}
	return out
}

// GaussianVec returns a length-n vector of independent samples from the
// centered, bounded discrete Gaussian described by GaussSample.
func GaussianVec(rng *rand.Rand, n uint64, stdDev float64, bound int64) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(GaussSample(rng, stdDev, bound))
	}
	return out
}

// GaussSample draws a centered discrete Gaussian error term with the given
// standard deviation, rejecting (redrawing) any sample whose magnitude
// exceeds bound. The result is returned as a value in [0, 2^64) — a negative
// sample e is returned as uint64(e), i.e. q+e, which is exactly what the LWE
// arithmetic below expects since all addition is mod q.
//
// This resolves spec.md's open question about the reference sampler
// (`int(N(0, std_dev)) % 8`, which clamps to [0, 8) rather than centering at
// zero): here the distribution is genuinely centered on zero and bounded by
// rejection, which is what the correctness condition m*(p-1)*B < Delta/2
// assumes.
func GaussSample(rng *rand.Rand, stdDev float64, bound int64) int64 {
	for {
		e := int64(math.Round(rng.NormFloat64() * stdDev))
		if e >= -bound && e <= bound {
			return e
		}
	}
}
