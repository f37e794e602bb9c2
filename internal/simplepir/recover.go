package simplepir

import "github.com/exo-explore/private-search/internal/matrix"

// Recover decrypts a single answer component c_a_j against hint column
// H_col, recovering DB[i, j] for the row i that Query selected — provided
// the accumulated noise stays within the Delta/2 correctness bound.
// Recover itself never fails: with parameters chosen per the correctness
// condition it is deterministic and exact; with parameters too tight for
// the database it silently returns a wrong value (see NoiseOverflowError,
// raised by callers that can cross-check against a known plaintext field).
func Recover(secret *Secret, hCol []uint64, caJ uint64, cq []uint64, params *Params) uint64 {
	hintTerm := matrix.Dot(secret.S, hCol)
	shift := (params.P / 2) * matrix.Sum(cq)
	noised := caJ - shift - hintTerm

	delta := params.Delta()
	denoised := (noised + delta/2) / delta
	denoised %= params.P

	return (denoised - params.P/2) % params.P
}

// RecoverRow applies Recover once per column of H, reusing secret, cq, and
// params while stepping the hint column and answer component together.
func RecoverRow(secret *Secret, h *matrix.Matrix, ca []uint64, cq []uint64, params *Params) []uint64 {
	row := make([]uint64, h.Cols())
	for j := range row {
		row[j] = Recover(secret, h.Col(uint64(j)), ca[j], cq, params)
	}
	return row
}
