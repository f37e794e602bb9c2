package simplepir

import "github.com/exo-explore/private-search/internal/matrix"

// GenHint shifts db by -floor(p/2) mod q (re-centering the unsigned
// plaintexts around zero) and returns A^T * db_shifted mod q, shape
// n-by-m. The hint is a pure function of (Params, db): calling it twice
// on the same inputs yields identical matrices.
//
// The offset is -floor(p/2), not Delta*floor(p/2): Recover's shift term
// (p/2)*sum(c_q) only cancels against a per-entry offset of that size.
func GenHint(params *Params, db *Database) *matrix.Matrix {
	offset := -(params.P / 2)

	shifted := matrix.New(db.M.Rows(), db.M.Cols())
	for i := uint64(0); i < db.M.Rows(); i++ {
		row := db.M.Row(i)
		for j := range row {
			row[j] += offset
		}
		shifted.SetRow(i, row)
	}

	return matrix.MatMul(params.A.Transpose(), shifted)
}
