package simplepir

import "github.com/exo-explore/private-search/internal/matrix"

// Database wraps an m-by-m plaintext matrix together with its precomputed
// transpose, so the hot answer path (DB^T * c_q) is a row-major mat-vec
// rather than a fresh transpose per query. Both gen_hint (A^T * DB) and
// answer (DB^T * c_q) are pure mat-muls against values fixed at load time;
// the transpose is the one that is reused across every query, so it is
// computed once here instead of on each Answer call.
type Database struct {
	M *matrix.Matrix // the DB itself, entries in [0, p)
	T *matrix.Matrix // M.Transpose(), cached
}

// NewDatabase precomputes db's transpose once for reuse across every
// subsequent Answer call against it.
func NewDatabase(db *matrix.Matrix) *Database {
	return &Database{M: db, T: db.Transpose()}
}
