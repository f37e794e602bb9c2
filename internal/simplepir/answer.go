package simplepir

import "github.com/exo-explore/private-search/internal/matrix"

// Answer computes the server's response to a query ciphertext: DB^T * c_q
// mod q, length m. Each component is an LWE encryption of DB[i, j] under
// the client's secret, with noise linear in the DB entries.
//
// Fails with *ProtocolError if cq's length does not match the database's
// row count, rather than panicking deep inside the mat-vec — a malformed
// query must close only the session that sent it.
func Answer(cq []uint64, db *Database) ([]uint64, error) {
	if uint64(len(cq)) != db.M.Rows() {
		return nil, &ProtocolError{Msg: "query ciphertext length does not match database row count"}
	}
	return matrix.MatVec(db.T, cq), nil
}
