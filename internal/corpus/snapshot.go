// Package corpus loads a document collection and its embeddings bundle
// from disk and turns them into the pair of SimplePIR databases the
// service answers queries against.
package corpus

import (
	"math/rand/v2"

	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/simplepir"
)

// Snapshot is the immutable, atomically-published view of the corpus: two
// independent PIR instances (embeddings, documents) plus the public
// metadata the client needs for local nearest-neighbor. A rebuild produces
// a new Snapshot; readers hold whichever one they fetched for as long as
// they need it — nothing here is ever mutated in place.
type Snapshot struct {
	Epoch uint64

	ParamsEmb *simplepir.Params
	HEmb      *matrix.Matrix
	DBEmb     *simplepir.Database

	ParamsDoc *simplepir.Params
	HDoc      *matrix.Matrix
	DBDoc     *simplepir.Database

	Centroids [][]float64
	Metadata  Metadata
	N         uint64
}

// Build assembles a Snapshot from a loaded Bundle, generating fresh public
// parameters for both the embeddings and documents databases. rng supplies
// all randomness (A matrices); callers should seed it from
// matrix.RandomSeed in production.
func Build(rng *rand.Rand, epoch uint64, bundle *Bundle) (*Snapshot, error) {
	embParams, err := simplepir.GenParamsDefault(rng, bundle.Embeddings.Rows())
	if err != nil {
		return nil, err
	}
	embDB := simplepir.NewDatabase(bundle.Embeddings)
	embHint := simplepir.GenHint(embParams, embDB)

	docParams, err := simplepir.GenParamsDefault(rng, bundle.Documents.Rows())
	if err != nil {
		return nil, err
	}
	docDB := simplepir.NewDatabase(bundle.Documents)
	docHint := simplepir.GenHint(docParams, docDB)

	return &Snapshot{
		Epoch:     epoch,
		ParamsEmb: embParams,
		HEmb:      embHint,
		DBEmb:     embDB,
		ParamsDoc: docParams,
		HDoc:      docHint,
		DBDoc:     docDB,
		Centroids: bundle.Centroids,
		Metadata:  bundle.Metadata,
		N:         uint64(len(bundle.Metadata.Articles)),
	}, nil
}
