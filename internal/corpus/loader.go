package corpus

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/exo-explore/private-search/internal/codec"
	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/simplepir"
)

// Bundle is the on-disk corpus after loading but before PIR parameters are
// generated for it: a quantised embeddings matrix, a packed documents
// matrix, public centroids, and metadata, with ordering already enforced
// between the three.
type Bundle struct {
	Embeddings *matrix.Matrix
	Documents  *matrix.Matrix
	Centroids  [][]float64
	Metadata   Metadata
}

// Load reads a corpus directory laid out as:
//
//	<dir>/embeddings/embeddings.json  — N x D array of values already
//	                                     quantised into [0, p)
//	<dir>/embeddings/centroids.json   — K x D array of cluster centroids
//	<dir>/embeddings/metadata.json    — { articles: [...], groups: [...] }
//	<dir>/<article filepaths>         — UTF-8 document text, referenced by
//	                                     metadata.articles[*].filepath
//
// This module uses JSON arrays rather than .npy for the embeddings bundle:
// no library in reach reads .npy, and JSON is what every HTTP endpoint in
// this system already speaks.
func Load(dir string, plaintextModulus uint64) (*Bundle, error) {
	var rawEmbeddings [][]float64
	if err := readJSON(filepath.Join(dir, "embeddings", "embeddings.json"), &rawEmbeddings); err != nil {
		return nil, err
	}
	var centroids [][]float64
	if err := readJSON(filepath.Join(dir, "embeddings", "centroids.json"), &centroids); err != nil {
		return nil, err
	}
	var metadata Metadata
	if err := readJSON(filepath.Join(dir, "embeddings", "metadata.json"), &metadata); err != nil {
		return nil, err
	}

	if err := checkOrdering(metadata, len(rawEmbeddings)); err != nil {
		return nil, err
	}

	embeddings, err := quantizedMatrix(rawEmbeddings, plaintextModulus)
	if err != nil {
		return nil, err
	}

	articles := make([]string, len(metadata.Articles))
	for _, a := range metadata.Articles {
		text, err := os.ReadFile(filepath.Join(dir, a.Filepath))
		if err != nil {
			return nil, &simplepir.ConfigError{Msg: fmt.Sprintf("reading article %q: %v", a.Filepath, err)}
		}
		articles[a.EmbeddingIndex] = string(text)
	}

	documents, err := codec.StringsToMatrix(articles)
	if err != nil {
		return nil, fmt.Errorf("corpus: packing documents: %w", err)
	}

	return &Bundle{
		Embeddings: embeddings,
		Documents:  documents,
		Centroids:  centroids,
		Metadata:   metadata,
	}, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return &simplepir.ConfigError{Msg: fmt.Sprintf("opening %q: %v", path, err)}
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return &simplepir.ConfigError{Msg: fmt.Sprintf("parsing %q: %v", path, err)}
	}
	return nil
}

// checkOrdering enforces that embedding row i belongs to the article whose
// metadata entry declares embedding_index == i, per spec's ordering
// invariant between embeddings and documents.
func checkOrdering(metadata Metadata, numEmbeddings int) error {
	seen := make([]bool, numEmbeddings)
	for _, a := range metadata.Articles {
		if a.EmbeddingIndex < 0 || a.EmbeddingIndex >= numEmbeddings {
			return &simplepir.ConfigError{Msg: fmt.Sprintf(
				"article %q declares embedding_index %d outside [0, %d)", a.Filepath, a.EmbeddingIndex, numEmbeddings)}
		}
		if seen[a.EmbeddingIndex] {
			return &simplepir.ConfigError{Msg: fmt.Sprintf(
				"embedding_index %d claimed by more than one article", a.EmbeddingIndex)}
		}
		seen[a.EmbeddingIndex] = true
	}
	return nil
}

// quantizedMatrix packs a raw N-by-D float embedding table into a square
// m-by-m integer matrix, m = ceil(sqrt(N*D)) raised to D and to N if too
// small, one embedding per row —
// the same square-packing rule C3 uses for text, since the embeddings
// matrix is itself a SimplePIR database. Every entry must already lie in
// [0, p): quantisation policy is an external concern, per spec.
func quantizedMatrix(rows [][]float64, p uint64) (*matrix.Matrix, error) {
	n := uint64(len(rows))
	if n == 0 {
		return nil, &simplepir.ConfigError{Msg: "embeddings bundle is empty"}
	}
	d := uint64(len(rows[0]))

	m := uint64(math.Ceil(math.Sqrt(float64(n) * float64(d))))
	if m < d {
		m = d
	}
	if m < n {
		m = n
	}

	out := matrix.New(m, m)
	for i, row := range rows {
		if uint64(len(row)) != d {
			return nil, &simplepir.ConfigError{Msg: fmt.Sprintf("embedding row %d has width %d, want %d", i, len(row), d)}
		}
		packed := make([]uint64, m)
		for j, v := range row {
			iv := int64(math.Round(v))
			if iv < 0 || uint64(iv) >= p {
				return nil, &simplepir.ConfigError{Msg: fmt.Sprintf("embedding[%d][%d] = %v outside quantised range [0, %d)", i, j, v, p)}
			}
			packed[j] = uint64(iv)
		}
		out.SetRow(uint64(i), packed)
	}
	return out, nil
}
