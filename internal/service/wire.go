// Package service exposes the two PIR endpoints (embeddings, documents) as
// HTTP/JSON servers: bulk setup once per session, then repeated
// query/answer rounds against whichever corpus snapshot the session was
// set up against.
package service

import "github.com/exo-explore/private-search/internal/corpus"

// ParamsWire is the public half of simplepir.Params sent to clients. A is
// included in full, the HTTP/JSON transport's simpler option per spec.md's
// design note (the TCP variant's seed-based transmission is left for a
// bandwidth-sensitive deployment to add later).
type ParamsWire struct {
	N      uint64     `json:"n"`
	M      uint64     `json:"m"`
	P      uint64     `json:"p"`
	StdDev float64    `json:"std_dev"`
	A      [][]uint64 `json:"a"`
}

// EmbeddingSetupResponse is the embeddings endpoint's bulk setup message.
type EmbeddingSetupResponse struct {
	Epoch      uint64          `json:"epoch"`
	Params     ParamsWire      `json:"params"`
	Hint       [][]uint64      `json:"hint"`
	Embeddings [][]uint64      `json:"embeddings"`
	Centroids  [][]float64     `json:"centroids"`
	Metadata   corpus.Metadata `json:"metadata"`
}

// ArticleSetupResponse is the documents endpoint's bulk setup message.
type ArticleSetupResponse struct {
	Epoch       uint64     `json:"epoch"`
	Params      ParamsWire `json:"params"`
	Hint        [][]uint64 `json:"hint"`
	NumArticles uint64     `json:"num_articles"`
}

// QueryRequest carries a single query ciphertext.
type QueryRequest struct {
	Epoch uint64   `json:"epoch"`
	Query []uint64 `json:"query"`
}

// AnswerResponse carries the server's answer ciphertext.
type AnswerResponse struct {
	Answer []uint64 `json:"answer"`
}

// UpdateRequest is the embeddings endpoint's refresh request.
type UpdateRequest struct {
	Type string `json:"type"`
}

// UpdateResponse is the refresh reply: the same bulk public data sent at
// setup, re-read from whatever the live snapshot is at the time of the
// request.
type UpdateResponse struct {
	Epoch      uint64          `json:"epoch"`
	Embeddings [][]uint64      `json:"embeddings"`
	Centroids  [][]float64     `json:"centroids"`
	Metadata   corpus.Metadata `json:"metadata"`
}

// HealthResponse reports service liveness for GET /healthz.
type HealthResponse struct {
	Epoch    uint64 `json:"epoch"`
	Articles uint64 `json:"articles"`
}
