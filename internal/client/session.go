// Package client implements the PIR client side: a session per endpoint
// pair that caches public parameters and hints, turns an index into a
// query/answer round-trip, and performs local nearest-neighbor search over
// the publicly downloaded embedding matrix.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/exo-explore/private-search/internal/codec"
	"github.com/exo-explore/private-search/internal/corpus"
	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/service"
	"github.com/exo-explore/private-search/internal/simplepir"
)

// Session holds one client's view of both endpoints: the params/hint pair
// for each, plus the public embeddings/centroids/metadata downloaded at
// setup. Safe for concurrent retrievals; Refresh replaces the cached
// public data atomically under a single mutex (the client has no
// equivalent of the server's epoch-tagged snapshot, since it only ever
// needs the most recent view).
type Session struct {
	http *http.Client
	rng  *rand.Rand
	log  *slog.Logger
	id   uuid.UUID

	embeddingURL string
	articleURL   string

	mu sync.RWMutex

	embParams  *simplepir.Params
	embHint    *matrix.Matrix
	embEpoch   uint64
	embeddings *matrix.Matrix
	centroids  [][]float64
	metadata   corpus.Metadata

	docParams *simplepir.Params
	docHint   *matrix.Matrix
	docEpoch  uint64
	numDocs   uint64
}

// New builds a Session against the given endpoint base URLs. rng supplies
// all client-side randomness (secrets, query errors); production callers
// should seed it via matrix.RandomSeed.
func New(embeddingURL, articleURL string, rng *rand.Rand, log *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		http:         http.DefaultClient,
		rng:          rng,
		log:          log.With("session_id", id),
		id:           id,
		embeddingURL: embeddingURL,
		articleURL:   articleURL,
	}
}

// ID returns the session's identifier, sent as the X-Session-Id header on
// every request so server-side logs can be correlated back to a single
// client across the setup/query/refresh round-trips.
func (s *Session) ID() uuid.UUID { return s.id }

// Connect downloads both endpoints' setup messages and caches their
// params/hints for the lifetime of the session.
func (s *Session) Connect(ctx context.Context) error {
	var embSetup service.EmbeddingSetupResponse
	if err := s.getJSON(ctx, s.embeddingURL+"/embedding/setup", &embSetup); err != nil {
		return fmt.Errorf("client: fetching embedding setup: %w", err)
	}
	var artSetup service.ArticleSetupResponse
	if err := s.getJSON(ctx, s.articleURL+"/article/setup", &artSetup); err != nil {
		return fmt.Errorf("client: fetching article setup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.embParams = wireToParams(embSetup.Params)
	s.embHint = rowsToMatrix(embSetup.Hint)
	s.embEpoch = embSetup.Epoch
	s.embeddings = rowsToMatrix(embSetup.Embeddings)
	s.centroids = embSetup.Centroids
	s.metadata = embSetup.Metadata

	s.docParams = wireToParams(artSetup.Params)
	s.docHint = rowsToMatrix(artSetup.Hint)
	s.docEpoch = artSetup.Epoch
	s.numDocs = artSetup.NumArticles

	return nil
}

// RetrieveEmbedding runs one PIR round-trip against the embeddings
// endpoint for row i and returns the recovered (quantised) embedding.
func (s *Session) RetrieveEmbedding(ctx context.Context, i uint64) ([]uint64, error) {
	s.mu.RLock()
	params, hint, epoch := s.embParams, s.embHint, s.embEpoch
	s.mu.RUnlock()

	return s.retrieve(ctx, s.embeddingURL+"/embedding/query", params, hint, epoch, i)
}

// RetrieveDocument runs one PIR round-trip against the documents endpoint
// for row i, decodes it via the text/matrix codec, and returns the string.
// Fails with *simplepir.BoundsError if i is out of [0, N) — enforced
// client-side, before any request is sent.
func (s *Session) RetrieveDocument(ctx context.Context, i uint64) (string, error) {
	s.mu.RLock()
	params, hint, epoch, n := s.docParams, s.docHint, s.docEpoch, s.numDocs
	s.mu.RUnlock()

	if i >= n {
		return "", &simplepir.BoundsError{Index: i, Limit: n}
	}

	row, err := s.retrieve(ctx, s.articleURL+"/article/query", params, hint, epoch, i)
	if err != nil {
		return "", err
	}

	decoded := matrix.New(1, uint64(len(row)))
	decoded.SetRow(0, row)
	return codec.DecodeRow(decoded, 0)
}

func (s *Session) retrieve(ctx context.Context, url string, params *simplepir.Params, hint *matrix.Matrix, epoch, i uint64) ([]uint64, error) {
	// s.rng is not safe for concurrent use; draw the query under the lock.
	s.mu.Lock()
	secret, cq, err := simplepir.Query(s.rng, i, params)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(service.QueryRequest{Epoch: epoch, Query: cq})
	if err != nil {
		return nil, fmt.Errorf("client: encoding query: %w", err)
	}

	var resp service.AnswerResponse
	if err := s.postJSON(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}

	return simplepir.RecoverRow(secret, hint, resp.Answer, cq, params), nil
}

// FindClosestEmbedding returns argmin_i ||queryEmbedding - embeddings[i]||
// over the publicly downloaded embedding matrix — no PIR round-trip
// needed, since the matrix was already fetched in full at setup.
func (s *Session) FindClosestEmbedding(queryEmbedding []float64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.embeddings == nil {
		return 0, fmt.Errorf("client: session not connected")
	}

	d := len(queryEmbedding)
	best := uint64(0)
	bestDist := -1.0

	for i := uint64(0); i < s.embeddings.Rows(); i++ {
		row := s.embeddings.Row(i)
		candidate := make([]float64, d)
		for j := 0; j < d && j < len(row); j++ {
			candidate[j] = float64(row[j])
		}
		dist := floats.Distance(candidate, queryEmbedding, 2)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best, nil
}

// Refresh re-downloads the embeddings endpoint's bulk public data — not a
// PIR query, just a fetch of whatever centroids/metadata/embeddings are
// currently live.
func (s *Session) Refresh(ctx context.Context) error {
	var resp service.UpdateResponse
	body, err := json.Marshal(service.UpdateRequest{Type: "update"})
	if err != nil {
		return fmt.Errorf("client: encoding refresh request: %w", err)
	}
	if err := s.postJSON(ctx, s.embeddingURL+"/embedding/update", body, &resp); err != nil {
		return fmt.Errorf("client: refreshing public data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = rowsToMatrix(resp.Embeddings)
	s.centroids = resp.Centroids
	s.metadata = resp.Metadata
	return nil
}

func (s *Session) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return s.do(req, v)
}

func (s *Session) postJSON(ctx context.Context, url string, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, v)
}

func (s *Session) do(req *http.Request, v any) error {
	req.Header.Set("X-Session-Id", s.id.String())
	resp, err := s.http.Do(req)
	if err != nil {
		return &simplepir.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return &simplepir.SnapshotChangedError{Msg: "server reports the session's snapshot epoch is no longer live"}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return &simplepir.ProtocolError{Msg: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func rowsToMatrix(rows [][]uint64) *matrix.Matrix {
	if len(rows) == 0 {
		return matrix.New(0, 0)
	}
	m := matrix.New(uint64(len(rows)), uint64(len(rows[0])))
	for i, row := range rows {
		m.SetRow(uint64(i), row)
	}
	return m
}

func wireToParams(p service.ParamsWire) *simplepir.Params {
	return &simplepir.Params{
		N:      p.N,
		M:      p.M,
		P:      p.P,
		L:      uint64(bits.TrailingZeros64(p.P)),
		StdDev: p.StdDev,
		Bound:  simplepir.DefaultBound,
		A:      rowsToMatrix(p.A),
	}
}
