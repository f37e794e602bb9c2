package service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exo-explore/private-search/internal/corpus"
	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/simplepir"
)

func testSnapshot(t *testing.T) *corpus.Snapshot {
	t.Helper()
	var seed [32]byte
	seed[0] = 11
	rng := matrix.NewRandom(seed)

	const m = 16
	embParams, err := simplepir.GenParams(rng, m, simplepir.DefaultN, simplepir.DefaultL)
	require.NoError(t, err)
	raw := matrix.Uniform(rng, m, m)
	for i := uint64(0); i < m; i++ {
		row := raw.Row(i)
		for j := range row {
			row[j] %= embParams.P
		}
		raw.SetRow(i, row)
	}
	embDB := simplepir.NewDatabase(raw)
	embHint := simplepir.GenHint(embParams, embDB)

	docParams, err := simplepir.GenParams(rng, m, simplepir.DefaultN, simplepir.DefaultL)
	require.NoError(t, err)
	docDB := simplepir.NewDatabase(embDB.M.Copy())
	docHint := simplepir.GenHint(docParams, docDB)

	return &corpus.Snapshot{
		Epoch:     1,
		ParamsEmb: embParams,
		HEmb:      embHint,
		DBEmb:     embDB,
		ParamsDoc: docParams,
		HDoc:      docHint,
		DBDoc:     docDB,
		Centroids: [][]float64{{1, 2}},
		Metadata:  corpus.Metadata{},
		N:         3,
	}
}

func testServer(t *testing.T) (*Server, *corpus.Store) {
	t.Helper()
	snap := testSnapshot(t)
	store := corpus.NewStore(t.TempDir(), 1<<17, snap)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(store, log, "127.0.0.1:0", "127.0.0.1:0"), store
}

func TestHealthzReportsEpochAndArticleCount(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint64(1), body.Epoch)
	require.Equal(t, uint64(3), body.Articles)
}

func TestEmbeddingSetupAndQueryRoundTrip(t *testing.T) {
	srv, store := testServer(t)

	setupReq := httptest.NewRequest(http.MethodGet, "/embedding/setup", nil)
	setupRec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(setupRec, setupReq)
	require.Equal(t, http.StatusOK, setupRec.Code)

	var setup EmbeddingSetupResponse
	require.NoError(t, json.Unmarshal(setupRec.Body.Bytes(), &setup))

	params := &simplepir.Params{
		N: setup.Params.N, M: setup.Params.M, P: setup.Params.P,
		L: simplepir.DefaultL, StdDev: setup.Params.StdDev, Bound: simplepir.DefaultBound,
	}
	a := matrix.New(uint64(len(setup.Params.A)), uint64(len(setup.Params.A[0])))
	for i, row := range setup.Params.A {
		a.SetRow(uint64(i), row)
	}
	params.A = a

	var seed [32]byte
	seed[0] = 99
	rng := matrix.NewRandom(seed)
	secret, cq, err := simplepir.Query(rng, 2, params)
	require.NoError(t, err)

	body, err := json.Marshal(QueryRequest{Epoch: setup.Epoch, Query: cq})
	require.NoError(t, err)

	queryReq := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(body))
	queryRec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(queryRec, queryReq)
	require.Equal(t, http.StatusOK, queryRec.Code)

	var answer AnswerResponse
	require.NoError(t, json.Unmarshal(queryRec.Body.Bytes(), &answer))

	h := matrix.New(uint64(len(setup.Hint)), uint64(len(setup.Hint[0])))
	for i, row := range setup.Hint {
		h.SetRow(uint64(i), row)
	}

	row := simplepir.RecoverRow(secret, h, answer.Answer, cq, params)
	snap := store.Current()
	require.Equal(t, snap.DBEmb.M.Row(2), row)
}

func TestQueryRejectsStaleEpoch(t *testing.T) {
	srv, _ := testServer(t)
	body, err := json.Marshal(QueryRequest{Epoch: 999, Query: make([]uint64, 16)})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueryRejectsMalformedLength(t *testing.T) {
	srv, _ := testServer(t)
	body, err := json.Marshal(QueryRequest{Epoch: 1, Query: []uint64{1, 2, 3}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestMalformedQueryDoesNotAffectConcurrentSession checks that one
// session's malformed request can't disturb another session's in-flight
// query against the same server — the store is read-only from a
// handler's point of view, so there is no shared mutable state a bad
// request could corrupt.
func TestMalformedQueryDoesNotAffectConcurrentSession(t *testing.T) {
	srv, store := testServer(t)
	snap := store.Current()

	params := snap.ParamsEmb
	var seed [32]byte
	seed[0] = 50
	rng := matrix.NewRandom(seed)
	secret, cq, err := simplepir.Query(rng, 4, params)
	require.NoError(t, err)

	badBody, err := json.Marshal(QueryRequest{Epoch: 1, Query: []uint64{1}})
	require.NoError(t, err)
	badReq := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(badBody))
	badRec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(badRec, badReq)
	require.Equal(t, http.StatusBadRequest, badRec.Code)

	goodBody, err := json.Marshal(QueryRequest{Epoch: 1, Query: cq})
	require.NoError(t, err)
	goodReq := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(goodBody))
	goodRec := httptest.NewRecorder()
	srv.embeddingSrv.Handler.ServeHTTP(goodRec, goodReq)
	require.Equal(t, http.StatusOK, goodRec.Code)

	var answer AnswerResponse
	require.NoError(t, json.Unmarshal(goodRec.Body.Bytes(), &answer))
	row := simplepir.RecoverRow(secret, snap.HEmb, answer.Answer, cq, params)
	require.Equal(t, snap.DBEmb.M.Row(4), row)
}

// TestConcurrentSessionsRetrieveDistinctRows runs two sessions' full
// query/answer/recover round trips against the same server concurrently,
// each for a different row, and checks neither sees the other's result.
func TestConcurrentSessionsRetrieveDistinctRows(t *testing.T) {
	srv, store := testServer(t)
	snap := store.Current()
	params := snap.ParamsEmb

	run := func(rowSeed byte, index uint64) []uint64 {
		var seed [32]byte
		seed[0] = rowSeed
		rng := matrix.NewRandom(seed)
		secret, cq, err := simplepir.Query(rng, index, params)
		require.NoError(t, err)

		body, err := json.Marshal(QueryRequest{Epoch: 1, Query: cq})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/embedding/query", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.embeddingSrv.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var answer AnswerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
		return simplepir.RecoverRow(secret, snap.HEmb, answer.Answer, cq, params)
	}

	var rowA, rowB []uint64
	done := make(chan struct{}, 2)
	go func() { rowA = run(61, 0); done <- struct{}{} }()
	go func() { rowB = run(62, params.M-1); done <- struct{}{} }()
	<-done
	<-done

	require.Equal(t, snap.DBEmb.M.Row(0), rowA)
	require.Equal(t, snap.DBEmb.M.Row(params.M-1), rowB)
}
