package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/exo-explore/private-search/internal/corpus"
	"github.com/exo-explore/private-search/internal/simplepir"
)

// Server runs the two PIR endpoints as independent HTTP servers bound to
// distinct addresses, both reading from the same corpus store.
type Server struct {
	store *corpus.Store
	log   *slog.Logger

	embeddingAddr string
	articleAddr   string

	embeddingSrv *http.Server
	articleSrv   *http.Server
}

// NewServer builds the two chi routers (middleware.Logger,
// middleware.Recoverer, matching gno_cdn's router setup) and wires the
// routes spec.md §6 names for the HTTP/JSON transport, plus the healthz
// liveness probe.
func NewServer(store *corpus.Store, log *slog.Logger, embeddingAddr, articleAddr string) *Server {
	s := &Server{store: store, log: log, embeddingAddr: embeddingAddr, articleAddr: articleAddr}

	embeddingRouter := chi.NewRouter()
	embeddingRouter.Use(middleware.Logger)
	embeddingRouter.Use(middleware.Recoverer)
	embeddingRouter.Get("/embedding/setup", s.handleEmbeddingSetup)
	embeddingRouter.Post("/embedding/query", s.handleEmbeddingQuery)
	embeddingRouter.Post("/embedding/update", s.handleEmbeddingUpdate)
	embeddingRouter.Get("/healthz", s.handleHealthz)

	articleRouter := chi.NewRouter()
	articleRouter.Use(middleware.Logger)
	articleRouter.Use(middleware.Recoverer)
	articleRouter.Get("/article/setup", s.handleArticleSetup)
	articleRouter.Post("/article/query", s.handleArticleQuery)
	articleRouter.Get("/healthz", s.handleHealthz)

	s.embeddingSrv = &http.Server{Addr: embeddingAddr, Handler: embeddingRouter}
	s.articleSrv = &http.Server{Addr: articleAddr, Handler: articleRouter}
	return s
}

// EmbeddingHandler returns the embeddings endpoint's router, for tests
// that want to drive it directly (via httptest) without binding a port.
func (s *Server) EmbeddingHandler() http.Handler { return s.embeddingSrv.Handler }

// ArticleHandler returns the documents endpoint's router, for the same
// reason.
func (s *Server) ArticleHandler() http.Handler { return s.articleSrv.Handler }

// Run starts both servers and blocks until ctx is cancelled, at which
// point it shuts each down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.log.Info("embedding endpoint listening", "addr", s.embeddingAddr)
		if err := s.embeddingSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	go func() {
		s.log.Info("article endpoint listening", "addr", s.articleAddr)
		if err := s.articleSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.embeddingSrv.Shutdown(shutdownCtx)
	s.articleSrv.Shutdown(shutdownCtx)

	var err error
	for i := 0; i < 2; i++ {
		if e := <-errCh; e != nil {
			err = e
		}
	}
	return err
}

func (s *Server) handleEmbeddingSetup(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, EmbeddingSetupResponse{
		Epoch:      snap.Epoch,
		Params:     paramsToWire(snap.ParamsEmb),
		Hint:       matrixToRows(snap.HEmb),
		Embeddings: matrixToRows(snap.DBEmb.M),
		Centroids:  snap.Centroids,
		Metadata:   snap.Metadata,
	})
}

func (s *Server) handleArticleSetup(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, ArticleSetupResponse{
		Epoch:       snap.Epoch,
		Params:      paramsToWire(snap.ParamsDoc),
		Hint:        matrixToRows(snap.HDoc),
		NumArticles: snap.N,
	})
}

func (s *Server) handleEmbeddingQuery(w http.ResponseWriter, r *http.Request) {
	s.handleQuery(w, r, func(snap *corpus.Snapshot) *simplepir.Database { return snap.DBEmb })
}

func (s *Server) handleArticleQuery(w http.ResponseWriter, r *http.Request) {
	s.handleQuery(w, r, func(snap *corpus.Snapshot) *simplepir.Database { return snap.DBDoc })
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, pick func(*corpus.Snapshot) *simplepir.Database) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Error("malformed query body", "error", err)
		writeError(w, http.StatusBadRequest, "protocol_error", "malformed query body")
		return
	}

	sessionID := r.Header.Get("X-Session-Id")

	snap, ok := s.store.Lookup(req.Epoch)
	if !ok {
		s.log.Warn("rejecting stale epoch", "session_id", sessionID, "epoch", req.Epoch, "current_epoch", s.store.Current().Epoch)
		writeError(w, http.StatusConflict, "snapshot_changed", "session's snapshot epoch is no longer live; reconnect")
		return
	}

	ca, err := simplepir.Answer(req.Query, pick(snap))
	if err != nil {
		s.log.Error("query rejected", "session_id", sessionID, "error", err)
		writeError(w, http.StatusBadRequest, "protocol_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AnswerResponse{Answer: ca})
}

func (s *Server) handleEmbeddingUpdate(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, UpdateResponse{
		Epoch:      snap.Epoch,
		Embeddings: matrixToRows(snap.DBEmb.M),
		Centroids:  snap.Centroids,
		Metadata:   snap.Metadata,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	writeJSON(w, http.StatusOK, HealthResponse{Epoch: snap.Epoch, Articles: snap.N})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": kind, "message": msg})
}
