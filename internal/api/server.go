// Package api serves a read-only HTTP view of the origin chain.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"XyoCore/internal/boundwitness"
	"XyoCore/internal/hashing"
	"XyoCore/internal/logger"
	"XyoCore/internal/object"
)

// BlockReader loads stored blocks.
type BlockReader interface {
	GetOriginBlock(ctx context.Context, hash hashing.Hash) (*boundwitness.BoundWitness, error)
	OriginBlocksByPublicKey(ctx context.Context, key object.Object) ([]hashing.Hash, error)
}

// StatusProvider exposes the chain position for monitoring.
type StatusProvider interface {
	Status() Status
}

// Status is the body of GET /status.
type Status struct {
	Index        uint64   `json:"index"`
	PreviousHash string   `json:"previousHash,omitempty"`
	PublicKeys   []string `json:"publicKeys"`
	Active       bool     `json:"active"`
	Queued       int      `json:"queued"`
	Blocks       int      `json:"blocks"`
}

// Server is the HTTP API server.
type Server struct {
	addr    string           // addr is the HTTP listen address
	blocks  BlockReader      // blocks serves block lookups
	status  StatusProvider   // status provides the chain state
	objects *object.Registry // objects decodes path parameters
	hashes  *hashing.Registry
	server  *http.Server // server is the underlying HTTP server
	log     *slog.Logger
}

// New creates a server. status may be nil.
func New(addr string, blocks BlockReader, status StatusProvider, objects *object.Registry, hashes *hashing.Registry) *Server {
	return &Server{
		addr:    addr,
		blocks:  blocks,
		status:  status,
		objects: objects,
		hashes:  hashes,
		log:     logger.Component("api"),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /blocks/{hash}", s.handleBlock)
	mux.HandleFunc("GET /keys/{key}/blocks", s.handleKeyBlocks)
	return mux
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info("http api started", "addr", s.addr)

		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleStatus handles GET /status requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeError(w, http.StatusServiceUnavailable, "status not available")
		return
	}

	writeJSON(w, http.StatusOK, s.status.Status())
}

// handleBlock handles GET /blocks/{hash}. With ?format=raw the canonical
// encoding is returned instead of JSON.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	hash, err := parseHash(s.objects, s.hashes, r.PathValue("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bw, err := s.blocks.GetOriginBlock(r.Context(), hash)
	if err != nil {
		s.log.Warn("load block", "hash", hash, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load block")
		return
	}

	if bw == nil {
		writeError(w, http.StatusNotFound, "block not found")
		return
	}

	if r.URL.Query().Get("format") == "raw" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(bw.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, s.describe(hash, bw))
}

// handleKeyBlocks handles GET /keys/{key}/blocks.
func (s *Server) handleKeyBlocks(w http.ResponseWriter, r *http.Request) {
	key, err := parsePublicKey(s.objects, r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hashes, err := s.blocks.OriginBlocksByPublicKey(r.Context(), key)
	if err != nil {
		s.log.Warn("lookup key blocks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list blocks")
		return
	}

	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = hex.EncodeToString(h.Bytes())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"blocks": out,
	})
}

// blockView is the JSON form of a block.
type blockView struct {
	Hash    string      `json:"hash"`
	Parties []partyView `json:"parties"`
}

type partyView struct {
	PublicKeys []string   `json:"publicKeys"`
	Signed     []itemView `json:"signed"`
	Unsigned   []itemView `json:"unsigned,omitempty"`
	Signatures []string   `json:"signatures"`
}

type itemView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *Server) describe(hash hashing.Hash, bw *boundwitness.BoundWitness) blockView {
	view := blockView{Hash: hex.EncodeToString(hash.Bytes())}

	for i := range bw.Parties() {
		var p partyView

		for _, k := range bw.KeySet(i) {
			p.PublicKeys = append(p.PublicKeys, hex.EncodeToString(k.Bytes()))
		}

		payload := bw.Payload(i)
		for _, item := range payload.Signed {
			p.Signed = append(p.Signed, s.item(item))
		}
		for _, item := range payload.Unsigned {
			p.Unsigned = append(p.Unsigned, s.item(item))
		}

		for _, sig := range bw.SignatureSet(i) {
			p.Signatures = append(p.Signatures, hex.EncodeToString(sig.Bytes()))
		}

		view.Parties = append(view.Parties, p)
	}

	return view
}

func (s *Server) item(o object.Object) itemView {
	return itemView{Type: s.objects.Name(o.Schema()), Value: hex.EncodeToString(o.Bytes())}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
