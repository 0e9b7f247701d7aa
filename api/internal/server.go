// Package api implements the read-only HTTP surface for inspecting
// farm and farmer state: it never drives a lifecycle operation, only
// renders the current on-ledger record as JSON.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solfarm/farming-go/farming"
)

// Reader is the read side of farming.Ledger the API needs: it never
// creates, closes, or mutates an account.
type Reader interface {
	LoadFarm(ctx context.Context, farm solana.PublicKey) (*farming.Farm, error)
	LoadFarmer(ctx context.Context, farmer solana.PublicKey) (*farming.Farmer, error)
	ProgramID() solana.PublicKey
}

const (
	farmCacheTTL   = 10 * time.Second
	farmerCacheTTL = 10 * time.Second
)

// ApiServer serves farm and farmer state as JSON over HTTP, with a
// read-through cache in front of the (potentially large) farmer
// lookup.
type ApiServer struct {
	ledger     Reader
	cache      *ristretto.Cache
	httpServer *http.Server
	logger     *slog.Logger
	listenAddr string
}

type Option func(*ApiServer)

// WithLedger sets the Reader the ApiServer serves state from.
func WithLedger(ledger Reader) Option {
	return func(s *ApiServer) {
		s.ledger = ledger
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *ApiServer) {
		s.logger = logger
	}
}

func WithListenAddr(addr string) Option {
	return func(s *ApiServer) {
		s.listenAddr = addr
	}
}

func NewApiServer(opts ...Option) (*ApiServer, error) {
	s := &ApiServer{
		logger:     slog.Default(),
		listenAddr: ":8080",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("Reader is required")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create farm/farmer cache: %w", err)
	}
	s.cache = cache

	return s, nil
}

func (s *ApiServer) handleGetFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := solana.PublicKeyFromBase58(r.PathValue("farm"))
	if err != nil {
		http.Error(w, "invalid farm pubkey", http.StatusBadRequest)
		return
	}

	if cached, ok := s.cache.Get(farm.String()); ok {
		writeJSON(w, cached)
		return
	}

	f, err := s.ledger.LoadFarm(r.Context(), farm)
	if err != nil {
		s.logger.Error("failed to load farm", "farm", farm, "error", err)
		http.Error(w, "farm not found", http.StatusNotFound)
		return
	}

	s.cache.SetWithTTL(farm.String(), f, 1, farmCacheTTL)
	s.cache.Wait()
	writeJSON(w, f)
}

func (s *ApiServer) handleGetFarmer(w http.ResponseWriter, r *http.Request) {
	farm, err := solana.PublicKeyFromBase58(r.PathValue("farm"))
	if err != nil {
		http.Error(w, "invalid farm pubkey", http.StatusBadRequest)
		return
	}
	authority, err := solana.PublicKeyFromBase58(r.PathValue("authority"))
	if err != nil {
		http.Error(w, "invalid authority pubkey", http.StatusBadRequest)
		return
	}

	key := farm.String() + "/" + authority.String()
	if cached, ok := s.cache.Get(key); ok {
		writeJSON(w, cached)
		return
	}

	farmerPDA, _, err := farming.DeriveFarmerPDA(s.ledger.ProgramID(), farm, authority)
	if err != nil {
		http.Error(w, "failed to derive farmer address", http.StatusInternalServerError)
		return
	}

	fr, err := s.ledger.LoadFarmer(r.Context(), farmerPDA)
	if err != nil {
		s.logger.Error("failed to load farmer", "farmer", farmerPDA, "error", err)
		http.Error(w, "farmer not found", http.StatusNotFound)
		return
	}

	s.cache.SetWithTTL(key, fr, 1, farmerCacheTTL)
	s.cache.Wait()
	writeJSON(w, fr)
}

func (s *ApiServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (s *ApiServer) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /farms/{farm}", s.handleGetFarm)
	mux.HandleFunc("GET /farms/{farm}/farmers/{authority}", s.handleGetFarmer)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: mux,
	}

	s.logger.Info("API server starting", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not listen on %s: %w", s.httpServer.Addr, err)
	}
	return nil
}

func (s *ApiServer) Shutdown() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
