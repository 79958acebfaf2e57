package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/veritract/contract-verification/internal/config"
	"github.com/veritract/contract-verification/internal/service"
	"github.com/veritract/contract-verification/pkg/merkle"
)

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	service *service.VerificationService
	mux     *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config) (*Server, error) {
	svc, err := service.NewVerificationService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification service: %w", err)
	}

	server := &Server{
		config:  cfg,
		service: svc,
		mux:     http.NewServeMux(),
	}

	server.registerRoutes()

	return server, nil
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/compare", s.handleCompare)
	s.mux.HandleFunc("/comparisons", s.handleComparisons)
	s.mux.HandleFunc("/comparisons/", s.handleComparisonByID)
	s.mux.HandleFunc("/proofs", s.handleProofs)
	s.mux.HandleFunc("/proofs/verify", s.handleProofVerify)
	s.mux.HandleFunc("/attestation", s.handleAttestation)

	// Health check
	s.mux.HandleFunc("/health", s.handleHealth)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	log.Printf("Starting contract verification service on %s", addr)

	handler := s.loggingMiddleware(s.corsMiddleware(s.mux))

	return http.ListenAndServe(addr, handler)
}

// Close closes the server and releases resources
func (s *Server) Close() error {
	return s.service.Close()
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.corsMiddleware(s.mux))
}

// handleCompare handles POST /compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.CompareContracts(&req)
	if err != nil {
		log.Printf("Failed to compare contracts: %v", err)
		http.Error(w, fmt.Sprintf("Failed to compare contracts: %v", err), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusCreated, result)
}

// handleComparisons handles GET /comparisons
func (s *Server) handleComparisons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := s.service.ListComparisons(limit)
	if err != nil {
		log.Printf("Failed to list comparisons: %v", err)
		http.Error(w, "Failed to list comparisons", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"comparisons": records,
	})
}

// handleComparisonByID handles GET /comparisons/{id}
func (s *Server) handleComparisonByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/comparisons/")
	comparisonID, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		http.Error(w, "Invalid comparison ID", http.StatusBadRequest)
		return
	}

	detail, err := s.service.GetComparison(comparisonID)
	if err != nil {
		log.Printf("Failed to get comparison: %v", err)
		http.Error(w, "Failed to get comparison", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "Comparison not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, detail)
}

// proofRequest is the body of POST /proofs
type proofRequest struct {
	Contract    string `json:"contract"`
	ClauseIndex int    `json:"clause_index"`
}

// handleProofs handles POST /proofs
func (s *Server) handleProofs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req proofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bundle, err := s.service.GenerateProof(req.Contract, req.ClauseIndex)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate proof: %v", err), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, bundle)
}

// handleProofVerify handles POST /proofs/verify
func (s *Server) handleProofVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var bundle merkle.ProofBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": s.service.VerifyProof(&bundle),
		"root":  bundle.Root,
	})
}

// attestRequest is the body of POST /attestation
type attestRequest struct {
	Root        string `json:"root"`
	ClauseCount int    `json:"clause_count"`
}

// handleAttestation handles GET /attestation?root=... and POST /attestation
func (s *Server) handleAttestation(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		root := r.URL.Query().Get("root")
		if root == "" {
			http.Error(w, "Missing root parameter", http.StatusBadRequest)
			return
		}

		att, err := s.service.GetAttestation(root)
		if err != nil {
			log.Printf("Failed to get attestation: %v", err)
			http.Error(w, "Failed to get attestation", http.StatusInternalServerError)
			return
		}
		if att == nil {
			http.Error(w, "Attestation not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(merkle.EncodeAttestation(att)))

	case http.MethodPost:
		var req attestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Root == "" {
			http.Error(w, "Missing root", http.StatusBadRequest)
			return
		}

		att, err := s.service.AttestRoot(req.Root, req.ClauseCount)
		if err != nil {
			log.Printf("Failed to attest root: %v", err)
			http.Error(w, "Failed to attest root", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(merkle.EncodeAttestation(att)))

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := s.service.GetStats()
	if err != nil {
		log.Printf("Failed to get stats: %v", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"origin":           stats.Origin,
		"comparison_count": stats.ComparisonCount,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// loggingMiddleware logs all HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers if configured
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Server.CORS.Enabled {
			if len(s.config.Server.CORS.AllowedOrigins) > 0 {
				origin := s.config.Server.CORS.AllowedOrigins[0]
				if origin == "*" {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					reqOrigin := r.Header.Get("Origin")
					for _, allowedOrigin := range s.config.Server.CORS.AllowedOrigins {
						if reqOrigin == allowedOrigin {
							w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
							break
						}
					}
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			// Handle preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
