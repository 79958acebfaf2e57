package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veritract/contract-verification/internal/config"
	"github.com/veritract/contract-verification/internal/server"
	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/cose"
	"github.com/veritract/contract-verification/pkg/merkle"
)

const (
	contractV1 = `Clause 1: The buyer agrees to pay in full within 30 days.
Clause 2: The seller provides a 1-year warranty.
Clause 3: All disputes will be settled in California.`

	contractV2 = `Clause 1: The buyer agrees to pay in full within 30 days.
Clause 2: The seller provides a 2-year warranty.
Clause 3: All disputes will be settled in California.`
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	dir := t.TempDir()

	keyPair, err := cose.GenerateES256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate key pair: %v", err)
	}

	pem, err := cose.ExportPrivateKeyToPEM(keyPair.Private)
	if err != nil {
		t.Fatalf("failed to export private key: %v", err)
	}
	privatePath := filepath.Join(dir, "service-key.pem")
	if err := os.WriteFile(privatePath, []byte(pem), 0600); err != nil {
		t.Fatalf("failed to write private key: %v", err)
	}

	jwk, err := cose.ExportPublicKeyToJWK(keyPair.Public)
	if err != nil {
		t.Fatalf("failed to export public key: %v", err)
	}
	jwkData, err := cose.MarshalJWK(jwk)
	if err != nil {
		t.Fatalf("failed to marshal JWK: %v", err)
	}
	publicPath := filepath.Join(dir, "service-key.jwk")
	if err := os.WriteFile(publicPath, jwkData, 0644); err != nil {
		t.Fatalf("failed to write public key: %v", err)
	}

	cfg := &config.Config{
		Origin: "veritract-test",
		Database: config.DatabaseConfig{
			Path:      filepath.Join(dir, "veritract.db"),
			EnableWAL: true,
		},
		Storage: config.StorageConfig{
			Type: "memory",
		},
		Keys: config.KeysConfig{
			Private: privatePath,
			Public:  publicPath,
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
			CORS: config.CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
			},
		},
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("failed to close server: %v", err)
		}
	})

	return srv
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCompareEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postJSON(t, handler, "/compare", map[string]string{
		"label":       "warranty change",
		"contract_v1": contractV1,
		"contract_v2": contractV2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		ComparisonID int64 `json:"comparison_id"`
		Comparison   struct {
			Equal         bool   `json:"equal"`
			RootV1        string `json:"root_v1"`
			RootV2        string `json:"root_v2"`
			ClauseCountV1 int    `json:"clause_count_v1"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.ComparisonID == 0 {
		t.Error("expected non-zero comparison ID")
	}
	if result.Comparison.Equal {
		t.Error("expected contracts to differ")
	}
	if result.Comparison.ClauseCountV1 != 3 {
		t.Errorf("expected 3 clauses, got %d", result.Comparison.ClauseCountV1)
	}

	// GET /comparisons/{id} returns the stored snapshots.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/comparisons/%d", result.ComparisonID), nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec2.Code, rec2.Body.String())
	}

	var detail struct {
		ContractV1 string `json:"contract_v1"`
		ContractV2 string `json:"contract_v2"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode detail: %v", err)
	}
	if detail.ContractV1 != contractV1 || detail.ContractV2 != contractV2 {
		t.Error("stored snapshots do not match input")
	}
}

func TestComparisonNotFound(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/comparisons/42", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/comparisons/not-a-number", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListComparisonsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	for i := 0; i < 3; i++ {
		rec := postJSON(t, handler, "/compare", map[string]string{
			"contract_v1": contractV1,
			"contract_v2": contractV2,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/comparisons?limit=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var listing struct {
		Comparisons []json.RawMessage `json:"comparisons"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing.Comparisons) != 2 {
		t.Errorf("expected 2 comparisons, got %d", len(listing.Comparisons))
	}
}

func TestProofEndpoints(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := postJSON(t, handler, "/proofs", map[string]interface{}{
		"contract":     contractV1,
		"clause_index": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var bundle merkle.ProofBundle
	if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
		t.Fatalf("failed to decode bundle: %v", err)
	}
	doc := contract.NewDocument(contractV1)
	if bundle.Root != doc.Root() {
		t.Error("bundle root does not match document root")
	}

	rec = postJSON(t, handler, "/proofs/verify", bundle)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var verdict struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("failed to decode verdict: %v", err)
	}
	if !verdict.Valid {
		t.Error("expected proof to verify")
	}

	// Tampered bundle still answers 200 with valid=false.
	bundle.Target = merkle.HashClause("tampered")
	rec = postJSON(t, handler, "/proofs/verify", bundle)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("failed to decode verdict: %v", err)
	}
	if verdict.Valid {
		t.Error("expected tampered proof to fail")
	}

	rec = postJSON(t, handler, "/proofs", map[string]interface{}{
		"contract":     contractV1,
		"clause_index": 99,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range index, got %d", rec.Code)
	}
}

func TestAttestationEndpoints(t *testing.T) {
	handler := newTestServer(t).Handler()

	doc := contract.NewDocument(contractV1)

	rec := postJSON(t, handler, "/attestation", map[string]interface{}{
		"root":         doc.Root(),
		"clause_count": len(doc.Clauses),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), doc.Root()) {
		t.Error("attestation note should contain the root")
	}

	att, err := merkle.DecodeAttestation(rec.Body.String())
	if err != nil {
		t.Fatalf("failed to decode attestation note: %v", err)
	}
	if att.Origin != "veritract-test" {
		t.Errorf("unexpected origin: %s", att.Origin)
	}

	req := httptest.NewRequest(http.MethodGet, "/attestation?root="+doc.Root(), nil)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec2.Code)
	}
	if rec2.Body.String() != rec.Body.String() {
		t.Error("stored attestation note differs from created one")
	}

	req = httptest.NewRequest(http.MethodGet, "/attestation?root="+merkle.HashClause("unknown"), nil)
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req)
	if rec3.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec3.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var health struct {
		Status string `json:"status"`
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("unexpected status: %s", health.Status)
	}
	if health.Origin != "veritract-test" {
		t.Errorf("unexpected origin: %s", health.Origin)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/compare", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard CORS origin header")
	}
}
