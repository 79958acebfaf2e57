package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veritract/contract-verification/internal/cli"
	"github.com/veritract/contract-verification/pkg/contract"
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

// execute runs the CLI with the given args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand("test", "none", "none")
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeContracts(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	pathV1 := filepath.Join(dir, "v1.txt")
	pathV2 := filepath.Join(dir, "v2.txt")
	if err := os.WriteFile(pathV1, []byte(contractV1), 0644); err != nil {
		t.Fatalf("failed to write contract v1: %v", err)
	}
	if err := os.WriteFile(pathV2, []byte(contractV2), 0644); err != nil {
		t.Fatalf("failed to write contract v2: %v", err)
	}
	return pathV1, pathV2
}

func TestCompareCommand(t *testing.T) {
	pathV1, pathV2 := writeContracts(t)

	out, err := execute(t, "compare", pathV1, pathV2)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	if !strings.Contains(out, "Full Contract Match: false") {
		t.Errorf("expected mismatch verdict, got:\n%s", out)
	}
	if !strings.Contains(out, "Clause 1: ✓ Match") {
		t.Errorf("expected clause 1 match, got:\n%s", out)
	}
	if !strings.Contains(out, "Clause 2: ✗ Difference") {
		t.Errorf("expected clause 2 difference, got:\n%s", out)
	}

	// Identical inputs report a match and no clause breakdown.
	out, err = execute(t, "compare", pathV1, pathV1)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, "Full Contract Match: true") {
		t.Errorf("expected match verdict, got:\n%s", out)
	}
	if strings.Contains(out, "Clause-Level Comparison") {
		t.Errorf("expected no clause breakdown, got:\n%s", out)
	}
}

func TestCompareCommandJSON(t *testing.T) {
	pathV1, pathV2 := writeContracts(t)

	out, err := execute(t, "compare", pathV1, pathV2, "--json")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, `"equal": false`) {
		t.Errorf("expected JSON output, got:\n%s", out)
	}

	doc := contract.NewDocument(contractV1)
	if !strings.Contains(out, doc.Root()) {
		t.Error("expected JSON output to contain the v1 root")
	}
}

func TestCompareCommandGraph(t *testing.T) {
	pathV1, pathV2 := writeContracts(t)
	graphPath := filepath.Join(t.TempDir(), "v1.dot")

	if _, err := execute(t, "compare", pathV1, pathV2, "--graph-v1", graphPath); err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	data, err := os.ReadFile(graphPath)
	if err != nil {
		t.Fatalf("failed to read graph file: %v", err)
	}
	if !strings.Contains(string(data), "digraph merkle") {
		t.Errorf("expected DOT output, got:\n%s", data)
	}
}

func TestClauseHashCommand(t *testing.T) {
	text := "Clause 2: The seller provides a 1-year warranty."

	out, err := execute(t, "clause", "hash", text)
	if err != nil {
		t.Fatalf("clause hash failed: %v", err)
	}
	if strings.TrimSpace(out) != merkle.HashClause(text) {
		t.Errorf("unexpected digest: %s", out)
	}
}

func TestClauseListCommand(t *testing.T) {
	pathV1, _ := writeContracts(t)

	out, err := execute(t, "clause", "list", pathV1)
	if err != nil {
		t.Fatalf("clause list failed: %v", err)
	}

	doc := contract.NewDocument(contractV1)
	for _, digest := range doc.Digests {
		if !strings.Contains(out, digest) {
			t.Errorf("expected output to contain digest %s", digest)
		}
	}
	if !strings.Contains(out, "Root: "+doc.Root()) {
		t.Errorf("expected output to contain the root, got:\n%s", out)
	}
}

func TestProofCommands(t *testing.T) {
	pathV1, _ := writeContracts(t)
	bundlePath := filepath.Join(t.TempDir(), "proof.json")

	if _, err := execute(t, "proof", "create",
		"--contract", pathV1, "--index", "1", "--output", bundlePath); err != nil {
		t.Fatalf("proof create failed: %v", err)
	}

	out, err := execute(t, "proof", "verify", "--bundle", bundlePath)
	if err != nil {
		t.Fatalf("proof verify failed: %v", err)
	}
	if !strings.Contains(out, "✓ Proof valid") {
		t.Errorf("expected valid proof, got:\n%s", out)
	}

	// Verification against a different trusted root fails.
	wrongRoot := merkle.HashClause("some other contract")
	out, err = execute(t, "proof", "verify", "--bundle", bundlePath, "--root", wrongRoot)
	if err == nil {
		t.Error("expected verification to fail for wrong root")
	}
	if !strings.Contains(out, "✗ Proof invalid") {
		t.Errorf("expected invalid verdict, got:\n%s", out)
	}

	// Out-of-range clause index is rejected.
	if _, err := execute(t, "proof", "create",
		"--contract", pathV1, "--index", "9", "--output", bundlePath); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestProofCommandsCBOR(t *testing.T) {
	pathV1, _ := writeContracts(t)
	bundlePath := filepath.Join(t.TempDir(), "proof.cbor")

	if _, err := execute(t, "proof", "create",
		"--contract", pathV1, "--index", "0", "--cbor", "--output", bundlePath); err != nil {
		t.Fatalf("proof create failed: %v", err)
	}

	out, err := execute(t, "proof", "verify", "--bundle", bundlePath, "--cbor")
	if err != nil {
		t.Fatalf("proof verify failed: %v", err)
	}
	if !strings.Contains(out, "✓ Proof valid") {
		t.Errorf("expected valid proof, got:\n%s", out)
	}
}

func TestAttestCommands(t *testing.T) {
	pathV1, _ := writeContracts(t)
	dir := t.TempDir()
	notePath := filepath.Join(dir, "attestation.txt")

	// Initialize a key pair to sign with.
	if _, err := execute(t, "init", "--dir", dir, "--origin", "veritract-test"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := execute(t, "attest", "sign",
		"--contract", pathV1,
		"--key", filepath.Join(dir, "service-key.pem"),
		"--origin", "veritract-test",
		"--output", notePath); err != nil {
		t.Fatalf("attest sign failed: %v", err)
	}

	out, err := execute(t, "attest", "verify",
		"--attestation", notePath,
		"--key", filepath.Join(dir, "service-key.jwk"))
	if err != nil {
		t.Fatalf("attest verify failed: %v", err)
	}
	if !strings.Contains(out, "✓ Attestation valid") {
		t.Errorf("expected valid attestation, got:\n%s", out)
	}
	if !strings.Contains(out, "veritract-test") {
		t.Errorf("expected origin in output, got:\n%s", out)
	}

	// The wrong expected root is rejected.
	doc := contract.NewDocument(contractV2)
	if _, err := execute(t, "attest", "verify",
		"--attestation", notePath,
		"--key", filepath.Join(dir, "service-key.jwk"),
		"--root", doc.Root()); err == nil {
		t.Error("expected verification to fail for wrong root")
	}
}

func TestSampleCommands(t *testing.T) {
	out, err := execute(t, "sample", "list")
	if err != nil {
		t.Fatalf("sample list failed: %v", err)
	}
	if !strings.Contains(out, "1. Original Demo (Warranty Change & Typo)") {
		t.Errorf("expected dataset listing, got:\n%s", out)
	}

	out, err = execute(t, "sample", "show", "1")
	if err != nil {
		t.Fatalf("sample show failed: %v", err)
	}
	if !strings.Contains(out, "--- V1 ---") || !strings.Contains(out, "--- V2 ---") {
		t.Errorf("expected both versions, got:\n%s", out)
	}

	out, err = execute(t, "sample", "compare", "2")
	if err != nil {
		t.Fatalf("sample compare failed: %v", err)
	}
	if !strings.Contains(out, "Full Contract Match: true") {
		t.Errorf("expected identical sample to match, got:\n%s", out)
	}

	if _, err := execute(t, "sample", "compare", "9"); err == nil {
		t.Error("expected error for unknown sample")
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--dir", dir, "--origin", "veritract-test")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	_ = out

	for _, name := range []string{"service-key.pem", "service-key.jwk", "veritract.db", "veritract.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}

	// A second init without --force is rejected.
	if _, err := execute(t, "init", "--dir", dir, "--origin", "veritract-test"); err == nil {
		t.Error("expected error for repeated init")
	}

	if _, err := execute(t, "init", "--dir", dir, "--origin", "veritract-test", "--force"); err != nil {
		t.Errorf("expected init --force to succeed: %v", err)
	}
}
