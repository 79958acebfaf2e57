package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/cose"
	"github.com/veritract/contract-verification/pkg/merkle"
)

// NewAttestCommand creates the attest command
func NewAttestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attest",
		Short: "Sign and verify root attestations",
		Long: `Sign and verify root attestations.

An attestation is a signed note binding a contract root, its clause
count, a timestamp, and the signing origin.

Subcommands:
  sign    - Sign an attestation over a contract's root
  verify  - Verify an attestation note`,
	}

	cmd.AddCommand(NewAttestSignCommand())
	cmd.AddCommand(NewAttestVerifyCommand())

	return cmd
}

type attestSignOptions struct {
	contractPath string
	keyPath      string
	origin       string
	output       string
}

// NewAttestSignCommand creates the attest sign command
func NewAttestSignCommand() *cobra.Command {
	opts := &attestSignOptions{}

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an attestation over a contract's root",
		Long: `Sign an attestation over a contract's root.

Example:
  veritract attest sign \
    --contract contract-v1.txt \
    --key service-key.pem \
    --origin veritract.example.com \
    --output attestation.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttestSign(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.contractPath, "contract", "", "contract file (required)")
	cmd.Flags().StringVar(&opts.keyPath, "key", "", "private key file in PEM format (required)")
	cmd.Flags().StringVar(&opts.origin, "origin", "", "attestation origin name (required)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output file (default stdout)")

	cmd.MarkFlagRequired("contract")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("origin")

	return cmd
}

func runAttestSign(cmd *cobra.Command, opts *attestSignOptions) error {
	text, err := os.ReadFile(opts.contractPath)
	if err != nil {
		return fmt.Errorf("failed to read contract: %w", err)
	}

	keyPEM, err := os.ReadFile(opts.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	privateKey, err := cose.ImportPrivateKeyFromPEM(string(keyPEM))
	if err != nil {
		return fmt.Errorf("failed to import private key: %w", err)
	}

	doc := contract.NewDocument(string(text))
	att, err := merkle.CreateAttestation(doc.Root(), len(doc.Clauses), privateKey, opts.origin)
	if err != nil {
		return fmt.Errorf("failed to create attestation: %w", err)
	}

	encoded := merkle.EncodeAttestation(att)
	if opts.output == "" {
		fmt.Fprint(cmd.OutOrStdout(), encoded)
		return nil
	}
	if err := os.WriteFile(opts.output, []byte(encoded), 0644); err != nil {
		return fmt.Errorf("failed to write attestation: %w", err)
	}

	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "Attestation for root %s written to %s\n", att.Root, opts.output)
	}
	return nil
}

type attestVerifyOptions struct {
	attestationPath string
	keyPath         string
	root            string
}

// NewAttestVerifyCommand creates the attest verify command
func NewAttestVerifyCommand() *cobra.Command {
	opts := &attestVerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an attestation note",
		Long: `Verify an attestation note with the signer's public key.

If --root is given, the attested root must also match it.

Example:
  veritract attest verify --attestation attestation.txt --key service-key.jwk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttestVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.attestationPath, "attestation", "", "attestation note file (required)")
	cmd.Flags().StringVar(&opts.keyPath, "key", "", "public key file in JWK format (required)")
	cmd.Flags().StringVar(&opts.root, "root", "", "expected contract root")

	cmd.MarkFlagRequired("attestation")
	cmd.MarkFlagRequired("key")

	return cmd
}

func runAttestVerify(cmd *cobra.Command, opts *attestVerifyOptions) error {
	encoded, err := os.ReadFile(opts.attestationPath)
	if err != nil {
		return fmt.Errorf("failed to read attestation: %w", err)
	}

	keyData, err := os.ReadFile(opts.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	jwk, err := cose.UnmarshalJWK(keyData)
	if err != nil {
		return fmt.Errorf("failed to unmarshal JWK: %w", err)
	}
	publicKey, err := cose.ImportPublicKeyFromJWK(jwk)
	if err != nil {
		return fmt.Errorf("failed to import public key: %w", err)
	}

	att, err := merkle.DecodeAttestation(string(encoded))
	if err != nil {
		return fmt.Errorf("failed to decode attestation: %w", err)
	}

	out := cmd.OutOrStdout()

	if opts.root != "" && !merkle.RootsEqual(att.Root, opts.root) {
		fmt.Fprintln(out, "✗ Attestation invalid: root does not match expected root")
		return fmt.Errorf("attestation verification failed")
	}

	ok, err := merkle.VerifyAttestation(att, publicKey)
	if err != nil {
		return fmt.Errorf("failed to verify attestation: %w", err)
	}
	if !ok {
		fmt.Fprintln(out, "✗ Attestation invalid: bad signature")
		return fmt.Errorf("attestation verification failed")
	}

	fmt.Fprintln(out, "✓ Attestation valid")
	fmt.Fprintf(out, "  Origin:  %s\n", att.Origin)
	fmt.Fprintf(out, "  Root:    %s\n", att.Root)
	fmt.Fprintf(out, "  Clauses: %d\n", att.ClauseCount)
	fmt.Fprintf(out, "  Signed:  %s\n", time.UnixMilli(att.Timestamp).UTC().Format(time.RFC3339))
	return nil
}
