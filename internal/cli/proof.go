package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/merkle"
)

// NewProofCommand creates the proof command
func NewProofCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Manage clause inclusion proofs",
		Long: `Manage clause inclusion proofs.

Subcommands:
  create  - Generate an inclusion proof for one clause of a contract
  verify  - Verify a proof bundle against its declared root`,
	}

	cmd.AddCommand(NewProofCreateCommand())
	cmd.AddCommand(NewProofVerifyCommand())

	return cmd
}

type proofCreateOptions struct {
	contractPath string
	index        int
	output       string
	cborOut      bool
}

// NewProofCreateCommand creates the proof create command
func NewProofCreateCommand() *cobra.Command {
	opts := &proofCreateOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate an inclusion proof for one clause",
		Long: `Generate an inclusion proof for one clause of a contract.

The proof bundle carries the clause digest, the contract root, and the
sibling path between them. Anyone holding the bundle can check that the
clause belongs to the contract without seeing the other clauses.

Example:
  veritract proof create --contract contract-v1.txt --index 2 --output proof.json
  veritract proof create --contract contract-v1.txt --index 2 --cbor --output proof.cbor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProofCreate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.contractPath, "contract", "", "contract file (required)")
	cmd.Flags().IntVar(&opts.index, "index", 0, "zero-based clause index")
	cmd.Flags().StringVar(&opts.output, "output", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.cborOut, "cbor", false, "encode the bundle as CBOR instead of JSON")

	cmd.MarkFlagRequired("contract")

	return cmd
}

func runProofCreate(cmd *cobra.Command, opts *proofCreateOptions) error {
	text, err := os.ReadFile(opts.contractPath)
	if err != nil {
		return fmt.Errorf("failed to read contract: %w", err)
	}

	doc := contract.NewDocument(string(text))
	proof, err := doc.Prove(opts.index)
	if err != nil {
		if errors.Is(err, merkle.ErrNotFound) {
			return fmt.Errorf("clause index %d is out of range (contract has %d clauses)",
				opts.index, len(doc.Clauses))
		}
		return err
	}

	bundle := &merkle.ProofBundle{
		Target: doc.Digests[opts.index],
		Root:   doc.Root(),
		Proof:  proof,
	}

	var encoded []byte
	if opts.cborOut {
		encoded, err = merkle.EncodeProofBundle(bundle)
		if err != nil {
			return err
		}
	} else {
		encoded, err = json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode proof bundle: %w", err)
		}
		encoded = append(encoded, '\n')
	}

	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(encoded)
		return err
	}
	if err := os.WriteFile(opts.output, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write proof bundle: %w", err)
	}

	if verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "Proof for clause %d written to %s\n", opts.index+1, opts.output)
	}
	return nil
}

type proofVerifyOptions struct {
	bundlePath string
	cborIn     bool
	root       string
}

// NewProofVerifyCommand creates the proof verify command
func NewProofVerifyCommand() *cobra.Command {
	opts := &proofVerifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof bundle",
		Long: `Verify a proof bundle against its declared root.

If --root is given, the bundle's declared root must also match it, so
a bundle cannot vouch for itself against a trusted root.

Example:
  veritract proof verify --bundle proof.json
  veritract proof verify --bundle proof.cbor --cbor --root <trusted-root>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProofVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bundlePath, "bundle", "", "proof bundle file (required)")
	cmd.Flags().BoolVar(&opts.cborIn, "cbor", false, "decode the bundle as CBOR instead of JSON")
	cmd.Flags().StringVar(&opts.root, "root", "", "trusted root the bundle must match")

	cmd.MarkFlagRequired("bundle")

	return cmd
}

func runProofVerify(cmd *cobra.Command, opts *proofVerifyOptions) error {
	data, err := os.ReadFile(opts.bundlePath)
	if err != nil {
		return fmt.Errorf("failed to read proof bundle: %w", err)
	}

	var bundle *merkle.ProofBundle
	if opts.cborIn {
		bundle, err = merkle.DecodeProofBundle(data)
		if err != nil {
			return err
		}
	} else {
		bundle = &merkle.ProofBundle{}
		if err := json.Unmarshal(data, bundle); err != nil {
			return fmt.Errorf("failed to decode proof bundle: %w", err)
		}
	}

	out := cmd.OutOrStdout()

	if opts.root != "" && !merkle.RootsEqual(bundle.Root, opts.root) {
		fmt.Fprintln(out, "✗ Proof invalid: declared root does not match trusted root")
		return fmt.Errorf("proof verification failed")
	}

	if !merkle.VerifyBundle(bundle) {
		fmt.Fprintln(out, "✗ Proof invalid")
		return fmt.Errorf("proof verification failed")
	}

	fmt.Fprintln(out, "✓ Proof valid")
	fmt.Fprintf(out, "  Target: %s\n", bundle.Target)
	fmt.Fprintf(out, "  Root:   %s\n", bundle.Root)
	return nil
}
