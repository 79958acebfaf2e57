package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/merkle"
)

// NewClauseCommand creates the clause command
func NewClauseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clause",
		Short: "Inspect contract clauses",
		Long: `Inspect contract clauses.

Subcommands:
  hash  - Compute the digest of a single clause
  list  - List the clauses and digests of a contract file`,
	}

	cmd.AddCommand(NewClauseHashCommand())
	cmd.AddCommand(NewClauseListCommand())

	return cmd
}

// NewClauseHashCommand creates the clause hash command
func NewClauseHashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <text>",
		Short: "Compute the SHA-256 digest of a clause",
		Long: `Compute the SHA-256 digest of a clause.

The clause text is hashed exactly as given, so whitespace and
punctuation matter.

Example:
  veritract clause hash "Clause 2: The seller provides a 1-year warranty."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), merkle.HashClause(args[0]))
			return nil
		},
	}

	return cmd
}

// NewClauseListCommand creates the clause list command
func NewClauseListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <contract-file>",
		Short: "List the clauses and digests of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read contract: %w", err)
			}

			doc := contract.NewDocument(string(text))
			out := cmd.OutOrStdout()
			for i, clause := range doc.Clauses {
				fmt.Fprintf(out, "%d  %s  %s\n", i+1, doc.Digests[i], clause)
			}
			fmt.Fprintf(out, "\nRoot: %s\n", doc.Root())
			return nil
		},
	}

	return cmd
}
