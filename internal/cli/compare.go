package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/internal/service"
	"github.com/veritract/contract-verification/pkg/contract"
)

type compareOptions struct {
	label    string
	jsonOut  bool
	colorOut bool
	graphV1  string
	graphV2  string
	save     bool
}

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare <v1-file> <v2-file>",
		Short: "Compare two contract versions",
		Long: `Compare two contract versions clause by clause.

Each version is split into clauses (one per non-empty line), hashed,
and folded into a Merkle tree. If the roots differ, a positional
clause-level report shows which clauses changed.

Example:
  veritract compare contract-v1.txt contract-v2.txt
  veritract compare contract-v1.txt contract-v2.txt --color
  veritract compare contract-v1.txt contract-v2.txt --save --label "Q3 renewal"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.label, "label", "", "label for the saved comparison")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "output the comparison as JSON")
	cmd.Flags().BoolVar(&opts.colorOut, "color", false, "highlight changed characters in mismatched clauses")
	cmd.Flags().StringVar(&opts.graphV1, "graph-v1", "", "write the V1 Merkle tree as Graphviz DOT to this file")
	cmd.Flags().StringVar(&opts.graphV2, "graph-v2", "", "write the V2 Merkle tree as Graphviz DOT to this file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the comparison through the configured service")

	return cmd
}

func runCompare(cmd *cobra.Command, pathV1, pathV2 string, opts *compareOptions) error {
	textV1, err := os.ReadFile(pathV1)
	if err != nil {
		return fmt.Errorf("failed to read contract v1: %w", err)
	}
	textV2, err := os.ReadFile(pathV2)
	if err != nil {
		return fmt.Errorf("failed to read contract v2: %w", err)
	}

	docV1 := contract.NewDocument(string(textV1))
	docV2 := contract.NewDocument(string(textV2))

	if opts.graphV1 != "" {
		if err := writeGraph(opts.graphV1, docV1); err != nil {
			return err
		}
	}
	if opts.graphV2 != "" {
		if err := writeGraph(opts.graphV2, docV2); err != nil {
			return err
		}
	}

	if opts.save {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("no configuration loaded - use --config flag or run veritract init")
		}
		svc, err := service.NewVerificationService(cfg)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		result, err := svc.CompareContracts(&service.CompareRequest{
			Label:      opts.label,
			ContractV1: string(textV1),
			ContractV2: string(textV2),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved comparison %d\n", result.ComparisonID)
		return printComparison(cmd, result.Comparison, opts)
	}

	return printComparison(cmd, contract.Compare(docV1, docV2), opts)
}

func printComparison(cmd *cobra.Command, cmp *contract.Comparison, opts *compareOptions) error {
	out := cmd.OutOrStdout()

	if opts.jsonOut {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cmp)
	}

	fmt.Fprintf(out, "Root V1: %s\n", cmp.RootV1)
	fmt.Fprintf(out, "Root V2: %s\n", cmp.RootV2)
	fmt.Fprintf(out, "Full Contract Match: %v\n", cmp.Equal)

	if cmp.Equal {
		return nil
	}

	fmt.Fprintln(out)
	var lines []string
	if opts.colorOut {
		lines = contract.NewColorRenderer().Render(cmp.Report)
	} else {
		lines = contract.FormatReport(cmp.Report)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	return nil
}

func writeGraph(path string, doc *contract.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	if err := contract.WriteDOT(f, doc); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}
