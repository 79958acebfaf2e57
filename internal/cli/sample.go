package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/internal/samples"
	"github.com/veritract/contract-verification/pkg/contract"
)

// NewSampleCommand creates the sample command
func NewSampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Run the built-in sample datasets",
		Long: `Run the built-in sample contract datasets.

Subcommands:
  list     - List the available sample datasets
  show     - Print both versions of a sample dataset
  compare  - Compare the two versions of a sample dataset`,
	}

	cmd.AddCommand(NewSampleListCommand())
	cmd.AddCommand(NewSampleShowCommand())
	cmd.AddCommand(NewSampleCompareCommand())

	return cmd
}

// NewSampleListCommand creates the sample list command
func NewSampleListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available sample datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, ds := range samples.Datasets {
				fmt.Fprintf(out, "%d. %s\n", i+1, ds.Name)
			}
			return nil
		},
	}

	return cmd
}

// NewSampleShowCommand creates the sample show command
func NewSampleShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Print both versions of a sample dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := lookupSample(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", ds.Name)
			fmt.Fprintln(out, "--- V1 ---")
			for _, clause := range contract.ExtractClauses(ds.V1) {
				fmt.Fprintln(out, clause)
			}
			fmt.Fprintln(out, "\n--- V2 ---")
			for _, clause := range contract.ExtractClauses(ds.V2) {
				fmt.Fprintln(out, clause)
			}
			return nil
		},
	}

	return cmd
}

// NewSampleCompareCommand creates the sample compare command
func NewSampleCompareCommand() *cobra.Command {
	var colorOut bool

	cmd := &cobra.Command{
		Use:   "compare <number>",
		Short: "Compare the two versions of a sample dataset",
		Long: `Compare the two versions of a sample dataset.

Example:
  veritract sample compare 1
  veritract sample compare 1 --color`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := lookupSample(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", ds.Name)

			cmp := contract.Compare(
				contract.NewDocument(ds.V1),
				contract.NewDocument(ds.V2),
			)
			return printComparison(cmd, cmp, &compareOptions{colorOut: colorOut})
		},
	}

	cmd.Flags().BoolVar(&colorOut, "color", false, "highlight changed characters in mismatched clauses")

	return cmd
}

func lookupSample(arg string) (*samples.Dataset, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return samples.ByName(arg)
	}
	return samples.ByIndex(index)
}
