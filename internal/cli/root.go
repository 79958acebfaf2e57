package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/internal/config"
)

// Global flags
var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// NewRootCommand creates the root cobra command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "veritract",
		Short: "Contract verification CLI",
		Long: `Merkle-tree based contract verification tool.

This command-line interface provides tools for verifying contract
documents clause by clause, including:
  - Initializing a new verification service
  - Comparing two contract versions
  - Generating and verifying clause inclusion proofs
  - Signing and verifying root attestations
  - Running the built-in sample datasets`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./veritract.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add subcommands
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewClauseCommand())
	rootCmd.AddCommand(NewProofCommand())
	rootCmd.AddCommand(NewAttestCommand())
	rootCmd.AddCommand(NewSampleCommand())

	return rootCmd
}

// initConfig loads configuration from file
func initConfig() {
	if cfgFile == "" {
		// Try default locations
		if _, err := os.Stat("veritract.yaml"); err == nil {
			cfgFile = "veritract.yaml"
		} else if _, err := os.Stat("veritract.yml"); err == nil {
			cfgFile = "veritract.yml"
		}
	}

	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
			}
		}
	}
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
