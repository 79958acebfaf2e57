package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/veritract/contract-verification/internal/server"
)

type serveOptions struct {
	host string
	port int
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the contract verification HTTP server",
		Long: `Start the contract verification HTTP server.

The server provides:
  - POST /compare - Compare two contract versions
  - GET /comparisons - List stored comparisons
  - GET /comparisons/{id} - Retrieve a stored comparison
  - POST /proofs - Generate a clause inclusion proof
  - POST /proofs/verify - Verify a proof bundle
  - GET /attestation?root=... - Retrieve a root attestation

Example:
  veritract serve --config veritract.yaml
  veritract serve --host 0.0.0.0 --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "host to bind to (overrides config)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on (overrides config)")

	return cmd
}

func runServe(opts *serveOptions) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("no configuration loaded - use --config flag or create veritract.yaml")
	}

	// Override config with command line flags
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if verbose {
		fmt.Println("Starting contract verification service...")
		fmt.Printf("  Origin: %s\n", cfg.Origin)
		fmt.Printf("  Database: %s\n", cfg.Database.Path)
		fmt.Printf("  Storage: %s (%s)\n", cfg.Storage.Type, cfg.Storage.Path)
		fmt.Printf("  Server: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	// Blocks until error or shutdown
	log.Fatal(srv.Start())
	return nil
}
