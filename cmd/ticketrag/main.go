// Package main is the ticketrag CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/ticketrag/internal/cli"
	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ticketrag/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence so "ticketrag server" from a project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	server  string
	user    string
	token   string
	output  string
	timeout time.Duration
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", envOr("TICKETRAG_SERVER", "http://localhost:8090"), "server URL")
	cmd.Flags().StringVar(&f.user, "user", os.Getenv("TICKETRAG_USER"), "caller id sent in the identity header")
	cmd.Flags().StringVar(&f.token, "token", os.Getenv("TICKETRAG_TOKEN"), "token forwarded to the ticket service")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "output format: text or json")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Minute, "request timeout")
}

func (f *clientFlags) client() *cli.Client {
	return cli.NewClient(f.server, f.user, f.token, cli.WithTimeout(f.timeout))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// buildQuery joins the positional arguments so multi-word queries work with or without quotes.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newRootCmd() *cobra.Command {
	// .env is optional. It is loaded before flags are registered so it feeds their env defaults.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "ticketrag",
		Short:         "Retrieval-augmented search over support ticket attachments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServerCmd(),
		newIndexCmd(false),
		newIndexCmd(true),
		newQueryCmd(),
		newStatusCmd(),
		newInitCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
