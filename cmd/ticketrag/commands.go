package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hyperjump/ticketrag/internal/cli"
	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/spf13/cobra"
)

// newIndexCmd builds "index", or "reindex" when reindex is set.
func newIndexCmd(reindex bool) *cobra.Command {
	var (
		cf       clientFlags
		ticketID string
		req      models.IndexRequest
		overlap  int
	)
	name, short := "index", "Index the caller's ticket attachments"
	if reindex {
		name, short = "reindex", "Purge and rebuild the caller's index"
	}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(cf.output)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("overlap") {
				req.Overlap = &overlap
			}
			resp, err := cf.client().Index(cmd.Context(), &req, ticketID, reindex)
			if err != nil {
				return fmt.Errorf("%s failed: %w", name, err)
			}
			return cli.WriteIndexResult(cmd.OutOrStdout(), resp, format)
		},
	}
	cf.register(cmd)
	cmd.Flags().StringVar(&ticketID, "ticket", "", "limit to one ticket id")
	cmd.Flags().StringVar(&req.Project, "project", "", "project tag stored on chunks")
	cmd.Flags().IntVar(&req.Size, "size", 0, "chunk size in characters (server default when 0)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "chunk overlap in characters")
	cmd.Flags().StringVar(&req.Strategy, "strategy", "", "chunking strategy: fixed or semantic")
	return cmd
}

func newQueryCmd() *cobra.Command {
	var (
		cf       clientFlags
		req      models.QueryRequest
		overlap  int
		noIndex  bool
		noAnswer bool
	)
	cmd := &cobra.Command{
		Use:   "query [flags] <question>",
		Short: "Ask a question over the caller's ticket attachments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(cf.output)
			if err != nil {
				return err
			}
			req.Query = buildQuery(args)
			if req.Query == "" {
				return errors.New("query is empty")
			}
			if cmd.Flags().Changed("overlap") {
				req.Overlap = &overlap
			}
			if noIndex {
				f := false
				req.EnsureIndex = &f
			}
			if noAnswer {
				f := false
				req.Answer = &f
			}
			resp, err := cf.client().Query(cmd.Context(), &req)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			return cli.WriteQueryResults(cmd.OutOrStdout(), resp, format)
		},
	}
	cf.register(cmd)
	cmd.Flags().IntVarP(&req.TopK, "top-k", "k", 0, "number of results (server default when 0)")
	cmd.Flags().StringVar(&req.TicketID, "ticket", "", "search one ticket only")
	cmd.Flags().StringVar(&req.Project, "project", "", "project tag stored on chunks")
	cmd.Flags().IntVar(&req.Size, "size", 0, "chunk size used when indexing")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "chunk overlap used when indexing")
	cmd.Flags().StringVar(&req.Strategy, "strategy", "", "chunking strategy used when indexing: fixed or semantic")
	cmd.Flags().BoolVar(&req.Reindex, "reindex", false, "purge and rebuild before searching")
	cmd.Flags().BoolVar(&req.UseQueryExpansion, "expand", false, "add a synonym-expanded query variant")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "search the existing index without refreshing it")
	cmd.Flags().BoolVar(&noAnswer, "no-answer", false, "skip answer synthesis")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var cf clientFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show vector store status and retrieval settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(cf.output)
			if err != nil {
				return err
			}
			s, err := cf.client().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status failed: %w", err)
			}
			return cli.WriteStatus(cmd.OutOrStdout(), s, format)
		},
	}
	cf.register(cmd)
	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", defaultConfigPath, "config file path to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
