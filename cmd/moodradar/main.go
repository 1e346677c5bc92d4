package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elonfeng/moodradar/internal/logging"
)

var (
	cfgFile        string
	sortFlag       string
	maxComments    int
	maxSubmissions int
	verbose        bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	cancel()
	_ = logging.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "moodradar",
		Short:         "Measure the mood of Reddit comment threads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	pf.StringVar(&sortFlag, "sort", "", "restrict to one listing: hot, top, new or none (default: from config)")
	pf.IntVar(&maxComments, "max-comments", 0, "max comments per submission, 0 for all (default: from config)")
	pf.IntVar(&maxSubmissions, "max-submissions", 0, "max submissions per subreddit, 0 for all (default: from config)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print every classified comment")

	root.AddCommand(collectCmd())
	root.AddCommand(importCmd())
	root.AddCommand(submissionCmd())
	root.AddCommand(subredditCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(reportsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func collectCmd() *cobra.Command {
	var collectors []string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch comments from the configured collectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), collectors)
		},
	}

	cmd.Flags().StringSliceVar(&collectors, "collector", nil, "specific collectors to run (reddit, rss)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import comment documents from a JSON export (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0])
		},
	}
}

func submissionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submission ID",
		Short: "Analyze the comments of one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmission(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func subredditCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "subreddit NAME",
		Short: "Analyze every stored submission of a subreddit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubreddit(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func rankCmd() *cobra.Command {
	var (
		by         string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rank NAME...",
		Short: "Pick the most positive or most negative subreddit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, args, by, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&by, "by", "positive", "ranking direction: positive or negative")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func reportsCmd() *cobra.Command {
	var (
		subreddit  string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List saved subreddit reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd.Context(), subreddit, limit, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&subreddit, "subreddit", "", "only reports for this subreddit")
	cmd.Flags().IntVar(&limit, "limit", 20, "max reports to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
