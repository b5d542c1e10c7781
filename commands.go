package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/worker"
)

const timeLayout = "2006-01-02 15:04:05"

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "newsharvester",
		Short:         "Incrementally harvest Indonesian financial news",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(
		newRunCmd(func() *config.Config { return cfg }),
		newStatusCmd(func() *config.Config { return cfg }),
		newSourcesCmd(func() *config.Config { return cfg }),
	)
	return root
}

// --- run ---

func newRunCmd(getConfig func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source|all>",
		Short: "Crawl one source or all enabled sources once",
		Long: `Crawl one source or all enabled sources once.

Examples:
  newsharvester run kontan
  newsharvester run all
  newsharvester run cnbc --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			target := args[0]
			if target != "all" && !crawler.IsKnownSource(target) {
				return errors.NewConfiguration(fmt.Sprintf("unknown source %q", target), nil)
			}
			force, _ := cmd.Flags().GetBool("force")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := initializeServices(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			crawlers, err := crawler.CreateCrawlers(cfg, deps.Cache)
			if err != nil {
				return err
			}

			engine := worker.NewEngine(deps.Store, deps.Publisher, cfg.FetchWorkers)
			w := worker.NewWorker(crawlers, engine, deps.Status, deps.Publisher).WithForce(force)

			var reports []*worker.Report
			if target == "all" {
				reports, err = w.RunAll(ctx)
			} else {
				var report *worker.Report
				report, err = w.RunOne(ctx, target)
				if report != nil {
					reports = append(reports, report)
				}
			}

			printReports(cmd, reports)
			return err
		},
	}
	cmd.Flags().Bool("force", false, "run even if another process left the activity marked running")
	return cmd
}

func printReports(cmd *cobra.Command, reports []*worker.Report) {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		rows = append(rows, []string{
			r.Source,
			string(r.State),
			strconv.Itoa(r.Discovered),
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.FetchFailures),
			strconv.Itoa(r.EmptyDropped),
			strconv.Itoa(r.Stored),
			errText,
		})
	}
	renderTable(cmd.OutOrStdout(),
		[]string{"SOURCE", "STATE", "DISCOVERED", "FETCHED", "FAILED", "DROPPED", "STORED", "ERROR"}, rows)
}

// --- status ---

func newStatusCmd(getConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show activity flags and stored article counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			deps, err := initializeServices(ctx, getConfig())
			if err != nil {
				return err
			}
			defer deps.Close()

			entries, err := deps.Status.List(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Activity, e.Status, e.ModifiedAt.Format(timeLayout)})
			}
			out := cmd.OutOrStdout()
			renderTable(out, []string{"ACTIVITY", "STATUS", "MODIFIED"}, rows)
			fmt.Fprintln(out)

			counts, err := deps.Store.CountBySource(ctx)
			if err != nil {
				return err
			}
			rows = rows[:0]
			total := 0
			for _, source := range crawler.KnownSources() {
				rows = append(rows, []string{source, strconv.Itoa(counts[source])})
				total += counts[source]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})
			renderTable(out, []string{"SOURCE", "ARTICLES"}, rows)
			return nil
		},
	}
}

// --- sources ---

func newSourcesCmd(getConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			rows := make([][]string, 0, len(cfg.Sources))
			for _, source := range crawler.KnownSources() {
				src, ok := cfg.Sources[source]
				if !ok {
					continue
				}
				rows = append(rows, []string{
					source,
					strconv.FormatBool(src.Enabled),
					fmt.Sprintf("%s-%s", src.Delay.Min, src.Delay.Max),
					src.BaseURL,
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"SOURCE", "ENABLED", "DELAY", "BASE URL"}, rows)
			return nil
		},
	}
}
