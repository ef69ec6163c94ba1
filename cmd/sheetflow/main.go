package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sheetflow/internal/api"
	"sheetflow/internal/api/handler"
	"sheetflow/internal/dest"
	"sheetflow/internal/pipeline"
	"sheetflow/internal/project"
	"sheetflow/internal/source"
	"sheetflow/internal/store"
	"sheetflow/pkg/router"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sheetflow",
		Short:         "Extract, filter, reshape and place spreadsheet data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), validateCmd(), serveCmd())
	return root
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func runCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "run <project.yaml>",
		Short: "Run every extraction in a project file, fail-fast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := project.Load(args[0])
			if err != nil {
				return err
			}
			if err := project.Validate(cfg); err != nil {
				return err
			}
			items := project.Flatten(cfg)
			if len(items) == 0 {
				return fmt.Errorf("project has no sheets to run")
			}

			log, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			st := dest.NewExcelStore()
			defer st.Close()
			b := pipeline.Batch{
				Loader: source.NewLoader(),
				Store:  st,
				Log:    log,
			}
			report := b.RunAll(cmd.Context(), items)

			for _, res := range report.Results {
				if res.Failed() {
					fmt.Printf("❌ %s / %s: %s\n", res.RecipeName, res.SheetName, res.Message)
					continue
				}
				fmt.Printf("✅ %s / %s: %d row(s) → %s!%s\n",
					res.RecipeName, res.SheetName, res.RowsWritten, res.DestFile, res.DestSheet)
			}
			if !report.OK {
				return fmt.Errorf("batch stopped after %d of %d unit(s)", len(report.Results), len(items))
			}
			fmt.Printf("🏁 %d unit(s) completed\n", len(report.Results))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log per-unit progress")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project.yaml>",
		Short: "Check a project file without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := project.Load(args[0])
			if err != nil {
				return err
			}
			if err := project.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("✅ %s: %d unit(s), all specs valid\n", args[0], len(project.Flatten(cfg)))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.InitDB(dbPath); err != nil {
				return err
			}
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()
			handler.SetLogger(logger.Sugar())

			r := router.New()
			api.RegisterRoutes(r)
			r.Start(addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "sheetflow.db", "run-history database path")
	return cmd
}
