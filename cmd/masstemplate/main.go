// Package main provides the CLI entry point for masstemplate.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sellerops/masstemplate-go/internal/config"
	"github.com/sellerops/masstemplate-go/internal/logging"
	"github.com/sellerops/masstemplate-go/internal/server"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/output"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/uploader"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	reference    string
	shopCode     string
	imageBase    string
	coverBase    string
	detailsBase  string
	optionBase   string
	mode         string
	mandatory    bool
	fdaOverwrite bool
	jsonOut      bool
	format       string
	outputPath   string
	port         string
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.IsProduction(), cfg.LogLevel)
	if cfg.EnvPath != "" {
		log.WithField("file", cfg.EnvPath).Debug("loaded env file")
	}

	rootCmd := &cobra.Command{
		Use:   "masstemplate",
		Short: "Build marketplace mass-upload templates in Google Sheets",
		Long: `masstemplate builds a TEM_OUTPUT sheet from a shop's Collection tab,
fills FDA codes, prices, weights and image URLs, and exports the result as
xlsx or csv. Spreadsheets are Google Sheets URLs or IDs, or local .xlsx paths.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		createCmd(cfg, log),
		stepCmd(cfg, log),
		exportCmd(cfg, log),
		copyCmd(cfg, log),
		serveCmd(cfg, log),
		configCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reference, "ref", "", "Reference spreadsheet (default: REFERENCE_SPREADSHEET_ID)")
	cmd.Flags().StringVar(&shopCode, "shop", "", "Shop code used in cover image names (default: SHOP_CODE)")
	cmd.Flags().StringVar(&imageBase, "image-base", "", "Image hosting base URL (default: IMAGE_HOSTING_URL)")
	cmd.Flags().StringVar(&coverBase, "cover-base", "", "Cover image base URL")
	cmd.Flags().StringVar(&detailsBase, "details-base", "", "Detail image base URL")
	cmd.Flags().StringVar(&optionBase, "option-base", "", "Option image base URL")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
}

func spreadsheetArg(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.DefaultSpreadsheet
}

func request(cfg *config.Config, args []string) masstemplate.Request {
	return masstemplate.Request{
		Spreadsheet: spreadsheetArg(cfg, args),
		Reference:   reference,
		ShopCode:    shopCode,
		Images: steps.ImageBases{
			Base:    imageBase,
			Cover:   coverBase,
			Details: detailsBase,
			Option:  optionBase,
		},
	}
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if cfg.SheetsTimeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.SheetsTimeout)
	return ctx, func() { cancel(); stop() }
}

func createCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [spreadsheet]",
		Short: "Run the full template pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := masstemplate.ParseMode(mode)
			if !ok {
				return fmt.Errorf("invalid mode: %s (must be standard, full, or fill)", mode)
			}
			a := newApp(cfg, log)
			defer a.Close()
			a.creator.Options.Mode = m
			a.creator.Options.FDAOverwrite = fdaOverwrite
			if cmd.Flags().Changed("mandatory") {
				a.creator.Options.IncludeMandatory = &mandatory
			}

			ctx, cancel := commandContext(cfg)
			defer cancel()
			report, err := a.creator.Run(ctx, request(cfg, args))
			if perr := printReport(cmd.OutOrStdout(), report); perr != nil {
				return perr
			}
			return err
		},
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&mode, "mode", "standard", "Run mode: standard, full, fill")
	cmd.Flags().BoolVar(&mandatory, "mandatory", false, "Fill mandatory-field defaults and highlight them")
	cmd.Flags().BoolVar(&fdaOverwrite, "fda-overwrite", false, "Overwrite existing FDA codes")
	return cmd
}

func stepCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "step <name> [spreadsheet]",
		Short:     "Run one pipeline step",
		Long:      "Run one pipeline step. Steps: " + fmt.Sprint(steps.Names()),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: steps.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cfg, log)
			defer a.Close()
			a.creator.Options.FDAOverwrite = fdaOverwrite

			ctx, cancel := commandContext(cfg)
			defer cancel()
			entry, err := a.creator.RunStep(ctx, request(cfg, args[1:]), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), entry)
			}
			printStep(cmd.OutOrStdout(), entry)
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().BoolVar(&fdaOverwrite, "fda-overwrite", false, "Overwrite existing FDA codes")
	return cmd
}

func exportCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [spreadsheet]",
		Short: "Export TEM_OUTPUT as xlsx or csv",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			a := newApp(cfg, log)
			defer a.Close()

			ctx, cancel := commandContext(cfg)
			defer cancel()
			data, err := a.creator.Export(ctx, spreadsheetArg(cfg, args), f)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			path := outputPath
			if path == "" {
				shop := shopCode
				if shop == "" {
					shop = cfg.Steps.ShopCode
				}
				path = f.FileName(shop)
			}
			if path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "xlsx", "Export format: xlsx, csv")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path, - for stdout (default: {shop}_TEM_OUTPUT.{format})")
	cmd.Flags().StringVar(&shopCode, "shop", "", "Shop code used in the default file name")
	return cmd
}

func copyCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "copy-template <spreadsheet> <file.xlsx>...",
		Short: "Copy BASIC, MEDIA and SALES exports into same-named tabs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []uploader.File
			for _, p := range args[1:] {
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("read %s: %w", p, err)
				}
				files = append(files, uploader.File{Name: filepath.Base(p), Data: data})
			}

			a := newApp(cfg, log)
			defer a.Close()
			ctx, cancel := commandContext(cfg)
			defer cancel()
			wb, err := a.creator.Opener.Open(ctx, args[0])
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			defer store.Close(wb)

			failed := false
			for _, line := range a.uploader.Apply(ctx, wb, files) {
				fmt.Fprintln(cmd.OutOrStdout(), line.String())
				failed = failed || line.Level == models.LevelError
			}
			if failed {
				return errors.New("copy template finished with errors")
			}
			return nil
		},
	}
}

func serveCmd(cfg *config.Config, log *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp(cfg, log)
			defer a.Close()

			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           server.New(a.creator, a.uploader, log).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.WithField("port", port).Info("server listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&port, "port", cfg.Port, "Listen port")
	return cmd
}

func configCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage saved defaults",
	}
	set := &cobra.Command{
		Use:   "set <KEY> <VALUE>",
		Short: "Save a default such as SHOP_CODE or IMAGE_HOSTING_URL to the .env file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.EnvPath
			if path == "" {
				path = config.EnvFile
			}
			if err := config.SaveEnvValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s in %s\n", args[0], path)
			return nil
		},
	}
	cmd.AddCommand(set)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printStep(w io.Writer, s models.StepLog) {
	status := "ok"
	switch {
	case !s.OK:
		status = "failed: " + s.Error
	case s.Skipped:
		status = "skipped"
	}
	fmt.Fprintf(w, "%-16s %6d  %s (%s)\n", s.Name, s.Count, status, s.Duration.Round(time.Millisecond))
}

func printReport(w io.Writer, r *models.RunReport) error {
	if r == nil {
		return nil
	}
	if jsonOut {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "run %s on %s\n", r.RunID, r.Spreadsheet)
	for _, s := range r.Steps {
		printStep(w, s)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "%d collection rows skipped (see Failures sheet)\n", len(r.Failures))
	}
	return nil
}
