package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/cfe-receipt-reader/internal/api"
	"github.com/insightdelivered/cfe-receipt-reader/internal/batch"
	"github.com/insightdelivered/cfe-receipt-reader/internal/extractor"
	"github.com/insightdelivered/cfe-receipt-reader/internal/models"
	"github.com/insightdelivered/cfe-receipt-reader/internal/parser"
	"github.com/insightdelivered/cfe-receipt-reader/internal/writer"
)

const version = "1.0.0"

var (
	verbose    bool
	localePath string
	ocrLang    string
)

func main() {
	root := &cobra.Command{
		Use:     "recibos",
		Short:   "Lector de recibos CFE: extrae datos estructurados de recibos de luz",
		Version: version,

		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&localePath, "locale", "", "Path to a YAML locale override file")
	root.PersistentFlags().StringVar(&ocrLang, "lang", "spa", "Tesseract language code for the OCR pass")

	root.AddCommand(newExtractCmd(), newCompareCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// buildPipeline assembles the shared acquisition and extraction stack.
func buildPipeline() (*extractor.Acquirer, *parser.Extractor, zerolog.Logger, error) {
	log := newLogger()
	loc, err := parser.LoadLocale(localePath)
	if err != nil {
		return nil, nil, log, err
	}
	acq := extractor.NewAcquirer(log)
	acq.OCR = extractor.TesseractOCR{Language: ocrLang}
	return acq, parser.NewExtractor(loc), log, nil
}

func newExtractCmd() *cobra.Command {
	var (
		outputPath string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "extract <recibo.pdf>",
		Short: "Read one receipt and print its structured fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acq, ext, log, err := buildPipeline()
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			name := filepath.Base(path)
			var doc models.DocumentText
			switch strings.ToLower(filepath.Ext(path)) {
			case ".pdf":
				doc, err = acq.AcquireDocument(cmd.Context(), name, data, extractor.AcquireOptions{})
			case ".png", ".jpg", ".jpeg", ".gif":
				doc, err = acq.AcquireImage(cmd.Context(), name, data)
			default:
				return fmt.Errorf("%s: only PDF and image files are supported", name)
			}
			if err != nil {
				return err
			}

			receipt := ext.ReadReceipt(doc)
			log.Debug().Str("document", name).Msg("receipt extracted")

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(receipt)
			}
			printReceipt(cmd, &receipt)

			if outputPath != "" {
				report := batch.Aggregate([]models.Receipt{receipt})
				w := &writer.CSVWriter{}
				if err := w.WriteToFile(outputPath, &report); err != nil {
					return err
				}
				log.Info().Str("path", outputPath).Msg("CSV written")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the receipt as CSV to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the receipt as JSON")
	return cmd
}

func printReceipt(cmd *cobra.Command, r *models.Receipt) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Titular:       %s\n", r.Titleholder)
	fmt.Fprintf(out, "Servicio:      %s\n", r.ServiceID)
	fmt.Fprintf(out, "Periodo:       %s\n", r.PeriodText)
	fmt.Fprintf(out, "Limite pago:   %s\n", r.DueDate)
	fmt.Fprintf(out, "Consumo:       %d kWh (%.2f kWh/dia)\n", r.KWh, r.DailyAvgKWh)
	fmt.Fprintf(out, "Tarifa:        %s\n", r.Tariff)
	fmt.Fprintf(out, "Total:         $%s\n", r.Total)
	fmt.Fprintf(out, "  Energia:     $%s\n", r.Energy)
	fmt.Fprintf(out, "  IVA:         $%s\n", r.Tax)
	if r.FixedCharge != 0 {
		fmt.Fprintf(out, "  DAP:         $%s\n", r.FixedCharge)
	}
	if r.PriorBalance != 0 {
		fmt.Fprintf(out, "  Adeudo ant.: $%s\n", r.PriorBalance)
	}
	if r.PriorPayment != 0 {
		fmt.Fprintf(out, "  Su pago:     $%s\n", r.PriorPayment)
	}
	if len(r.History) > 0 {
		fmt.Fprintln(out, "Historial:")
		for _, h := range r.History {
			fmt.Fprintf(out, "  %s  %4d kWh  $%s\n", h.Label, h.KWh, h.Amount)
		}
	}
}

func newCompareCmd() *cobra.Command {
	var (
		outputPath string
		xlsxPath   string
	)
	cmd := &cobra.Command{
		Use:   "compare <recibo1.pdf> <recibo2.pdf> [...]",
		Short: "Compare a batch of receipts and export the report",
		Args:  cobra.RangeArgs(batch.MinBatchSize, batch.MaxBatchSize),
		RunE: func(cmd *cobra.Command, args []string) error {
			acq, ext, log, err := buildPipeline()
			if err != nil {
				return err
			}

			inputs := make([]batch.Input, 0, len(args))
			for _, path := range args {
				path := path
				inputs = append(inputs, batch.Input{
					Name: filepath.Base(path),
					Acquire: func(ctx context.Context) (models.DocumentText, error) {
						data, err := os.ReadFile(path)
						if err != nil {
							return models.DocumentText{}, err
						}
						return acq.AcquireDocument(ctx, filepath.Base(path), data, extractor.AcquireOptions{BatchMode: true})
					},
				})
			}

			session, err := batch.NewSession(ext, inputs, log)
			if err != nil {
				return err
			}
			session.Progress = func(index, total int, name string, status batch.Status) {
				log.Info().Int("position", index+1).Int("total", total).Str("document", name).Str("status", string(status)).Msg("batch progress")
			}

			receipts, err := session.Run(cmd.Context())
			if err != nil {
				return err
			}
			report := batch.Aggregate(receipts)
			printReport(cmd, &report)

			if outputPath != "" {
				w := &writer.CSVWriter{}
				if err := w.WriteToFile(outputPath, &report); err != nil {
					return err
				}
				log.Info().Str("path", outputPath).Msg("CSV written")
			}
			if xlsxPath != "" {
				data, err := writer.BuildReportXLSX(&report)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", xlsxPath, err)
				}
				log.Info().Str("path", xlsxPath).Msg("XLSX written")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "comparativo.csv", "Write the comparison as CSV to this path")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the comparison as an XLSX workbook")
	return cmd
}

func printReport(cmd *cobra.Command, report *models.ComparisonReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-3s %-28s %-14s %8s %12s  %s\n", "#", "Titular", "Servicio", "kWh", "Total", "Tarifa")
	for _, e := range report.Entries {
		r := e.Receipt
		fmt.Fprintf(out, "%-3d %-28s %-14s %8d %12s  %s\n",
			e.Index, r.Titleholder, r.ServiceID, r.KWh, "$"+r.Total.String(), r.Tariff)
	}
	if report.ValidCount > 0 {
		fmt.Fprintf(out, "\nPromedio: %.1f kWh / $%.2f sobre %d recibos\n",
			report.MeanKWh, report.MeanTotal, report.ValidCount)
		if report.Best != nil && report.Worst != nil {
			fmt.Fprintf(out, "Menor consumo: %s (%d kWh), mayor: %s (%d kWh)\n",
				report.Best.SourceName, report.MinKWh, report.Worst.SourceName, report.MaxKWh)
		}
	}
}

func newServeCmd() *cobra.Command {
	var (
		addr      string
		staticDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acq, ext, log, err := buildPipeline()
			if err != nil {
				return err
			}

			app := fiber.New(fiber.Config{
				BodyLimit: 64 << 20,
			})
			api.NewHandler(acq, ext, log).Register(app)
			if staticDir != "" {
				app.Static("/", staticDir)
			}

			log.Info().Str("addr", addr).Msg("listening")
			return app.Listen(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory of static files to serve at /")
	return cmd
}
