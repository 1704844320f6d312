package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/scanbook/internal/config"
	"github.com/dgallion1/scanbook/internal/pipeline"
	"github.com/dgallion1/scanbook/internal/toc"
)

var (
	convertTOC        string
	convertCorrection string
	convertOffset     int
	convertTitle      string
	convertOut        string
	convertDOCX       bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf>",
	Short: "Convert a scanned PDF to EPUB",
	Long: `Convert a scanned PDF to EPUB in-process, printing progress to stderr.

Recognized pages are cached under DATA_DIR, so running the command again on
the same PDF (for example after fixing the table of contents) only redoes the
assembly and packaging.`,
	Example: `  scanbook convert libro.pdf --toc indice.txt --correction 1=15 --out ./epub
  scanbook convert libro.pdf --title "Cuentos" --docx`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertTOC, "toc", "", "table of contents file, one \"Title: start-end\" per line (- for stdin)")
	convertCmd.Flags().StringVar(&convertCorrection, "correction", "", "page correspondence bookPage=pdfPage, e.g. 1=15")
	convertCmd.Flags().IntVar(&convertOffset, "offset", 0, "page offset pdfPage-bookPage (ignored with --correction)")
	convertCmd.Flags().StringVar(&convertTitle, "title", "", "book title (default: derived from the file name)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output directory (default: OUTPUT_DIR)")
	convertCmd.Flags().BoolVar(&convertDOCX, "docx", false, "also export a DOCX document")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr())
	pdfPath := args[0]

	// Validate user input before touching the PDF.
	raw, err := readTOC(convertTOC)
	if err != nil {
		return err
	}
	chapters, err := toc.Validate(raw)
	if err != nil {
		return err
	}
	offset := convertOffset
	if convertCorrection != "" {
		if offset, err = toc.ParseCorrespondence(convertCorrection); err != nil {
			return err
		}
	}

	cfg := config.Load()
	if convertOut != "" {
		cfg.StorageAdapter = "local"
		cfg.OutputDir = convertOut
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	res, err := pipeline.Setup(cfg, log)
	if err != nil {
		return err
	}
	defer res.Close()

	stderr := cmd.ErrOrStderr()
	res.Converter.OnProgress = func(msg string) {
		fmt.Fprintln(stderr, msg)
	}

	job := pipeline.NewJob(pipeline.NewJobID(), filepath.Base(pdfPath), data)
	job.Title = strings.TrimSpace(convertTitle)
	job.Chapters = chapters
	job.Offset = offset
	job.WantDOCX = convertDOCX

	res.Converter.Run(cmd.Context(), job)

	snap := job.Snapshot()
	summary := map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"pages":    snap.Progress.TotalPages,
		"chapters": snap.Progress.Sections,
		"outputs":  outputPaths(cfg, snap.Outputs),
	}
	if len(snap.Progress.Errors) > 0 {
		summary["errors"] = snap.Progress.Errors
	}
	if err := printOutput(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	if snap.Status == pipeline.StatusFailed {
		return fmt.Errorf("conversion failed: %s", snap.Phase)
	}
	return nil
}

// outputPaths turns storage keys into file paths for local storage.
func outputPaths(cfg config.Config, outputs map[string]string) map[string]string {
	if cfg.StorageAdapter != "local" {
		return outputs
	}
	paths := make(map[string]string, len(outputs))
	for name, key := range outputs {
		paths[name] = filepath.Join(cfg.OutputDir, filepath.FromSlash(key))
	}
	return paths
}
