package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "scanbook",
	Short: "Convert scanned PDF books to EPUB",
	Long: `scanbook turns a scanned PDF book into an EPUB using a table of contents
and a page-number correspondence supplied by the user.

The pipeline renders and recognizes every page, corrects common OCR mistakes,
fills gaps in the table of contents with Introduction and Appendices chapters,
and reports words missing from the reference vocabulary.

Settings not given as flags are read from the same environment variables as
the server (OCR_ENGINE, CORRECTIONS_PATH, VOCABULARY_PATH, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "debug logging",
	)

	rootCmd.AddCommand(convertCmd, validateTOCCmd, reconcileCmd)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printOutput writes v in the selected output format.
func printOutput(w io.Writer, v any) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

func readTOC(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read toc: %w", err)
	}
	return string(data), nil
}
