package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dgallion1/scanbook/internal/config"
	"github.com/dgallion1/scanbook/internal/toc"
)

var validateTOCCmd = &cobra.Command{
	Use:   "validate-toc <file>",
	Short: "Parse a table of contents file and print its chapters",
	Long: `Parse a table of contents with one "Title: start-end" line per chapter.
Use "-" to read from stdin. Exits non-zero on the first invalid line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readTOC(args[0])
		if err != nil {
			return err
		}
		chapters, err := toc.Validate(raw)
		if err != nil {
			return err
		}
		if chapters == nil {
			chapters = []toc.Chapter{}
		}
		return printOutput(cmd.OutOrStdout(), chapters)
	},
}

var (
	reconcileTOC        string
	reconcilePages      int
	reconcileCorrection string
	reconcileTitle      string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Print the chapter list after filling gaps for a book span",
	Long: `Validate a table of contents and reconcile it against a PDF of the given
page count, adding Introduction and Appendices chapters for uncovered pages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reconcilePages <= 0 {
			return errors.New("--pages must be a positive page count")
		}
		raw, err := readTOC(reconcileTOC)
		if err != nil {
			return err
		}
		chapters, err := toc.Validate(raw)
		if err != nil {
			return err
		}
		offset := 0
		if reconcileCorrection != "" {
			if offset, err = toc.ParseCorrespondence(reconcileCorrection); err != nil {
				return err
			}
		}
		if err := toc.CheckSpan(reconcilePages, offset); err != nil {
			return err
		}
		title := reconcileTitle
		if title == "" {
			title = config.Load().DefaultTitle
		}

		start, end := toc.BookSpan(reconcilePages, offset)
		return printOutput(cmd.OutOrStdout(), map[string]any{
			"offset":     offset,
			"book_pages": toc.PageRange{Start: start, End: end}.String(),
			"chapters":   toc.Reconcile(chapters, start, end, title),
		})
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileTOC, "toc", "", "table of contents file (- for stdin)")
	reconcileCmd.Flags().IntVar(&reconcilePages, "pages", 0, "number of pages in the PDF")
	reconcileCmd.Flags().StringVar(&reconcileCorrection, "correction", "", "page correspondence bookPage=pdfPage")
	reconcileCmd.Flags().StringVar(&reconcileTitle, "title", "", "title of the fallback chapter")
}
