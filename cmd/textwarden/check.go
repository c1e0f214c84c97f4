package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/apply"
	"github.com/GriffinCanCode/TextWarden/internal/domain/highlight"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
)

var errIssuesFound = errors.New("issues found")

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file|glob|->...",
	Short: "Analyse documents and print the issues found",
	Long: `Analyse text files, HTML pages or stdin. HTML pages are checked field by field
(textarea, text inputs and contenteditable regions); anything else is one field.
Patterns support ** globs, e.g. "docs/**/*.md".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("apply-all", false, "write every applicable suggestion back into the documents")
	checkCmd.Flags().Bool("fail", false, "exit with status 1 when issues are found")
}

func runCheck(cmd *cobra.Command, args []string) error {
	applyAll, err := cmd.Flags().GetBool("apply-all")
	if err != nil {
		return err
	}
	failOnIssues, err := cmd.Flags().GetBool("fail")
	if err != nil {
		return err
	}

	paths, err := expandPatterns(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if applyAll && slices.Contains(paths, stdinName) {
		// stdout carries the corrected text
		a.printer.out = cmd.ErrOrStderr()
	}

	renderer := highlight.NewRenderer(surface.NewViewport(1024, 768), highlight.WithLogger(a.logger))

	var (
		total, applied int
		failures       int
	)
	for _, path := range paths {
		data, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		doc, err := loadDocument(path, data)
		if err != nil {
			return err
		}

		a.printer.header(doc.name)
		if len(doc.fields) == 0 {
			fmt.Fprintln(a.printer.out, "  no editable fields")
			continue
		}

		changed := false
		for _, field := range doc.fields {
			if doc.html != nil {
				a.printer.header("  #" + field.ID().String())
			}

			text := field.Text()
			res := a.analyzer.Analyze(cmd.Context(), text, a.store.Get().Checks())
			if res.Err != nil {
				switch {
				case res.Err.Kind == analysis.KindEmptyInput:
					fmt.Fprintln(a.printer.out, "  skipped, text too short")
					continue
				case res.Err.Kind.UserActionable():
					return errors.New(res.Err.Kind.UserMessage())
				}
				a.logger.Debug("Analysis failed", zap.String("document", doc.name), zap.Error(res.Err))
				a.printer.errorf("%s", res.Err.Kind.UserMessage())
				failures++
				continue
			}

			markers, err := renderer.Render(field, res.Issues)
			if err != nil {
				return err
			}
			a.printer.field(text, markers, res.Issues)
			total += len(res.Issues)

			if applyAll {
				// native markers live in the tree, remove them before editing
				renderer.Clear(field.ID())
				_, report := apply.ApplyAll(field, res.Issues)
				applied += len(report.Applied)
				changed = changed || len(report.Applied) > 0
			}
			renderer.Detach(field.ID())
		}

		if changed || (applyAll && path == stdinName) {
			if err := doc.save(cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("failed to write %s: %w", doc.name, err)
			}
		}
	}

	a.printer.summary(len(paths), total, applied)
	if failures > 0 {
		return fmt.Errorf("%d field(s) could not be analysed", failures)
	}
	if failOnIssues && total > applied {
		return errIssuesFound
	}
	return nil
}
