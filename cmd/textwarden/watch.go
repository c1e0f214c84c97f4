package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TextWarden/internal/domain/analysis"
	"github.com/GriffinCanCode/TextWarden/internal/domain/highlight"
	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
	"github.com/GriffinCanCode/TextWarden/internal/domain/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <file>",
	Short: "Re-check a text file whenever it changes",
	Long: `Watch a plain text file. Every save counts as typing: analysis runs once the
file has been left alone for the quiet period, and the markers are printed again.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("quiet", 0, "quiet period before analysis (default QUIET_PERIOD)")
}

// reporter prints every render the watcher performs
type reporter struct {
	*highlight.Renderer
	printer *printer
	name    string
}

func (r *reporter) Render(field surface.Surface, issues []issue.Issue) ([]highlight.Marker, error) {
	markers, err := r.Renderer.Render(field, issues)
	if err != nil {
		return nil, err
	}
	r.printer.header(fmt.Sprintf("%s  %s", r.name, time.Now().Format("15:04:05")))
	r.printer.field(field.Text(), markers, issues)
	return markers, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if path == stdinName {
		return errors.New("watch needs a file, not stdin")
	}
	quiet, err := cmd.Flags().GetDuration("quiet")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if quiet <= 0 {
		quiet = a.cfg.Pipeline.QuietPeriod
	}

	field, err := loadWatchedField(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.watchSettings(ctx)

	out := &reporter{
		Renderer: highlight.NewRenderer(surface.NewViewport(1024, 768), highlight.WithLogger(a.logger)),
		printer:  a.printer,
		name:     path,
	}
	w := watcher.New(a.analyzer, out, a.store,
		watcher.WithQuietPeriod(quiet),
		watcher.WithSite(a.cfg.Settings.Site),
		watcher.WithCache(a.cache),
		watcher.WithLogger(a.logger.Named("watcher")),
		watcher.OnCredentialIssue(func(_ analysis.ErrorKind, msg string) {
			a.printer.errorf("%s", msg)
		}),
	)
	defer w.Close()

	if err := w.Track(field); err != nil {
		return err
	}
	// focusing checks the initial content right away
	field.Focus()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return err
	}

	fmt.Fprintf(a.printer.out, "watching %s, press Ctrl+C to stop\n", path)

	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			if err := reloadField(path, field); err != nil {
				a.logger.Warn("Failed to reload file", zap.String("path", path), zap.Error(err))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("File watcher error", zap.Error(err))
		case <-ctx.Done():
			stats := w.Stats()
			a.logger.Debug("Watch stopped",
				zap.Int64("analyses", stats.Analyses),
				zap.Int64("suppressed", stats.Suppressed))
			return nil
		}
	}
}

func loadWatchedField(path string) (*surface.PlainValue, error) {
	data, err := readInput(path, nil)
	if err != nil {
		return nil, err
	}
	doc, err := loadDocument(path, data)
	if err != nil {
		return nil, err
	}
	if doc.html == nil && len(doc.fields) == 1 {
		if field, ok := doc.fields[0].(*surface.PlainValue); ok {
			return field, nil
		}
	}
	return nil, fmt.Errorf("%s: watch supports plain text files only", path)
}

// reloadField copies the file's content into the field as one input event
func reloadField(path string, field *surface.PlainValue) error {
	data, err := readInput(path, nil)
	if err != nil {
		return err
	}
	text, err := decodeText(data, mimetype.Detect(data).String())
	if err != nil {
		return err
	}
	if text == field.Text() {
		return nil
	}
	field.SetText(text)
	field.Notify()
	return nil
}
