package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

const stdinName = "-"

// document is one input file split into the surfaces TextWarden analyses
type document struct {
	name     string
	mimeType string
	html     *surface.Document
	fields   []surface.Surface
}

// expandPatterns resolves glob patterns into file paths, keeping plain
// paths and "-" as given
func expandPatterns(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if arg == stdinName || !hasMeta(arg) {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == stdinName {
		return io.ReadAll(io.LimitReader(stdin, surface.MaxDocumentSize))
	}
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.Size() > surface.MaxDocumentSize {
		return nil, fmt.Errorf("%s exceeds maximum size of %d bytes", name, surface.MaxDocumentSize)
	}
	return os.ReadFile(name)
}

// loadDocument sniffs data and builds its surfaces: HTML yields one surface
// per editable element, any other text becomes a single multi-line field
func loadDocument(name string, data []byte) (*document, error) {
	mt := mimetype.Detect(data)
	doc := &document{name: name, mimeType: mt.String()}

	if isHTML(name, mt) {
		parsed, err := surface.LoadHTML(bytes.NewReader(data), mt.String())
		if err != nil {
			return nil, err
		}
		doc.html = parsed
		doc.fields = parsed.Discover(nil)
		return doc, nil
	}

	if !isText(mt) {
		return nil, fmt.Errorf("%s: unsupported content type %s", name, mt.String())
	}
	text, err := decodeText(data, mt.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	doc.fields = []surface.Surface{
		surface.NewPlainValue(fileFieldID(name), text, true, surface.DefaultGeometry()),
	}
	return doc, nil
}

func isHTML(name string, mt *mimetype.MIME) bool {
	if mt.Is("text/html") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// decodeText transcodes to UTF-8 using the charset mimetype reported
func decodeText(data []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return string(data), nil
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

func fileFieldID(name string) id.FieldID {
	if name == stdinName {
		return "stdin"
	}
	return id.FieldID(filepath.Base(name))
}

// Bytes renders the document with any edits applied
func (d *document) Bytes() ([]byte, error) {
	if d.html != nil {
		s, err := d.html.HTML()
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	if len(d.fields) == 0 {
		return nil, nil
	}
	return []byte(d.fields[0].Text()), nil
}

// save writes the document back where it came from, stdout for "-"
func (d *document) save(stdout io.Writer) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if d.name == stdinName {
		_, err := stdout.Write(data)
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.name); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(d.name, data, mode)
}
