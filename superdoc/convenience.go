package superdoc

import (
	"context"
	"os"
	"sync"

	"github.com/tidwall/gjson"
)

// The convenience facade: stateless one-call helpers for scripts and quick
// jobs, composed from a shared Client and scoped editors. The runtime
// starts on first use and is shared with every other client in the
// process.

var (
	facadeMu     sync.Mutex
	facadeClient *Client
)

func facade() *Client {
	facadeMu.Lock()
	defer facadeMu.Unlock()
	if facadeClient == nil {
		facadeClient = NewClient()
	}
	return facadeClient
}

// ToHTML converts the DOCX file at path to HTML.
func ToHTML(ctx context.Context, path string) (string, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return "", wrapError(KindApplication, err, "reading document %q", path)
	}
	return ToHTMLBytes(ctx, docx)
}

// ToHTMLBytes converts DOCX bytes to HTML.
func ToHTMLBytes(ctx context.Context, docx []byte) (string, error) {
	var html string
	err := WithEditor(ctx, facade(), docx, func(e *Editor) error {
		var err error
		html, err = e.HTML(ctx)
		return err
	})
	return html, err
}

// ToMarkdown converts the DOCX file at path to Markdown.
func ToMarkdown(ctx context.Context, path string) (string, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return "", wrapError(KindApplication, err, "reading document %q", path)
	}
	return ToMarkdownBytes(ctx, docx)
}

// ToMarkdownBytes converts DOCX bytes to Markdown.
func ToMarkdownBytes(ctx context.Context, docx []byte) (string, error) {
	var md string
	err := WithEditor(ctx, facade(), docx, func(e *Editor) error {
		var err error
		md, err = e.Markdown(ctx)
		return err
	})
	return md, err
}

// ToJSON converts the DOCX file at path to a ProseMirror document tree.
func ToJSON(ctx context.Context, path string) (gjson.Result, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, wrapError(KindApplication, err, "reading document %q", path)
	}
	return ToJSONBytes(ctx, docx)
}

// ToJSONBytes converts DOCX bytes to a ProseMirror document tree.
func ToJSONBytes(ctx context.Context, docx []byte) (gjson.Result, error) {
	var tree gjson.Result
	err := WithEditor(ctx, facade(), docx, func(e *Editor) error {
		var err error
		tree, err = e.JSON(ctx)
		return err
	})
	return tree, err
}

// Metadata returns the metadata of the DOCX file at path.
func Metadata(ctx context.Context, path string) (gjson.Result, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, wrapError(KindApplication, err, "reading document %q", path)
	}
	var meta gjson.Result
	err = WithEditor(ctx, facade(), docx, func(e *Editor) error {
		var err error
		meta, err = e.Metadata(ctx)
		return err
	})
	return meta, err
}

// Insert inserts content into the DOCX file at path and returns the
// modified document bytes.
func Insert(ctx context.Context, path string, content interface{}) ([]byte, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(KindApplication, err, "reading document %q", path)
	}
	return InsertBytes(ctx, docx, content)
}

// InsertBytes inserts content into DOCX bytes and returns the modified
// document bytes.
func InsertBytes(ctx context.Context, docx []byte, content interface{}) ([]byte, error) {
	var out []byte
	err := WithEditor(ctx, facade(), docx, func(e *Editor) error {
		if err := e.InsertContent(ctx, content); err != nil {
			return err
		}
		var err error
		out, err = e.Export(ctx)
		return err
	})
	return out, err
}

// InsertAndSave inserts content into the DOCX file at path and writes the
// modified document to outputPath.
func InsertAndSave(ctx context.Context, path string, content interface{}, outputPath string) error {
	out, err := Insert(ctx, path, content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return wrapError(KindApplication, err, "writing document to %q", outputPath)
	}
	return nil
}

// Export loads the DOCX file at path and exports it back out, useful for
// round-trip validation. The exported bytes are returned and, if
// outputPath is non-empty, also written there.
func Export(ctx context.Context, path string, outputPath string) ([]byte, error) {
	docx, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(KindApplication, err, "reading document %q", path)
	}
	var out []byte
	err = WithEditor(ctx, facade(), docx, func(e *Editor) error {
		var err error
		out, err = e.Export(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return nil, wrapError(KindApplication, err, "writing document to %q", outputPath)
		}
	}
	return out, nil
}
