package superdoc

import (
	"context"
	"encoding/base64"
	"os"
	"sync"

	"github.com/tidwall/gjson"
)

// Lifecycle states reported by the runtime for a session. The runtime is
// authoritative; the client only tracks whether Destroy was called.
const (
	LifecycleIdle      = "idle"
	LifecycleOpening   = "opening"
	LifecycleReady     = "ready"
	LifecycleClosing   = "closing"
	LifecycleDestroyed = "destroyed"
)

// Editor is a handle to one open document session on the runtime. All
// operations are thin RPCs tagged with the session id; operations other
// than Open, Lifecycle, and Destroy require the session to be in the ready
// state and return an application error otherwise.
//
// Editor methods may be called from multiple goroutines; calls from one
// goroutine are observed by the runtime in order, concurrent calls from
// different goroutines have no mutual ordering.
type Editor struct {
	client    caller
	sessionID string

	destroyMu sync.Mutex
	destroyed bool
}

// SessionID returns the runtime-issued id of this session.
func (e *Editor) SessionID() string { return e.sessionID }

func (e *Editor) call(ctx context.Context, method string, p params) (gjson.Result, error) {
	if p == nil {
		p = params{}
	}
	p["sessionId"] = e.sessionID
	return e.client.Call(ctx, method, p)
}

// JSON returns the document as a ProseMirror document tree.
func (e *Editor) JSON(ctx context.Context) (gjson.Result, error) {
	return e.call(ctx, "getJSON", nil)
}

// HTML returns the document rendered as HTML markup.
func (e *Editor) HTML(ctx context.Context) (string, error) {
	result, err := e.call(ctx, "getHTML", nil)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// Markdown returns the document rendered as Markdown.
func (e *Editor) Markdown(ctx context.Context) (string, error) {
	result, err := e.call(ctx, "getMarkdown", nil)
	if err != nil {
		return "", err
	}
	return result.String(), nil
}

// Metadata returns the document's metadata object.
func (e *Editor) Metadata(ctx context.Context) (gjson.Result, error) {
	return e.call(ctx, "getMetadata", nil)
}

// InsertContent inserts content into the in-memory document. Content is
// either an HTML string or a structured ProseMirror tree (any value that
// marshals to the runtime's content shape).
func (e *Editor) InsertContent(ctx context.Context, content interface{}) error {
	_, err := e.call(ctx, "insertContent", params{"content": content})
	return err
}

// Export serializes the current in-memory document to DOCX and returns the
// bytes. The wire payload is base64 text; decoding happens here.
func (e *Editor) Export(ctx context.Context) ([]byte, error) {
	result, err := e.call(ctx, "exportDocx", nil)
	if err != nil {
		return nil, err
	}
	docx, err := base64.StdEncoding.DecodeString(result.Get("docx").String())
	if err != nil {
		return nil, wrapError(KindConnection, err, "decoding exported document")
	}
	return docx, nil
}

// ExportFile exports the document and writes it to path.
func (e *Editor) ExportFile(ctx context.Context, path string) error {
	docx, err := e.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, docx, 0o644); err != nil {
		return wrapError(KindApplication, err, "writing exported document to %q", path)
	}
	return nil
}

// Close releases the open document. The session returns to idle and can
// load another document with Open.
func (e *Editor) Close(ctx context.Context) error {
	_, err := e.call(ctx, "close", nil)
	return err
}

// Open loads a new document into this session. A document already open in
// the session is closed first by the runtime.
func (e *Editor) Open(ctx context.Context, docx []byte) error {
	_, err := e.call(ctx, "open", params{
		"docx": base64.StdEncoding.EncodeToString(docx),
	})
	return err
}

// OpenFile loads the DOCX file at path into this session.
func (e *Editor) OpenFile(ctx context.Context, path string) error {
	docx, err := os.ReadFile(path)
	if err != nil {
		return wrapError(KindApplication, err, "reading document %q", path)
	}
	return e.Open(ctx, docx)
}

// Lifecycle returns the session's current state as reported by the
// runtime: one of idle, opening, ready, closing, destroyed.
func (e *Editor) Lifecycle(ctx context.Context) (string, error) {
	result, err := e.call(ctx, "getLifecycle", nil)
	if err != nil {
		return "", err
	}
	return result.Get("lifecycle").String(), nil
}

// Destroy releases the session on the runtime. It is idempotent and never
// fails: a second call is a no-op, and transport errors are swallowed
// since the runtime may already be gone.
func (e *Editor) Destroy(ctx context.Context) {
	e.destroyMu.Lock()
	defer e.destroyMu.Unlock()
	if e.destroyed {
		return
	}
	e.call(ctx, "destroy", nil)
	e.destroyed = true
}

// WithEditor loads the document, runs fn with the editor, and destroys the
// session on every exit path.
func WithEditor(ctx context.Context, client *Client, docx []byte, fn func(*Editor) error) error {
	editor, err := client.Load(ctx, docx)
	if err != nil {
		return err
	}
	defer editor.Destroy(ctx)
	return fn(editor)
}
