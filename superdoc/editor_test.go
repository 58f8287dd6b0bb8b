package superdoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(WithSupervisor(newTestSupervisor(t)), WithClientLogger(log))
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)
	defer editor.Destroy(ctx)
	require.NotEmpty(t, editor.SessionID())

	state, err := editor.Lifecycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LifecycleReady, state)

	require.NoError(t, editor.Close(ctx))
	state, err = editor.Lifecycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LifecycleIdle, state)

	// Operations other than open, lifecycle, and destroy fail while idle.
	_, err = editor.HTML(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindApplication))
	_, err = editor.JSON(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindApplication))
	err = editor.InsertContent(ctx, "<p>x</p>")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindApplication))
	_, err = editor.Export(ctx)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindApplication))

	// The same session can open another document and become ready again.
	require.NoError(t, editor.Open(ctx, []byte("another document")))
	state, err = editor.Lifecycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LifecycleReady, state)
}

func TestDestroyIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)

	editor.Destroy(ctx)
	editor.Destroy(ctx)

	state, err := editor.Lifecycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LifecycleDestroyed, state)
}

func TestDestroySwallowsTransportErrors(t *testing.T) {
	ctx := context.Background()
	sup := newTestSupervisor(t)
	c := NewClient(WithSupervisor(sup))

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)

	// The runtime is gone by the time Destroy runs; it must not panic or
	// surface an error.
	require.NoError(t, sup.Stop())
	editor.Destroy(ctx)
	editor.Destroy(ctx)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	doc := []byte("canonical document bytes \x00\x01\x02")
	editor, err := c.Load(ctx, doc)
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	out, err := editor.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestInsertExportReloadScenario(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	require.NoError(t, editor.InsertContent(ctx, "<p>x</p>"))
	exported, err := editor.Export(ctx)
	require.NoError(t, err)

	reloaded, err := c.Load(ctx, exported)
	require.NoError(t, err)
	defer reloaded.Destroy(ctx)

	html, err := reloaded.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "<p>x</p>")
}

func TestInsertStructuredContent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	tree := map[string]interface{}{
		"type": "paragraph",
		"content": []map[string]interface{}{
			{"type": "text", "text": "structured"},
		},
	}
	require.NoError(t, editor.InsertContent(ctx, tree))

	doc, err := editor.JSON(ctx)
	require.NoError(t, err)
	assert.Contains(t, doc.Raw, "structured")

	meta, err := editor.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.Get("blocks").Int())
}

func TestExportFile(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	doc := []byte("file bound document")
	editor, err := c.Load(ctx, doc)
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	path := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, editor.ExportFile(ctx, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, b)
}

func TestLoadFile(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	path := filepath.Join(t.TempDir(), "in.docx")
	require.NoError(t, os.WriteFile(path, []byte("on disk"), 0o644))

	editor, err := c.LoadFile(ctx, path)
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	out, err := editor.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("on disk"), out)

	_, err = c.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindApplication))
}

func TestWithEditorDestroysOnError(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	var editor *Editor
	wantErr := errors.New("callback failed")
	err := WithEditor(ctx, c, []byte("a document"), func(e *Editor) error {
		editor = e
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// The session was destroyed despite the error return.
	state, err := editor.Lifecycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, LifecycleDestroyed, state)
}

func TestMarkdown(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	editor, err := c.Load(ctx, []byte("a document"))
	require.NoError(t, err)
	defer editor.Destroy(ctx)

	require.NoError(t, editor.InsertContent(ctx, "# heading"))
	md, err := editor.Markdown(ctx)
	require.NoError(t, err)
	assert.Contains(t, md, "# heading")
}
