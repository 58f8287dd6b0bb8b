/*
Package superdoc is a client SDK for the SuperDoc document runtime, a
long-lived Node.js helper process that parses, renders, and converts DOCX
documents. The SDK spawns and supervises the runtime automatically and
exposes it as a reliable concurrent service.

The runtime is reached over loopback JSON-over-HTTP: a single root path,
POST only, request {"method": ..., "params": {...}} and response
{"result": ...} or {"error": ...}. Document bytes crossing the protocol are
always base64 text. The supervisor starts the runtime on first use, waits
for it to answer a liveness ping, restarts it after crashes up to a bounded
budget, and tears it down on Shutdown.

Typical use:

	client := superdoc.NewClient()
	editor, err := client.LoadFile(ctx, "doc.docx")
	if err != nil {
		return err
	}
	defer editor.Destroy(ctx)

	html, err := editor.HTML(ctx)

or, for one-shot jobs:

	html, err := superdoc.ToHTML(ctx, "doc.docx")

Client opens a fresh connection per call; PooledClient shares a keep-alive
pool and must be Closed. Both are safe for concurrent use and share one
runtime process per supervisor.
*/
package superdoc
