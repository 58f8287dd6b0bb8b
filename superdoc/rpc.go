package superdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// params is the parameter set of one RPC call.
type params map[string]interface{}

// rpcRequest is the wire envelope sent to the runtime. The runtime serves a
// single root path and dispatches on the method name.
type rpcRequest struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
}

// postCall performs one request/response exchange against the runtime
// endpoint. It is the single framing path shared by both client variants
// and the health prober, so their wire behavior cannot diverge.
//
// closeConn forces a fresh connection per call (the per-call client); the
// pooled client leaves it false and reuses its transport's connections.
func postCall(ctx context.Context, httpClient *http.Client, endpoint, method string, p params, closeConn bool) (gjson.Result, error) {
	if p == nil {
		p = params{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Params: p})
	if err != nil {
		return gjson.Result{}, wrapError(KindConnection, err, "encoding %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, wrapError(KindConnection, err, "building %s request", method)
	}
	req.Header.Add("Content-Type", "application/json")
	req.Close = closeConn

	resp, err := httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, wrapError(KindConnection, err, "calling %s", method)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, wrapError(KindConnection, err, "reading %s response", method)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, newError(KindConnection, "calling %s: unexpected status %d: %s", method, resp.StatusCode, respBody)
	}

	return decodeReply(method, respBody)
}

// decodeReply parses a runtime reply. The protocol requires exactly one of
// "result" and "error"; a reply with neither or both is a violation and is
// treated as a transport failure.
func decodeReply(method string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, newError(KindConnection, "calling %s: malformed response body", method)
	}
	errField := gjson.GetBytes(body, "error")
	result := gjson.GetBytes(body, "result")

	switch {
	case errField.Exists() && result.Exists():
		return gjson.Result{}, newError(KindConnection, "calling %s: response contains both result and error", method)
	case errField.Exists():
		return gjson.Result{}, newError(KindApplication, "%s", errField.String())
	case result.Exists():
		return result, nil
	}
	return gjson.Result{}, newError(KindConnection, "calling %s: response contains neither result nor error", method)
}

// invalidatesEndpoint reports whether err should clear a client's cached
// endpoint so the next call re-resolves through the supervisor.
func invalidatesEndpoint(err error) bool {
	return IsKind(err, KindConnection)
}
