package testruntime

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func dispatch(t *testing.T, rt *Runtime, method, paramsJSON string) (gjson.Result, error) {
	t.Helper()
	result, err := rt.Dispatch(method, gjson.Parse(paramsJSON))
	if err != nil {
		return gjson.Result{}, err
	}
	b, err := json.Marshal(result)
	require.NoError(t, err)
	return gjson.ParseBytes(b), nil
}

func loadSession(t *testing.T, rt *Runtime, doc []byte) string {
	t.Helper()
	p, err := json.Marshal(map[string]string{
		"docx": base64.StdEncoding.EncodeToString(doc),
	})
	require.NoError(t, err)
	result, dErr := dispatch(t, rt, "loadDocx", string(p))
	require.NoError(t, dErr)
	id := result.Get("sessionId").String()
	require.NotEmpty(t, id)
	return id
}

func TestSessionLifecycle(t *testing.T) {
	rt := New(zap.NewNop().Sugar())
	id := loadSession(t, rt, []byte("doc"))

	result, err := dispatch(t, rt, "getLifecycle", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	assert.Equal(t, StateReady, result.Get("lifecycle").String())

	_, err = dispatch(t, rt, "close", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	result, err = dispatch(t, rt, "getLifecycle", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, result.Get("lifecycle").String())

	// Reads fail while idle.
	_, err = dispatch(t, rt, "getHTML", `{"sessionId":"`+id+`"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")

	// Reopening makes the same session ready again.
	docB64 := base64.StdEncoding.EncodeToString([]byte("second doc"))
	_, err = dispatch(t, rt, "open", `{"sessionId":"`+id+`","docx":"`+docB64+`"}`)
	require.NoError(t, err)
	result, err = dispatch(t, rt, "getLifecycle", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	assert.Equal(t, StateReady, result.Get("lifecycle").String())

	_, err = dispatch(t, rt, "destroy", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	result, err = dispatch(t, rt, "getLifecycle", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	assert.Equal(t, StateDestroyed, result.Get("lifecycle").String())
}

func TestExportEnvelope(t *testing.T) {
	rt := New(zap.NewNop().Sugar())
	doc := []byte("original bytes")
	id := loadSession(t, rt, doc)

	// Untouched documents export verbatim.
	result, err := dispatch(t, rt, "exportDocx", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	out, err := base64.StdEncoding.DecodeString(result.Get("docx").String())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(doc, out))

	// Modified documents export as an envelope that reloads losslessly.
	_, err = dispatch(t, rt, "insertContent", `{"sessionId":"`+id+`","content":"<p>x</p>"}`)
	require.NoError(t, err)
	result, err = dispatch(t, rt, "exportDocx", `{"sessionId":"`+id+`"}`)
	require.NoError(t, err)
	modified, err := base64.StdEncoding.DecodeString(result.Get("docx").String())
	require.NoError(t, err)
	assert.False(t, bytes.Equal(doc, modified))

	id2 := loadSession(t, rt, modified)
	result, err = dispatch(t, rt, "getHTML", `{"sessionId":"`+id2+`"}`)
	require.NoError(t, err)
	assert.Contains(t, result.String(), "<p>x</p>")
}

func TestMalformedDocument(t *testing.T) {
	rt := New(zap.NewNop().Sugar())
	_, err := rt.Dispatch("loadDocx", gjson.Parse(`{"docx":"not base64!!!"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed document")
}

func TestUnknownMethodAndSession(t *testing.T) {
	rt := New(zap.NewNop().Sugar())

	_, err := rt.Dispatch("frobnicate", gjson.Parse(`{}`))
	require.Error(t, err)

	_, err = rt.Dispatch("getHTML", gjson.Parse(`{"sessionId":"nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session")
}

func TestServerProtocol(t *testing.T) {
	srv := httptest.NewServer(NewServer(zap.NewNop().Sugar()).Handler())
	t.Cleanup(srv.Close)

	post := func(body string) gjson.Result {
		resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte(body)))
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return gjson.ParseBytes(b)
	}

	reply := post(`{"method":"ping","params":{}}`)
	assert.True(t, reply.Get("result.pong").Bool())
	assert.False(t, reply.Get("error").Exists())

	reply = post(`{"method":"getHTML","params":{"sessionId":"nope"}}`)
	assert.True(t, reply.Get("error").Exists())
	assert.False(t, reply.Get("result").Exists())

	reply = post(`not json`)
	assert.True(t, reply.Get("error").Exists())
}
