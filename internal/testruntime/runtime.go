// Package testruntime is an in-process stand-in for the SuperDoc document
// runtime. It speaks the full JSON protocol with a deliberately simple
// document model: a document is its original bytes plus the list of
// content blocks inserted into it. Exporting a document nothing was
// inserted into returns the original bytes verbatim, so canonical
// round-trips are byte-identical; otherwise the export is an envelope that
// a later load unpacks, so inserted content survives reloads.
package testruntime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Lifecycle states, matching what the real runtime reports.
const (
	StateIdle      = "idle"
	StateReady     = "ready"
	StateDestroyed = "destroyed"
)

type session struct {
	lifecycle string
	doc       *document
}

type document struct {
	body   []byte
	blocks []string
}

// envelope is the export format used once a document has been modified.
type envelope struct {
	Magic  string   `json:"superdocTestEnvelope"`
	Body   string   `json:"body"`
	Blocks []string `json:"blocks"`
}

const envelopeMagic = "v1"

// Runtime implements the document runtime's method set over an in-memory
// session table.
type Runtime struct {
	logger *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(logger *zap.SugaredLogger) *Runtime {
	return &Runtime{
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Dispatch executes one method call and returns the result value, or an
// application error to be placed in the reply's error field.
func (r *Runtime) Dispatch(method string, p gjson.Result) (interface{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch method {
	case "ping":
		return map[string]interface{}{"pong": true}, nil
	case "loadDocx":
		return r.loadDocx(p)
	case "getJSON":
		return r.withReady(p, func(s *session) (interface{}, error) {
			return s.doc.tree(), nil
		})
	case "getHTML":
		return r.withReady(p, func(s *session) (interface{}, error) {
			return s.doc.html(), nil
		})
	case "getMarkdown":
		return r.withReady(p, func(s *session) (interface{}, error) {
			return s.doc.markdown(), nil
		})
	case "getMetadata":
		return r.withReady(p, func(s *session) (interface{}, error) {
			return map[string]interface{}{
				"size":   len(s.doc.body),
				"blocks": len(s.doc.blocks),
			}, nil
		})
	case "insertContent":
		return r.withReady(p, func(s *session) (interface{}, error) {
			content := p.Get("content")
			if !content.Exists() {
				return nil, fmt.Errorf("insertContent requires content")
			}
			if content.Type == gjson.String {
				s.doc.blocks = append(s.doc.blocks, content.String())
			} else {
				s.doc.blocks = append(s.doc.blocks, content.Raw)
			}
			return map[string]interface{}{"inserted": true}, nil
		})
	case "exportDocx":
		return r.withReady(p, func(s *session) (interface{}, error) {
			out, err := s.doc.serialize()
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"docx": base64.StdEncoding.EncodeToString(out),
			}, nil
		})
	case "close":
		s, err := r.lookup(p)
		if err != nil {
			return nil, err
		}
		s.doc = nil
		s.lifecycle = StateIdle
		return map[string]interface{}{"closed": true}, nil
	case "open":
		s, err := r.lookup(p)
		if err != nil {
			return nil, err
		}
		doc, err := parseDocx(p.Get("docx").String())
		if err != nil {
			return nil, err
		}
		s.doc = doc
		s.lifecycle = StateReady
		return map[string]interface{}{"opened": true}, nil
	case "getLifecycle":
		id := p.Get("sessionId").String()
		s, ok := r.sessions[id]
		if !ok {
			return map[string]interface{}{"lifecycle": StateDestroyed}, nil
		}
		return map[string]interface{}{"lifecycle": s.lifecycle}, nil
	case "destroy":
		id := p.Get("sessionId").String()
		delete(r.sessions, id)
		return map[string]interface{}{"destroyed": true}, nil
	}
	return nil, fmt.Errorf("unknown method %q", method)
}

func (r *Runtime) loadDocx(p gjson.Result) (interface{}, error) {
	doc, err := parseDocx(p.Get("docx").String())
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	r.sessions[id] = &session{lifecycle: StateReady, doc: doc}
	r.logger.Debugw("loaded document", "sessionId", id, "bytes", len(doc.body))
	return map[string]interface{}{"sessionId": id}, nil
}

func (r *Runtime) lookup(p gjson.Result) (*session, error) {
	id := p.Get("sessionId").String()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return s, nil
}

func (r *Runtime) withReady(p gjson.Result, fn func(*session) (interface{}, error)) (interface{}, error) {
	s, err := r.lookup(p)
	if err != nil {
		return nil, err
	}
	if s.lifecycle != StateReady {
		return nil, fmt.Errorf("session is %s, not ready", s.lifecycle)
	}
	return fn(s)
}

func parseDocx(b64 string) (*document, error) {
	if b64 == "" {
		return nil, fmt.Errorf("loadDocx requires docx")
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("malformed document: %v", err)
	}
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Magic == envelopeMagic {
		body, err := base64.StdEncoding.DecodeString(env.Body)
		if err != nil {
			return nil, fmt.Errorf("malformed envelope body: %v", err)
		}
		return &document{body: body, blocks: env.Blocks}, nil
	}
	return &document{body: raw}, nil
}

func (d *document) serialize() ([]byte, error) {
	if len(d.blocks) == 0 {
		return d.body, nil
	}
	return json.Marshal(envelope{
		Magic:  envelopeMagic,
		Body:   base64.StdEncoding.EncodeToString(d.body),
		Blocks: d.blocks,
	})
}

func (d *document) html() string {
	out := "<article>"
	for _, b := range d.blocks {
		out += b
	}
	return out + "</article>"
}

func (d *document) markdown() string {
	out := ""
	for _, b := range d.blocks {
		out += b + "\n"
	}
	return out
}

func (d *document) tree() map[string]interface{} {
	content := make([]interface{}, 0, len(d.blocks))
	for _, b := range d.blocks {
		content = append(content, map[string]interface{}{
			"type": "block",
			"text": b,
		})
	}
	return map[string]interface{}{
		"type":    "doc",
		"content": content,
	}
}
