package testruntime

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Server serves the runtime protocol: POST to the root path only, always
// answering 200 with a JSON body carrying either result or error.
type Server struct {
	runtime *Runtime
	logger  *zap.SugaredLogger
}

func NewServer(logger *zap.SugaredLogger) *Server {
	return &Server{
		runtime: New(logger),
		logger:  logger,
	}
}

// Handler returns the HTTP handler for the protocol.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.POST("/", s.handleCall)
	return router
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.reply(w, nil, fmt.Errorf("reading request: %w", err))
		return
	}
	if !gjson.ValidBytes(body) {
		s.reply(w, nil, fmt.Errorf("malformed request body"))
		return
	}

	method := gjson.GetBytes(body, "method").String()
	p := gjson.GetBytes(body, "params")
	s.logger.Debugw("handling call", "method", method)

	result, err := s.runtime.Dispatch(method, p)
	s.reply(w, result, err)
}

func (s *Server) reply(w http.ResponseWriter, result interface{}, err error) {
	w.Header().Add("Content-Type", "application/json")
	var b []byte
	var marshalErr error
	if err != nil {
		b, marshalErr = json.Marshal(map[string]interface{}{"error": err.Error()})
	} else {
		b, marshalErr = json.Marshal(map[string]interface{}{"result": result})
	}
	if marshalErr != nil {
		s.logger.Errorf("marshaling reply: %s", marshalErr)
		b = []byte(`{"error":"internal marshaling failure"}`)
	}
	w.Write(b)
}

// Main runs the runtime as a standalone process bound to the given
// loopback port, the way the supervisor spawns the real one: listen before
// answering ping, serve until SIGTERM or SIGINT. Supervisor tests re-exec
// the test binary into this.
func Main(portArg string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	s := NewServer(logger.Named("testruntime").Sugar())

	listener, err := net.Listen("tcp", "127.0.0.1:"+portArg)
	if err != nil {
		return fmt.Errorf("listening on port %s: %w", portArg, err)
	}

	server := &http.Server{Handler: s.Handler()}
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(listener)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sigChan:
		return server.Close()
	case err := <-errChan:
		return err
	}
}
