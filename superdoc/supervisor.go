package superdoc

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/harbour-enterprises/superdoc-go/internal/net"
)

// Supervisor owns the runtime child process: it spawns it on demand, waits
// for readiness, restarts it after crashes up to a bounded budget, and
// terminates it on shutdown. One Supervisor manages at most one runtime
// process; sessions from any number of clients share it.
//
// EnsureRunning and Stop are safe for concurrent use. The state-changing
// path (spawn, readiness wait, restart) is serialized by a single mutex;
// ordinary RPC calls against a ready endpoint do not pass through the
// supervisor at all.
type Supervisor struct {
	logger *zap.SugaredLogger
	prober *healthProber
	cfg    Config

	mu           sync.Mutex
	proc         *runtimeProc
	endpoint     string
	restartCount int
	shuttingDown bool
}

// runtimeProc is one generation of the runtime process. A new generation
// gets a new port and endpoint; endpoints cached by clients against an old
// generation fail their next call and re-resolve.
type runtimeProc struct {
	cmd    *exec.Cmd
	port   int
	output *outputBuffer
	exited chan struct{}
}

func (p *runtimeProc) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// NewSupervisor constructs a supervisor. Most applications use the shared
// Default supervisor implicitly through a client; constructing one directly
// is for embedders that need their own runtime instance or configuration.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		logger: zap.NewNop().Sugar(),
		cfg:    defaultConfig(),
	}
	for _, o := range opts {
		o(s)
	}
	s.prober = newHealthProber(s.logger, s.cfg.HealthCheckTimeout)
	return s
}

var (
	defaultMu  sync.Mutex
	defaultSup *Supervisor
)

// Default returns the process-wide shared supervisor, creating it on first
// use. All clients constructed without WithSupervisor share it, so any
// number of clients drive a single runtime process.
func Default() *Supervisor {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSup == nil {
		defaultSup = NewSupervisor()
	}
	return defaultSup
}

// Shutdown stops the shared supervisor's runtime process, if one was ever
// started. Safe to call multiple times. Clients constructed afterwards get
// a fresh supervisor and will restart the runtime on first use.
func Shutdown() error {
	defaultMu.Lock()
	sup := defaultSup
	defaultSup = nil
	defaultMu.Unlock()
	if sup == nil {
		return nil
	}
	return sup.Stop()
}

// EnsureRunning returns the endpoint of a live, health-checked runtime,
// spawning or restarting the process as needed. Concurrent callers are
// serialized; all of them observe the same endpoint.
func (s *Supervisor) EnsureRunning(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fast path: process alive and answering pings.
	if s.proc != nil && s.proc.alive() {
		if s.prober.check(ctx, s.endpoint) {
			return s.endpoint, nil
		}
		s.logger.Warnw("runtime alive but failing health checks, restarting", "endpoint", s.endpoint)
		s.terminateLocked()
	}

	// A leftover handle here means the previous generation crashed or was
	// just torn down for failing health checks. Both count against the
	// restart budget.
	if s.proc != nil {
		if s.shuttingDown {
			return "", newError(KindStartup, "supervisor is shutting down")
		}

		s.restartCount++
		if s.restartCount > s.cfg.MaxRestartAttempts {
			// The dead handle stays in place so every subsequent call lands
			// back here and fails fast instead of spawning.
			return "", newError(KindCrashLoop, "runtime crashed %d times; check the Node.js installation and runtime logs", s.cfg.MaxRestartAttempts)
		}
		s.reapLocked()
		s.logger.Infow("runtime crashed, restarting", "attempt", s.restartCount)
		select {
		case <-ctx.Done():
			return "", wrapError(KindStartup, ctx.Err(), "waiting to restart")
		case <-time.After(s.cfg.RestartBackoff):
		}
	}

	if s.shuttingDown {
		return "", newError(KindStartup, "supervisor is shutting down")
	}

	if err := s.spawnLocked(); err != nil {
		return "", err
	}

	if err := s.waitForReadyLocked(ctx); err != nil {
		return "", err
	}

	s.restartCount = 0
	return s.endpoint, nil
}

// spawnLocked resolves the runtime command, allocates a port, and starts
// the process. Called with the mutex held.
func (s *Supervisor) spawnLocked() error {
	argv, dir, err := s.resolveCommand()
	if err != nil {
		return err
	}

	port, err := net.GetEphemeralTCPPort()
	if err != nil {
		return wrapError(KindStartup, err, "allocating runtime port")
	}

	args := append(append([]string{}, argv[1:]...), strconv.Itoa(port))
	cmd := exec.Command(argv[0], args...)
	cmd.Dir = dir
	output := &outputBuffer{}
	cmd.Stdout = output
	cmd.Stderr = output
	setSpawnAttrs(cmd)

	s.logger.Infow("starting runtime", "command", argv[0], "port", port)
	if err := cmd.Start(); err != nil {
		return wrapError(KindStartup, err, "starting runtime process")
	}

	proc := &runtimeProc{
		cmd:    cmd,
		port:   port,
		output: output,
		exited: make(chan struct{}),
	}
	go func() {
		cmd.Wait()
		close(proc.exited)
	}()

	s.proc = proc
	s.endpoint = fmt.Sprintf("http://127.0.0.1:%d", port)
	return nil
}

// waitForReadyLocked polls the new process's endpoint until it answers the
// liveness probe, the process dies, or the start timeout elapses. Called
// with the mutex held.
func (s *Supervisor) waitForReadyLocked(ctx context.Context) error {
	deadline := time.NewTimer(s.cfg.StartTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if s.prober.check(ctx, s.endpoint) {
			s.logger.Infow("runtime ready", "endpoint", s.endpoint)
			return nil
		}

		select {
		case <-s.proc.exited:
			// Leave the dead handle in place so the next EnsureRunning
			// counts it against the restart budget.
			output := s.proc.output.String()
			return newError(KindStartup, "runtime process died during startup:\n%s", output)
		case <-ctx.Done():
			s.terminateLocked()
			s.reapLocked()
			return wrapError(KindStartup, ctx.Err(), "waiting for runtime readiness")
		case <-deadline.C:
			s.terminateLocked()
			s.reapLocked()
			return newError(KindStartup, "runtime failed to start within %s", s.cfg.StartTimeout)
		case <-ticker.C:
		}
	}
}

// terminateLocked stops the current process: graceful signal, bounded
// wait, then kill. The handle is left in place; reapLocked clears it.
// Called with the mutex held.
func (s *Supervisor) terminateLocked() {
	proc := s.proc
	if proc == nil || !proc.alive() {
		return
	}

	if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		proc.cmd.Process.Kill()
	}
	select {
	case <-proc.exited:
		return
	case <-time.After(s.cfg.ShutdownGrace):
	}
	proc.cmd.Process.Kill()
	<-proc.exited
}

// reapLocked discards the current process handle and endpoint. Called with
// the mutex held.
func (s *Supervisor) reapLocked() {
	s.proc = nil
	s.endpoint = ""
}

// Stop terminates the runtime process if one is running. Idempotent; safe
// to call if the process never started. After Stop the supervisor refuses
// to spawn again.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
	s.terminateLocked()
	s.reapLocked()
	return nil
}

// Running reports whether the runtime is alive and answering pings.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil && s.proc.alive() && s.endpoint != "" &&
		s.prober.check(context.Background(), s.endpoint)
}

// Endpoint returns the current endpoint, or "" if the runtime is not
// running. The value is only as fresh as the last successful health check;
// prefer EnsureRunning for a validated endpoint.
func (s *Supervisor) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}
