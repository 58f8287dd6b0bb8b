package superdoc

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for the supervisor and clients. All are overridable with
// options on NewSupervisor, NewClient, and NewPooledClient.
const (
	DefaultStartTimeout       = 30 * time.Second
	DefaultPollInterval       = 200 * time.Millisecond
	DefaultHealthCheckTimeout = 1 * time.Second
	DefaultShutdownGrace      = 5 * time.Second
	DefaultCallTimeout        = 60 * time.Second
	DefaultMaxRestartAttempts = 3
	DefaultRestartBackoff     = 1 * time.Second
)

// Config holds the tunables shared by the supervisor and clients.
type Config struct {
	// StartTimeout bounds how long the supervisor waits for a freshly
	// spawned runtime to answer its first health check.
	StartTimeout time.Duration
	// PollInterval is the delay between readiness probes during startup.
	PollInterval time.Duration
	// HealthCheckTimeout bounds a single health probe exchange.
	HealthCheckTimeout time.Duration
	// ShutdownGrace is how long Stop waits for graceful termination before
	// killing the process.
	ShutdownGrace time.Duration
	// CallTimeout is the default per-call deadline applied by clients when
	// the caller's context carries none.
	CallTimeout time.Duration
	// MaxRestartAttempts is the restart budget: consecutive crashes beyond
	// this ceiling put the supervisor into the crash-loop state.
	MaxRestartAttempts int
	// RestartBackoff is the fixed delay before respawning a crashed runtime.
	RestartBackoff time.Duration

	// Command overrides runtime discovery: the full argv used to spawn the
	// runtime. The allocated port is appended as the final argument.
	Command []string
	// ServiceDir overrides the layered search for the runtime's service
	// directory.
	ServiceDir string
}

func defaultConfig() Config {
	return Config{
		StartTimeout:       DefaultStartTimeout,
		PollInterval:       DefaultPollInterval,
		HealthCheckTimeout: DefaultHealthCheckTimeout,
		ShutdownGrace:      DefaultShutdownGrace,
		CallTimeout:        DefaultCallTimeout,
		MaxRestartAttempts: DefaultMaxRestartAttempts,
		RestartBackoff:     DefaultRestartBackoff,
	}
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(s *Supervisor)

// WithLogger sets the logger used by the supervisor and its health prober.
func WithLogger(l *zap.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l.Named("superdoc_supervisor").Sugar()
	}
}

// WithConfig replaces the whole config. Zero fields are backfilled with
// defaults.
func WithConfig(cfg Config) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg = fillConfig(cfg)
	}
}

// WithCommand sets the argv used to spawn the runtime, bypassing script
// discovery. The allocated port is appended as the final argument.
func WithCommand(argv ...string) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.Command = argv
	}
}

// WithServiceDir sets the runtime's service directory, bypassing the
// layered search.
func WithServiceDir(dir string) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.ServiceDir = dir
	}
}

// WithStartTimeout bounds the readiness wait after a spawn.
func WithStartTimeout(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.StartTimeout = d
	}
}

// WithMaxRestartAttempts sets the restart budget ceiling.
func WithMaxRestartAttempts(n int) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.MaxRestartAttempts = n
	}
}

// WithRestartBackoff sets the fixed delay before respawning after a crash.
func WithRestartBackoff(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.RestartBackoff = d
	}
}

// WithPollInterval sets the delay between readiness probes.
func WithPollInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.PollInterval = d
	}
}

// WithHealthCheckTimeout bounds a single health probe.
func WithHealthCheckTimeout(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.HealthCheckTimeout = d
	}
}

// WithShutdownGrace sets the graceful-termination window used by Stop.
func WithShutdownGrace(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		s.cfg.ShutdownGrace = d
	}
}

func fillConfig(cfg Config) Config {
	def := defaultConfig()
	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = def.StartTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.HealthCheckTimeout == 0 {
		cfg.HealthCheckTimeout = def.HealthCheckTimeout
	}
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = def.ShutdownGrace
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if cfg.MaxRestartAttempts == 0 {
		cfg.MaxRestartAttempts = def.MaxRestartAttempts
	}
	if cfg.RestartBackoff == 0 {
		cfg.RestartBackoff = def.RestartBackoff
	}
	return cfg
}
