package superdoc

import (
	"os"
	"path/filepath"

	"github.com/harbour-enterprises/superdoc-go/internal/files"
)

// resolveCommand determines the argv and working directory used to spawn
// the runtime. The allocated port is appended by the caller as the final
// argument.
//
// Discovery is a deterministic layered search: an explicit Command wins,
// then an explicit ServiceDir, then a "service" directory bundled next to
// the host executable, then a development-tree "service" directory found by
// walking up from the working directory. Inside the service directory the
// built entry point dist/index.js is preferred, with the legacy server.mjs
// accepted for older service layouts.
func (s *Supervisor) resolveCommand() (argv []string, dir string, err error) {
	if len(s.cfg.Command) > 0 {
		return s.cfg.Command, s.cfg.ServiceDir, nil
	}

	serviceDir, err := s.findServiceDir()
	if err != nil {
		return nil, "", err
	}
	script, err := findServerScript(serviceDir)
	if err != nil {
		return nil, "", err
	}
	if err := checkDependenciesInstalled(serviceDir); err != nil {
		return nil, "", err
	}

	return []string{"node", script}, serviceDir, nil
}

func (s *Supervisor) findServiceDir() (string, error) {
	if s.cfg.ServiceDir != "" {
		if _, err := os.Stat(s.cfg.ServiceDir); err != nil {
			return "", wrapError(KindConfiguration, err, "service directory %q not found", s.cfg.ServiceDir)
		}
		return s.cfg.ServiceDir, nil
	}

	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "service"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, files.FindUp("service", wd))
	}

	if dir := files.FirstExisting(candidates...); dir != "" {
		return dir, nil
	}
	return "", newError(KindConfiguration, "service directory not found; set ServiceDir or install the SDK with its bundled service")
}

func findServerScript(serviceDir string) (string, error) {
	script := files.FirstExisting(
		filepath.Join(serviceDir, "dist", "index.js"),
		filepath.Join(serviceDir, "server.mjs"),
	)
	if script == "" {
		return "", newError(KindConfiguration, "server script not found in %s; run 'npm run build' there", serviceDir)
	}
	return script, nil
}

// checkDependenciesInstalled verifies the service's npm dependencies are
// present. The SDK reports what to run rather than shelling out to npm.
func checkDependenciesInstalled(serviceDir string) error {
	if _, err := os.Stat(filepath.Join(serviceDir, "node_modules")); err != nil {
		return newError(KindConfiguration, "node_modules not found in %s; run 'npm install' there", serviceDir)
	}
	return nil
}
