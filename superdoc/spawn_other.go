//go:build !linux

package superdoc

import "os/exec"

// setSpawnAttrs is a no-op where parent-death signaling is unavailable;
// cleanup relies on Stop/Shutdown being called.
func setSpawnAttrs(cmd *exec.Cmd) {}
