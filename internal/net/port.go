package net

import (
	"fmt"
	"net"
)

// GetEphemeralTCPPort reserves an unused loopback TCP port and returns it.
// The listener is closed before returning, so the port is only probably
// free; callers must tolerate the rare race with another process binding it
// first.
func GetEphemeralTCPPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("resolving 127.0.0.1:0: %w", err)
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("listening to acquire port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
