package cluster

import (
	"net"
	"strconv"
	"time"
)

// PortProber checks whether a TCP port is free on the local host.
type PortProber interface {
	IsFree(port int) bool
}

// TCPPortProbe probes ports by attempting a loopback connection: a refused
// connection means free, an accepted one means occupied. A service bound only
// to a non-loopback interface is not detected. This is an accepted heuristic,
// not a guarantee, and intentionally not a bind-and-release check.
type TCPPortProbe struct {
	Timeout time.Duration
}

// NewTCPPortProbe creates a probe with a short connect timeout.
func NewTCPPortProbe() *TCPPortProbe {
	return &TCPPortProbe{Timeout: 2 * time.Second}
}

// IsFree reports whether nothing accepts loopback connections on port.
func (probe *TCPPortProbe) IsFree(port int) bool {
	address := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", address, probe.Timeout)
	if err != nil {
		return true
	}
	conn.Close()
	return false
}
