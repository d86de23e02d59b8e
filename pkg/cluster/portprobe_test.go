package cluster

import (
	"net"
	"testing"
)

func TestTCPPortProbe_IsFree(t *testing.T) {
	probe := NewTCPPortProbe()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	if probe.IsFree(port) {
		t.Errorf("port %d is bound but reported free", port)
	}

	listener.Close()

	if !probe.IsFree(port) {
		t.Errorf("port %d was released but reported occupied", port)
	}
}
