package cluster

import (
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestParseRemoteHost(t *testing.T) {
	tests := []struct {
		spec string
		want *RemoteHost
	}{
		{"alice@10.0.0.5", &RemoteHost{Host: "10.0.0.5", User: "alice"}},
		{"alice:secret@10.0.0.5", &RemoteHost{Host: "10.0.0.5", User: "alice", Password: "secret"}},
		{"bob:p:ss@translate.local", &RemoteHost{Host: "translate.local", User: "bob", Password: "p:ss"}},
		{"alice", nil},
		{"alice@", nil},
		{"@10.0.0.5", nil},
		{"a@b@c", nil},
		{":secret@10.0.0.5", nil},
	}

	for _, test := range tests {
		t.Run(test.spec, func(t *testing.T) {
			host, err := ParseRemoteHost(test.spec)

			if test.want == nil {
				if err == nil {
					t.Fatalf("spec '%s' is malformed but parsed to %+v", test.spec, host)
				}
				if !IsKind(err, ConfigurationError) {
					t.Errorf("malformed spec should be a configuration error, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("spec '%s' did not parse: %v", test.spec, err)
			}
			assert.Equal(t, *host, *test.want)
		})
	}
}

func TestNode_ProbePort(t *testing.T) {
	master := NewMasterNode("default", "/tmp/runtime", 8080, [2]int{5016, 5017})
	assert.Equal(t, master.ProbePort(), 8080)

	worker := NewWorkerNode("default", "/tmp/runtime", [2]int{5016, 5017}, nil)
	assert.Equal(t, worker.ProbePort(), 5017)
}

func TestStatus_Running(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"both stopped", Status{Master: StateStopped, Worker: StateStopped}, false},
		{"master only", Status{Master: StateRunning, Worker: StateStopped}, true},
		{"worker only", Status{Master: StateStopped, Worker: StateRunning}, true},
		{"both running", Status{Master: StateRunning, Worker: StateRunning}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.status.Running() != test.want {
				t.Errorf("Running() = %t, want %t", test.status.Running(), test.want)
			}
		})
	}
}
