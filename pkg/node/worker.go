package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/naelmusleh/modernmt/pkg/cluster"
	"github.com/naelmusleh/modernmt/pkg/engine"
)

// Worker performs translation work against a model set replicated from its
// upstream master. Its readiness artifact — a plain text status file holding
// "ready" or "error" — is the cross-process contract with the supervisor
// that spawned it, and is written exactly once.
type Worker struct {
	engine       *engine.Engine
	master       *cluster.RemoteHost
	clusterPorts [2]int
	statusFile   string
	remote       cluster.RemoteRunner
	hostname     string
	statusKnown  bool

	// TerminationTimeout bounds the graceful teardown after a stop signal.
	TerminationTimeout time.Duration
	// HeartbeatInterval paces control-channel heartbeats to the master.
	HeartbeatInterval time.Duration
}

// NewWorker creates a worker node. A nil master means the upstream is the
// locally running master of the same engine.
func NewWorker(e *engine.Engine, master *cluster.RemoteHost, clusterPorts [2]int, statusFile string) *Worker {
	hostname, _ := os.Hostname()
	return &Worker{
		engine:             e,
		master:             master,
		clusterPorts:       clusterPorts,
		statusFile:         statusFile,
		remote:             cluster.NewSSHConnector(false),
		hostname:           hostname,
		TerminationTimeout: 24 * time.Hour,
		HeartbeatInterval:  5 * time.Second,
	}
}

// Run initializes the worker, reports the outcome through the status file and
// then serves until ctx is canceled. The status file is written even when
// initialization panics.
func (worker *Worker) Run(ctx context.Context) error {
	ready := false
	defer func() {
		worker.writeStatus(ready)
	}()

	// bind the data port first so the supervisor's liveness probe sees the
	// process before model sync completes
	data, err := net.Listen("tcp", fmt.Sprintf(":%d", worker.clusterPorts[1]))
	if err != nil {
		return fmt.Errorf("cannot bind data port: %w", err)
	}
	defer data.Close()

	if err := worker.syncModels(); err != nil {
		return fmt.Errorf("model sync failed: %w", err)
	}

	control, err := worker.register()
	if err != nil {
		return fmt.Errorf("cannot register with master: %w", err)
	}
	defer control.Close()

	ready = true
	worker.writeStatus(true)
	log.Printf("worker node for engine '%s' ready, data on :%d", worker.engine.Name, worker.clusterPorts[1])

	go worker.heartbeat(ctx, control)
	go worker.acceptLoop(data)

	<-ctx.Done()
	return worker.shutdown(data)
}

// syncModels replicates model state from the upstream master. With a local
// master the models are already on disk and only verified; with a remote
// master every model file is fetched over SSH.
func (worker *Worker) syncModels() error {
	if worker.master == nil {
		if !worker.engine.HasModels() {
			return fmt.Errorf("engine '%s' has no local models", worker.engine.Name)
		}
		return nil
	}

	remoteModels, err := worker.remoteModelsDir()
	if err != nil {
		return err
	}

	listing, err := worker.remote.RunCmd(*worker.master, "ls -1 "+remoteModels)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(worker.engine.ModelsDir(), 0755); err != nil {
		return err
	}

	for _, name := range strings.Fields(listing) {
		content, err := worker.remote.ReadFile(*worker.master, remoteModels+"/"+name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(worker.engine.ModelsDir(), name), content, 0644); err != nil {
			return err
		}
		log.Printf("replicated model file %s (%d bytes)", name, len(content))
	}

	return nil
}

// remoteModelsDir resolves the model directory on the master host, honoring
// an MMT_HOME set there.
func (worker *Worker) remoteModelsDir() (string, error) {
	home, err := worker.remote.RunCmd(*worker.master, "echo ${MMT_HOME:-$HOME/.modernmt}")
	if err != nil {
		return "", err
	}

	home = strings.TrimSpace(home)
	if home == "" {
		home = "$HOME/.modernmt"
	}
	return fmt.Sprintf("%s/engines/%s/models", home, worker.engine.Name), nil
}

func (worker *Worker) register() (net.Conn, error) {
	host := "127.0.0.1"
	if worker.master != nil {
		host = worker.master.Host
	}

	address := fmt.Sprintf("%s:%d", host, worker.clusterPorts[0])
	conn, err := net.DialTimeout("tcp", address, 10*time.Second)
	if err != nil {
		return nil, err
	}

	msg := map[string]string{"type": "register", "name": worker.hostname, "engine": worker.engine.Name}
	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (worker *Worker) heartbeat(ctx context.Context, control net.Conn) {
	ticker := time.NewTicker(worker.HeartbeatInterval)
	defer ticker.Stop()

	encoder := json.NewEncoder(control)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := map[string]string{"type": "heartbeat", "name": worker.hostname, "engine": worker.engine.Name}
			if err := encoder.Encode(msg); err != nil {
				return
			}
		}
	}
}

func (worker *Worker) acceptLoop(data net.Listener) {
	for {
		conn, err := data.Accept()
		if err != nil {
			return
		}
		// translation work units arrive here; the decoding engine behind
		// this channel is an external collaborator
		conn.Close()
	}
}

func (worker *Worker) shutdown(data net.Listener) error {
	log.Println("stopping worker node")
	done := make(chan struct{})
	go func() {
		data.Close()
		close(done)
	}()

	select {
	case <-done:
		log.Println("worker node terminated")
		return nil
	case <-time.After(worker.TerminationTimeout):
		return fmt.Errorf("worker did not terminate within %s", worker.TerminationTimeout)
	}
}

func (worker *Worker) writeStatus(ready bool) {
	if worker.statusKnown {
		return
	}
	worker.statusKnown = true

	status := "error"
	if ready {
		status = "ready"
	}

	if err := os.WriteFile(worker.statusFile, []byte(status), 0644); err != nil {
		log.Printf("cannot write status file %s: %v", worker.statusFile, err)
	}
}
