package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// NodeSupervisor starts, probes and stops a single node process. A fresh
// controller invocation must be able to probe and stop nodes it did not
// start itself, so no implementation may rely on in-memory bookkeeping.
type NodeSupervisor interface {
	Start(ctx context.Context, node *Node) error
	IsRunning(node *Node) bool
	Stop(ctx context.Context, node *Node) error
}

// ProcessSupervisor runs nodes as detached OS processes. Each node is a
// re-execution of the mmt binary with a hidden subcommand, started in its own
// session so it survives the controller exiting, with output redirected to a
// per-node log file and the PID persisted next to it.
type ProcessSupervisor struct {
	// StartupTimeout bounds the wait for process-level liveness after spawn.
	StartupTimeout time.Duration
	// GracePeriod bounds the wait for graceful termination before SIGKILL.
	GracePeriod time.Duration

	prober PortProber
	binary string
}

var _ NodeSupervisor = &ProcessSupervisor{}

// NewProcessSupervisor creates a supervisor spawning nodes from the currently
// running binary.
func NewProcessSupervisor(prober PortProber) *ProcessSupervisor {
	binary, err := os.Executable()
	if err != nil {
		binary = os.Args[0]
	}
	return &ProcessSupervisor{
		StartupTimeout: 30 * time.Second,
		GracePeriod:    time.Minute,
		prober:         prober,
		binary:         binary,
	}
}

// Start spawns the node detached and waits for process-level liveness within
// the startup window. It does not guarantee application-level readiness, that
// is the sync barrier's job. A failed start kills the spawned process before
// returning, the caller never has to clean up after it.
func (supervisor *ProcessSupervisor) Start(ctx context.Context, node *Node) error {
	node.State = StateStarting

	if err := os.MkdirAll(filepath.Dir(node.LogFile), 0755); err != nil {
		return WrapError(StartFailure, fmt.Sprintf("cannot create log directory for %s node", node.Role), err)
	}
	if node.StatusFile != "" {
		// stale artifact from a previous run must not satisfy the barrier
		os.Remove(node.StatusFile)
	}

	logFile, err := os.OpenFile(node.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return WrapError(StartFailure, fmt.Sprintf("cannot open log file %s", node.LogFile), err)
	}
	defer logFile.Close()

	process := exec.Command(supervisor.binary, DaemonArgs(node)...)
	process.Stdout = logFile
	process.Stderr = logFile
	process.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := process.Start(); err != nil {
		node.State = StateFailed
		return WrapError(StartFailure, fmt.Sprintf("cannot spawn %s node", node.Role), err)
	}

	pid := process.Process.Pid
	if err := os.WriteFile(node.PidFile, []byte(strconv.Itoa(pid)), 0644); err != nil {
		supervisor.reap(process, node)
		node.State = StateFailed
		return WrapError(StartFailure, fmt.Sprintf("cannot write pid file %s", node.PidFile), err)
	}
	if err := SaveNodeRecord(node); err != nil {
		supervisor.reap(process, node)
		node.State = StateFailed
		return err
	}

	if err := supervisor.awaitLiveness(ctx, node, pid); err != nil {
		supervisor.reap(process, node)
		node.State = StateFailed
		return err
	}
	process.Process.Release()

	node.State = StateRunning
	return nil
}

func (supervisor *ProcessSupervisor) awaitLiveness(ctx context.Context, node *Node, pid int) error {
	deadline := time.Now().Add(supervisor.StartupTimeout)

	for time.Now().Before(deadline) {
		if supervisor.IsRunning(node) {
			return nil
		}
		if !processAlive(pid) {
			return NewError(StartFailure, fmt.Sprintf("%s node exited during startup, see %s", node.Role, node.LogFile))
		}

		select {
		case <-ctx.Done():
			return WrapError(StartFailure, fmt.Sprintf("%s node startup canceled", node.Role), ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}
	}

	return NewError(StartFailure, fmt.Sprintf("%s node did not reach a running state within %s, see %s",
		node.Role, supervisor.StartupTimeout, node.LogFile))
}

// IsRunning probes the node's control port over loopback. It makes no
// assumption about which process started the node.
func (supervisor *ProcessSupervisor) IsRunning(node *Node) bool {
	return !supervisor.prober.IsFree(node.ProbePort())
}

// Stop requests graceful termination, waits up to the grace period and
// escalates to SIGKILL. Stopping a node that is not running is a no-op.
func (supervisor *ProcessSupervisor) Stop(ctx context.Context, node *Node) error {
	pid, pidErr := readPidFile(node.PidFile)

	if !supervisor.IsRunning(node) && (pidErr != nil || !processAlive(pid)) {
		supervisor.cleanup(node)
		node.State = StateStopped
		return nil
	}

	if pidErr != nil {
		return WrapError(StopFailure, fmt.Sprintf("%s node appears to be running but its pid file is unreadable", node.Role), pidErr)
	}

	node.State = StateStopping
	syscall.Kill(pid, syscall.SIGTERM)

	if supervisor.awaitExit(ctx, node, pid, supervisor.GracePeriod) {
		supervisor.cleanup(node)
		node.State = StateStopped
		return nil
	}

	syscall.Kill(pid, syscall.SIGKILL)
	if supervisor.awaitExit(ctx, node, pid, 10*time.Second) {
		supervisor.cleanup(node)
		node.State = StateStopped
		return nil
	}

	return NewError(StopFailure, fmt.Sprintf("%s node (pid %d) did not confirm termination", node.Role, pid))
}

func (supervisor *ProcessSupervisor) awaitExit(ctx context.Context, node *Node, pid int, window time.Duration) bool {
	deadline := time.Now().Add(window)

	for time.Now().Before(deadline) {
		if !processAlive(pid) && supervisor.prober.IsFree(node.ProbePort()) {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(200 * time.Millisecond):
		}
	}

	return false
}

// reap kills a spawned process that never reached liveness, collects its exit
// status and removes its runtime artifacts, so a failed Start leaves no
// process behind.
func (supervisor *ProcessSupervisor) reap(process *exec.Cmd, node *Node) {
	pid := process.Process.Pid
	syscall.Kill(pid, syscall.SIGTERM)

	exited := make(chan struct{})
	go func() {
		process.Wait()
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(10 * time.Second):
		syscall.Kill(pid, syscall.SIGKILL)
		<-exited
	}

	supervisor.cleanup(node)
}

func (supervisor *ProcessSupervisor) cleanup(node *Node) {
	os.Remove(node.PidFile)
	os.Remove(NodeRecordPath(filepath.Dir(node.PidFile), node.Role))
	if node.StatusFile != "" {
		os.Remove(node.StatusFile)
	}
}

// DaemonArgs renders the command line of the detached node process.
func DaemonArgs(node *Node) []string {
	ports := fmt.Sprintf("%d,%d", node.ClusterPorts[0], node.ClusterPorts[1])

	if node.Role == RoleMaster {
		return []string{
			"master-node",
			"--engine", node.Engine,
			"--api-port", strconv.Itoa(node.APIPort),
			"--cluster-ports", ports,
		}
	}

	args := []string{
		"worker-node",
		"--engine", node.Engine,
		"--cluster-ports", ports,
		"--status-file", node.StatusFile,
	}
	if node.Master != nil {
		args = append(args, "--master-host", node.Master.Host, "--master-user", node.Master.User)
		if node.Master.Password != "" {
			args = append(args, "--master-passwd", node.Master.Password)
		}
		if node.Master.PemPath != "" {
			args = append(args, "--master-pem", node.Master.PemPath)
		}
	}
	return args
}

// NodeRecordPath is the location of the persisted node record, which lets a
// fresh invocation rediscover the ports a node was started with.
func NodeRecordPath(runtimeDir string, role NodeRole) string {
	return filepath.Join(runtimeDir, string(role)+".json")
}

// SaveNodeRecord persists the node descriptor next to its pid file.
func SaveNodeRecord(node *Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return WrapError(StartFailure, fmt.Sprintf("cannot encode %s node record", node.Role), err)
	}

	recordPath := NodeRecordPath(filepath.Dir(node.PidFile), node.Role)
	if err := os.WriteFile(recordPath, data, 0644); err != nil {
		return WrapError(StartFailure, fmt.Sprintf("cannot write %s node record", node.Role), err)
	}
	return nil
}

// LoadNodeRecord reads a persisted node record, returning nil when none
// exists.
func LoadNodeRecord(runtimeDir string, role NodeRole) *Node {
	data, err := os.ReadFile(NodeRecordPath(runtimeDir, role))
	if err != nil {
		return nil
	}

	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil
	}
	return &node
}

func readPidFile(pidFile string) (int, error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %v", pidFile, err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
