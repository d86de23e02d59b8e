package cluster

import (
	"context"
	"fmt"
	"log"
	"os"
)

// EngineResolver locates the on-disk configuration of a named engine. The
// engine itself is built by an external pipeline, the controller only checks
// existence and places runtime artifacts. RuntimeDir is a pure path lookup,
// only PrepareRuntime touches the filesystem.
type EngineResolver interface {
	Exists(name string) bool
	RuntimeDir(name string) string
	PrepareRuntime(name string) (string, error)
}

// Controller composes port preflight, remote host validation, node
// supervision and the model sync barrier into the cluster lifecycle
// operations. All collaborators are injected explicitly, there is no runtime
// discovery of components.
type Controller struct {
	supervisor NodeSupervisor
	prober     PortProber
	verifier   HostVerifier
	barrier    SyncBarrier
	engines    EngineResolver
}

// NewController assembles a controller from its collaborators.
func NewController(supervisor NodeSupervisor, prober PortProber, verifier HostVerifier, barrier SyncBarrier, engines EngineResolver) *Controller {
	return &Controller{
		supervisor: supervisor,
		prober:     prober,
		verifier:   verifier,
		barrier:    barrier,
		engines:    engines,
	}
}

// Start brings up the requested topology, master before worker, or fails
// without leaving behind any process this invocation started. ctx bounds the
// blocking steps, including the model sync wait.
func (controller *Controller) Start(ctx context.Context, config StartConfig) (*Handle, error) {
	if err := validateStartConfig(config); err != nil {
		return nil, err
	}

	if config.Master != nil && config.Master.PemPath != "" {
		if err := controller.verifier.Verify(*config.Master); err != nil {
			return nil, err
		}
	}

	apiPort := config.APIPort
	if apiPort == 0 {
		apiPort = DefaultAPIPort
	}
	clusterPorts := config.ClusterPorts
	if clusterPorts == [2]int{} {
		clusterPorts = [2]int{DefaultClusterPort, DefaultClusterPort + 1}
	}

	if err := controller.preflight(config, apiPort, clusterPorts); err != nil {
		return nil, err
	}

	if config.HasMaster() && !controller.engines.Exists(config.Engine) {
		return nil, NewError(IllegalStateError, fmt.Sprintf("engine '%s' not found, did you run 'mmt create' first?", config.Engine))
	}

	runtimeDir, err := controller.engines.PrepareRuntime(config.Engine)
	if err != nil {
		return nil, WrapError(IllegalStateError, fmt.Sprintf("cannot prepare runtime directory for engine '%s'", config.Engine), err)
	}

	handle := &Handle{
		Engine:       config.Engine,
		APIPort:      apiPort,
		ClusterPorts: clusterPorts,
	}

	if config.HasMaster() {
		master := NewMasterNode(config.Engine, runtimeDir, apiPort, clusterPorts)
		if err := controller.supervisor.Start(ctx, master); err != nil {
			return nil, err
		}
		handle.Master = master
	}

	if config.HasWorker() {
		worker := NewWorkerNode(config.Engine, runtimeDir, clusterPorts, config.Master)
		if err := controller.supervisor.Start(ctx, worker); err != nil {
			controller.rollback(ctx, handle)
			return nil, err
		}
		handle.Worker = worker

		if err := controller.barrier.Wait(ctx, worker); err != nil {
			controller.rollback(ctx, handle)
			return nil, err
		}
	}

	return handle, nil
}

// Stop probes both roles independent of what this process instance started
// and stops whichever is running. It is idempotent, and a failure on one role
// does not prevent attempting the other.
func (controller *Controller) Stop(ctx context.Context, engineName string) error {
	var firstErr error

	for _, role := range []NodeRole{RoleMaster, RoleWorker} {
		node := controller.loadNode(engineName, role)

		if err := controller.supervisor.Stop(ctx, node); err != nil {
			log.Printf("failed to stop %s node of engine '%s': %v", role, engineName, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Status is a pure read of both roles' liveness.
func (controller *Controller) Status(engineName string) (Status, error) {
	status := Status{Master: StateStopped, Worker: StateStopped}

	for _, role := range []NodeRole{RoleMaster, RoleWorker} {
		node := controller.loadNode(engineName, role)

		if controller.supervisor.IsRunning(node) {
			switch role {
			case RoleMaster:
				status.Master = StateRunning
			case RoleWorker:
				status.Worker = StateRunning
			}
		}
	}

	return status, nil
}

// rollback stops only what this invocation started, worker first. Stop errors
// are logged but do not mask the original failure.
func (controller *Controller) rollback(ctx context.Context, handle *Handle) {
	if handle.Worker != nil {
		if err := controller.supervisor.Stop(ctx, handle.Worker); err != nil {
			log.Printf("rollback: failed to stop worker node: %v", err)
		}
	}
	if handle.Master != nil {
		if err := controller.supervisor.Stop(ctx, handle.Master); err != nil {
			log.Printf("rollback: failed to stop master node: %v", err)
		}
	}
}

func (controller *Controller) preflight(config StartConfig, apiPort int, clusterPorts [2]int) error {
	var ports []int
	if config.HasMaster() {
		ports = append(ports, apiPort)
	}
	if config.HasWorker() {
		ports = append(ports, clusterPorts[0], clusterPorts[1])
	}

	for _, port := range ports {
		if !controller.prober.IsFree(port) {
			return NewError(IllegalStateError, fmt.Sprintf("port %d is already in use", port))
		}
	}
	return nil
}

// loadNode rebuilds a node descriptor from its persisted record, falling back
// to defaults on a cold engine so probes still work. It never touches the
// filesystem beyond reading the record.
func (controller *Controller) loadNode(engineName string, role NodeRole) *Node {
	runtimeDir := controller.engines.RuntimeDir(engineName)

	if node := LoadNodeRecord(runtimeDir, role); node != nil {
		return node
	}

	clusterPorts := [2]int{DefaultClusterPort, DefaultClusterPort + 1}
	if role == RoleMaster {
		return NewMasterNode(engineName, runtimeDir, DefaultAPIPort, clusterPorts)
	}
	return NewWorkerNode(engineName, runtimeDir, clusterPorts, nil)
}

func validateStartConfig(config StartConfig) error {
	if config.Engine == "" {
		return NewError(ConfigurationError, "engine name cannot be empty")
	}

	if config.Master != nil {
		if config.Master.Host == "" {
			return NewError(ConfigurationError, "remote master host cannot be empty")
		}
		if config.Master.User == "" {
			return NewError(ConfigurationError, "remote master user cannot be empty")
		}
		if config.APIPortSet {
			return NewError(ConfigurationError, "the api port cannot be set when attaching to a remote master, a worker-only instance has no public API")
		}
		if config.NoSlave {
			return NewError(ConfigurationError, "a remote master cannot be combined with --no-slave")
		}
		if config.Master.PemPath != "" {
			if _, err := os.Stat(config.Master.PemPath); err != nil {
				return WrapError(ConfigurationError, fmt.Sprintf("identity file %s not found", config.Master.PemPath), err)
			}
		}
	}

	return nil
}
