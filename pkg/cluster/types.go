package cluster

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Well-known default ports. The API port serves the public REST interface of
// a master node, the cluster ports carry master-worker synchronization.
const (
	DefaultAPIPort     = 8080
	DefaultClusterPort = 5016
)

// NodeRole discriminates the two process roles of a translation cluster.
type NodeRole string

const (
	RoleMaster NodeRole = "master"
	RoleWorker NodeRole = "worker"
)

// NodeState is the lifecycle state of a single node.
type NodeState string

const (
	StateStopped  NodeState = "stopped"
	StateStarting NodeState = "starting"
	StateRunning  NodeState = "running"
	StateStopping NodeState = "stopping"
	StateFailed   NodeState = "failed"
)

// RemoteHost describes an upstream master reachable over SSH.
type RemoteHost struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	PemPath  string `json:"pem_path,omitempty"`
}

// ParseRemoteHost parses a remote master spec of the form "user[:password]@host".
func ParseRemoteHost(spec string) (*RemoteHost, error) {
	parts := strings.Split(spec, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, NewError(ConfigurationError, fmt.Sprintf("invalid remote master '%s', expected user[:password]@host", spec))
	}

	host := &RemoteHost{Host: parts[1]}

	identity := strings.SplitN(parts[0], ":", 2)
	host.User = identity[0]
	if host.User == "" {
		return nil, NewError(ConfigurationError, fmt.Sprintf("invalid remote master '%s', user cannot be empty", spec))
	}
	if len(identity) == 2 {
		host.Password = identity[1]
	}

	return host, nil
}

// Node is one master or worker process of an engine cluster. A Node value is
// built fresh for every controller invocation, there is no process-wide
// registry of running nodes.
type Node struct {
	Role         NodeRole    `json:"role"`
	Engine       string      `json:"engine"`
	APIPort      int         `json:"api_port,omitempty"`
	ClusterPorts [2]int      `json:"cluster_ports"`
	Master       *RemoteHost `json:"master,omitempty"`
	LogFile      string      `json:"log_file"`
	PidFile      string      `json:"pid_file"`
	StatusFile   string      `json:"status_file,omitempty"`

	State NodeState `json:"-"`
}

// NewMasterNode builds the master node of an engine, with all runtime
// artifacts placed below the engine's runtime directory.
func NewMasterNode(engineName, runtimeDir string, apiPort int, clusterPorts [2]int) *Node {
	return &Node{
		Role:         RoleMaster,
		Engine:       engineName,
		APIPort:      apiPort,
		ClusterPorts: clusterPorts,
		LogFile:      filepath.Join(runtimeDir, "logs", "master.log"),
		PidFile:      filepath.Join(runtimeDir, "master.pid"),
		State:        StateStopped,
	}
}

// NewWorkerNode builds the worker node of an engine. A nil master means the
// worker replicates from the locally started master.
func NewWorkerNode(engineName, runtimeDir string, clusterPorts [2]int, master *RemoteHost) *Node {
	return &Node{
		Role:         RoleWorker,
		Engine:       engineName,
		ClusterPorts: clusterPorts,
		Master:       master,
		LogFile:      filepath.Join(runtimeDir, "logs", "worker.log"),
		PidFile:      filepath.Join(runtimeDir, "worker.pid"),
		StatusFile:   filepath.Join(runtimeDir, "worker.status"),
		State:        StateStopped,
	}
}

// ProbePort is the port used for liveness probing: the API port for a master,
// the second cluster port for a worker.
func (node *Node) ProbePort() int {
	if node.Role == RoleMaster {
		return node.APIPort
	}
	return node.ClusterPorts[1]
}

// StartConfig is the validated input of Controller.Start. Zero ports mean
// "use the well-known default".
type StartConfig struct {
	Engine       string
	APIPort      int
	ClusterPorts [2]int
	NoSlave      bool
	Master       *RemoteHost
	APIPortSet   bool
}

// HasMaster reports whether this invocation starts a local master.
func (config StartConfig) HasMaster() bool {
	return config.Master == nil
}

// HasWorker reports whether this invocation starts a local worker.
func (config StartConfig) HasWorker() bool {
	return !config.NoSlave
}

// Handle describes a successfully started topology.
type Handle struct {
	Engine       string
	Master       *Node
	Worker       *Node
	APIPort      int
	ClusterPorts [2]int
}

// Status is the aggregate liveness view of an engine cluster.
type Status struct {
	Master NodeState `json:"master"`
	Worker NodeState `json:"worker"`
}

// Running reports whether at least one role of the cluster is alive.
func (status Status) Running() bool {
	return status.Master == StateRunning || status.Worker == StateRunning
}
