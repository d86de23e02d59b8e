package cluster

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeSupervisor struct {
	started []NodeRole
	stopped []NodeRole
	failOn  NodeRole
	running map[NodeRole]bool
	stopErr map[NodeRole]error
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{
		running: make(map[NodeRole]bool),
		stopErr: make(map[NodeRole]error),
	}
}

func (fake *fakeSupervisor) Start(ctx context.Context, node *Node) error {
	if node.Role == fake.failOn {
		return NewError(StartFailure, string(node.Role)+" node did not start")
	}
	fake.started = append(fake.started, node.Role)
	fake.running[node.Role] = true
	return nil
}

func (fake *fakeSupervisor) IsRunning(node *Node) bool {
	return fake.running[node.Role]
}

func (fake *fakeSupervisor) Stop(ctx context.Context, node *Node) error {
	fake.stopped = append(fake.stopped, node.Role)
	if err := fake.stopErr[node.Role]; err != nil {
		return err
	}
	fake.running[node.Role] = false
	return nil
}

type fakeProber struct {
	occupied map[int]bool
}

func (fake *fakeProber) IsFree(port int) bool {
	return !fake.occupied[port]
}

type fakeVerifier struct {
	err   error
	calls int
}

func (fake *fakeVerifier) Verify(host RemoteHost) error {
	fake.calls++
	return fake.err
}

type fakeBarrier struct {
	err error
}

func (fake *fakeBarrier) Wait(ctx context.Context, node *Node) error {
	return fake.err
}

type fakeResolver struct {
	exists   bool
	dir      string
	prepared int
}

func (fake *fakeResolver) Exists(name string) bool {
	return fake.exists
}

func (fake *fakeResolver) RuntimeDir(name string) string {
	return fake.dir
}

func (fake *fakeResolver) PrepareRuntime(name string) (string, error) {
	fake.prepared++
	return fake.dir, nil
}

type controllerFixture struct {
	controller *Controller
	supervisor *fakeSupervisor
	prober     *fakeProber
	verifier   *fakeVerifier
	barrier    *fakeBarrier
	resolver   *fakeResolver
}

func newControllerFixture(t *testing.T) *controllerFixture {
	supervisor := newFakeSupervisor()
	prober := &fakeProber{occupied: make(map[int]bool)}
	verifier := &fakeVerifier{}
	barrier := &fakeBarrier{}
	resolver := &fakeResolver{exists: true, dir: t.TempDir()}

	return &controllerFixture{
		controller: NewController(supervisor, prober, verifier, barrier, resolver),
		supervisor: supervisor,
		prober:     prober,
		verifier:   verifier,
		barrier:    barrier,
		resolver:   resolver,
	}
}

func TestController_StartDefaultTopology(t *testing.T) {
	fixture := newControllerFixture(t)

	handle, err := fixture.controller.Start(context.Background(), StartConfig{Engine: "default"})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if len(fixture.supervisor.started) != 2 ||
		fixture.supervisor.started[0] != RoleMaster ||
		fixture.supervisor.started[1] != RoleWorker {
		t.Errorf("expected master then worker, got %v", fixture.supervisor.started)
	}

	if handle.Master == nil || handle.Worker == nil {
		t.Error("handle should describe both roles")
	}
	if handle.APIPort != DefaultAPIPort {
		t.Errorf("unexpected api port %d", handle.APIPort)
	}
	if handle.ClusterPorts != [2]int{5016, 5017} {
		t.Errorf("unexpected cluster ports %v", handle.ClusterPorts)
	}
}

func TestController_StartRejectsInvalidCombinations(t *testing.T) {
	remote := &RemoteHost{Host: "10.0.0.5", User: "alice"}

	tests := []struct {
		name   string
		config StartConfig
	}{
		{"api port with remote master", StartConfig{Engine: "default", Master: remote, APIPort: 9000, APIPortSet: true}},
		{"remote master with no-slave", StartConfig{Engine: "default", Master: remote, NoSlave: true}},
		{"missing pem file", StartConfig{Engine: "default", Master: &RemoteHost{Host: "10.0.0.5", User: "alice", PemPath: "/missing/key.pem"}}},
		{"remote master without host", StartConfig{Engine: "default", Master: &RemoteHost{User: "alice"}}},
		{"remote master without user", StartConfig{Engine: "default", Master: &RemoteHost{Host: "10.0.0.5"}}},
		{"empty engine", StartConfig{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fixture := newControllerFixture(t)

			_, err := fixture.controller.Start(context.Background(), test.config)
			if !IsKind(err, ConfigurationError) {
				t.Fatalf("expected a configuration error, got %v", err)
			}

			if len(fixture.supervisor.started) != 0 {
				t.Error("no process may be spawned on a configuration error")
			}
			if fixture.verifier.calls != 0 {
				t.Error("no network activity may happen on a configuration error")
			}
		})
	}
}

func TestController_StartOccupiedPortAbortsBeforeSpawn(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.prober.occupied[DefaultAPIPort] = true

	_, err := fixture.controller.Start(context.Background(), StartConfig{Engine: "default"})
	if !IsKind(err, IllegalStateError) {
		t.Fatalf("expected an illegal state error, got %v", err)
	}
	if !strings.Contains(err.Error(), "8080") {
		t.Errorf("error should name the occupied port, got: %v", err)
	}
	if len(fixture.supervisor.started) != 0 {
		t.Errorf("no process may be spawned when preflight fails, got %v", fixture.supervisor.started)
	}
}

func TestController_StartOccupiedClusterPortAborts(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.prober.occupied[5017] = true

	_, err := fixture.controller.Start(context.Background(), StartConfig{Engine: "default"})
	if !IsKind(err, IllegalStateError) {
		t.Fatalf("expected an illegal state error, got %v", err)
	}
	if !strings.Contains(err.Error(), "5017") {
		t.Errorf("error should name the occupied port, got: %v", err)
	}
}

func TestController_StartMissingEngine(t *testing.T) {
	supervisor := newFakeSupervisor()
	controller := NewController(supervisor, &fakeProber{occupied: map[int]bool{}}, &fakeVerifier{}, &fakeBarrier{}, &fakeResolver{exists: false, dir: t.TempDir()})

	_, err := controller.Start(context.Background(), StartConfig{Engine: "nope"})
	if !IsKind(err, IllegalStateError) {
		t.Fatalf("expected an illegal state error, got %v", err)
	}
	if len(supervisor.started) != 0 {
		t.Error("no process may be spawned for a missing engine")
	}
}

func TestController_WorkerFailureRollsBackMaster(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.supervisor.failOn = RoleWorker

	_, err := fixture.controller.Start(context.Background(), StartConfig{Engine: "default"})
	if !IsKind(err, StartFailure) {
		t.Fatalf("expected a start failure, got %v", err)
	}

	if len(fixture.supervisor.stopped) != 1 || fixture.supervisor.stopped[0] != RoleMaster {
		t.Errorf("master must be rolled back, stopped: %v", fixture.supervisor.stopped)
	}
	if fixture.supervisor.running[RoleMaster] {
		t.Error("master must not be left running")
	}
}

func TestController_SyncFailureRollsBackBothRoles(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.barrier.err = NewError(StartFailure, "model sync failed")

	_, err := fixture.controller.Start(context.Background(), StartConfig{Engine: "default"})
	if !IsKind(err, StartFailure) {
		t.Fatalf("expected a start failure, got %v", err)
	}

	if len(fixture.supervisor.stopped) != 2 ||
		fixture.supervisor.stopped[0] != RoleWorker ||
		fixture.supervisor.stopped[1] != RoleMaster {
		t.Errorf("expected worker then master rollback, got %v", fixture.supervisor.stopped)
	}
}

func TestController_SyncFailureWithRemoteMasterStopsOnlyWorker(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.barrier.err = NewError(StartFailure, "model sync failed")

	config := StartConfig{
		Engine: "default",
		Master: &RemoteHost{Host: "10.0.0.5", User: "alice", Password: "secret"},
	}
	_, err := fixture.controller.Start(context.Background(), config)
	if !IsKind(err, StartFailure) {
		t.Fatalf("expected a start failure, got %v", err)
	}

	// the remote master was not started by this invocation and must survive
	if len(fixture.supervisor.stopped) != 1 || fixture.supervisor.stopped[0] != RoleWorker {
		t.Errorf("only the worker may be rolled back, got %v", fixture.supervisor.stopped)
	}
}

func TestController_RemoteMasterWithPemIsVerified(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.verifier.err = NewError(ConnectionError, "host 10.0.0.5 is not reachable")

	pemFile := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(pemFile, []byte("irrelevant"), 0600); err != nil {
		t.Fatal(err)
	}

	config := StartConfig{
		Engine: "default",
		Master: &RemoteHost{Host: "10.0.0.5", User: "alice", PemPath: pemFile},
	}
	_, err := fixture.controller.Start(context.Background(), config)
	if !IsKind(err, ConnectionError) {
		t.Fatalf("expected a connection error, got %v", err)
	}

	if fixture.verifier.calls != 1 {
		t.Errorf("expected exactly one verification attempt, got %d", fixture.verifier.calls)
	}
	if len(fixture.supervisor.started) != 0 {
		t.Error("no local process may be spawned when verification fails")
	}
}

func TestController_StopIsIdempotent(t *testing.T) {
	fixture := newControllerFixture(t)

	for i := 0; i < 2; i++ {
		if err := fixture.controller.Stop(context.Background(), "default"); err != nil {
			t.Fatalf("stop #%d of a stopped cluster failed: %v", i+1, err)
		}
	}
}

func TestController_StopAttemptsBothRolesOnFailure(t *testing.T) {
	fixture := newControllerFixture(t)
	fixture.supervisor.running[RoleMaster] = true
	fixture.supervisor.running[RoleWorker] = true
	stopErr := NewError(StopFailure, "master node did not confirm termination")
	fixture.supervisor.stopErr[RoleMaster] = stopErr

	err := fixture.controller.Stop(context.Background(), "default")
	if !IsKind(err, StopFailure) {
		t.Fatalf("expected the first stop error to surface, got %v", err)
	}

	if len(fixture.supervisor.stopped) != 2 {
		t.Errorf("both roles must be attempted, got %v", fixture.supervisor.stopped)
	}
	if fixture.supervisor.running[RoleWorker] {
		t.Error("worker must be stopped despite the master failure")
	}
}

func TestController_StatusAndStopDoNotPrepareRuntime(t *testing.T) {
	fixture := newControllerFixture(t)

	if _, err := fixture.controller.Status("default"); err != nil {
		t.Fatal(err)
	}
	if err := fixture.controller.Stop(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}

	if fixture.resolver.prepared != 0 {
		t.Errorf("status/stop prepared the runtime directory %d times", fixture.resolver.prepared)
	}
}

func TestController_Status(t *testing.T) {
	fixture := newControllerFixture(t)

	status, err := fixture.controller.Status("default")
	if err != nil {
		t.Fatal(err)
	}
	if status.Running() {
		t.Error("cold engine must report stopped")
	}

	fixture.supervisor.running[RoleMaster] = true

	status, err = fixture.controller.Status("default")
	if err != nil {
		t.Fatal(err)
	}
	if status.Master != StateRunning || status.Worker != StateStopped {
		t.Errorf("unexpected status %+v", status)
	}
	if !status.Running() {
		t.Error("a running master must mark the cluster running")
	}
}
