package cmd

import (
	"github.com/spf13/viper"

	"github.com/naelmusleh/modernmt/pkg/cluster"
	"github.com/naelmusleh/modernmt/pkg/engine"
)

// newController assembles the cluster controller from typed configuration;
// every collaborator is constructed explicitly.
func newController() *cluster.Controller {
	prober := cluster.NewTCPPortProbe()

	supervisor := cluster.NewProcessSupervisor(prober)
	supervisor.StartupTimeout = viper.GetDuration("startup-timeout")
	supervisor.GracePeriod = viper.GetDuration("shutdown-timeout")

	barrier := cluster.NewFileSyncBarrier(viper.GetDuration("sync-timeout"))

	return cluster.NewController(
		supervisor,
		prober,
		cluster.NewSSHConnector(DebugMode),
		barrier,
		engine.Resolver{},
	)
}
