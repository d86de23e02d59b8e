package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naelmusleh/modernmt/pkg/cluster"
	"github.com/naelmusleh/modernmt/pkg/engine"
	"github.com/naelmusleh/modernmt/pkg/node"
)

// workerNodeCmd is the detached daemon entry point the supervisor spawns; on
// exit it writes "ready" or "error" to the status file, which is the
// readiness contract consumed by the supervisor.
var workerNodeCmd = &cobra.Command{
	Use:     "worker-node",
	Hidden:  true,
	Short:   "runs a worker node in the foreground",
	PreRunE: validateNodeFlags,
	Run:     RunWorkerNode,
}

// RunWorkerNode runs the worker process until it receives a stop signal
func RunWorkerNode(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")
	clusterPorts, _ := cmd.Flags().GetIntSlice("cluster-ports")
	statusFile, _ := cmd.Flags().GetString("status-file")
	masterHost, _ := cmd.Flags().GetString("master-host")

	var master *cluster.RemoteHost
	if masterHost != "" {
		user, _ := cmd.Flags().GetString("master-user")
		password, _ := cmd.Flags().GetString("master-passwd")
		pemPath, _ := cmd.Flags().GetString("master-pem")
		master = &cluster.RemoteHost{Host: masterHost, User: user, Password: password, PemPath: pemPath}
	}

	ctx, stop := signal.NotifyContext(AppConf.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := node.NewWorker(engine.New(engineName), master, [2]int{clusterPorts[0], clusterPorts[1]}, statusFile)
	worker.TerminationTimeout = viper.GetDuration("termination-timeout")

	FatalOnError(worker.Run(ctx))
}

func init() {
	rootCmd.AddCommand(workerNodeCmd)

	workerNodeCmd.Flags().StringP("engine", "e", "default", "name of the engine to serve")
	workerNodeCmd.Flags().IntSliceP("cluster-ports", "p", nil, "pair of ports for master-worker synchronization")
	workerNodeCmd.Flags().String("status-file", "", "file receiving the readiness outcome")
	workerNodeCmd.Flags().String("master-host", "", "host of the remote upstream master")
	workerNodeCmd.Flags().String("master-user", "", "SSH user on the remote master")
	workerNodeCmd.Flags().String("master-passwd", "", "SSH password on the remote master")
	workerNodeCmd.Flags().String("master-pem", "", "PEM identity file for the remote master")
	workerNodeCmd.MarkFlagRequired("cluster-ports")
	workerNodeCmd.MarkFlagRequired("status-file")
}
