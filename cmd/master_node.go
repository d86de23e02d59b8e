package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naelmusleh/modernmt/pkg/engine"
	"github.com/naelmusleh/modernmt/pkg/node"
)

// masterNodeCmd is the detached daemon entry point the supervisor spawns; it
// is not part of the public command surface.
var masterNodeCmd = &cobra.Command{
	Use:     "master-node",
	Hidden:  true,
	Short:   "runs a master node in the foreground",
	PreRunE: validateNodeFlags,
	Run:     RunMasterNode,
}

func validateNodeFlags(cmd *cobra.Command, args []string) error {
	clusterPorts, _ := cmd.Flags().GetIntSlice("cluster-ports")
	if len(clusterPorts) != 2 {
		return fmt.Errorf("flag --cluster-ports needs exactly 2 ports, %d given", len(clusterPorts))
	}
	return nil
}

// RunMasterNode runs the master process until it receives a stop signal
func RunMasterNode(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")
	apiPort, _ := cmd.Flags().GetInt("api-port")
	clusterPorts, _ := cmd.Flags().GetIntSlice("cluster-ports")

	ctx, stop := signal.NotifyContext(AppConf.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	master := node.NewMaster(engine.New(engineName), apiPort, [2]int{clusterPorts[0], clusterPorts[1]})
	FatalOnError(master.Run(ctx))
}

func init() {
	rootCmd.AddCommand(masterNodeCmd)

	masterNodeCmd.Flags().StringP("engine", "e", "default", "name of the engine to serve")
	masterNodeCmd.Flags().IntP("api-port", "a", 0, "port of the public REST API")
	masterNodeCmd.Flags().IntSliceP("cluster-ports", "p", nil, "pair of ports for master-worker synchronization")
	masterNodeCmd.MarkFlagRequired("api-port")
	masterNodeCmd.MarkFlagRequired("cluster-ports")
}
