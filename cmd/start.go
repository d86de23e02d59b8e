package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/naelmusleh/modernmt/pkg/cluster"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts a translation engine cluster",
	Long: `This command brings up the master/worker topology of an engine.

By default it starts a local master, exposing the public API, and a local
worker replicating the master's model state. With --master the worker attaches
to a remote master over SSH instead, and no local master or API is started.

Ports are probed before any process is spawned, and a failure at any later
step stops whatever this invocation had already started.`,
	PreRunE: validateStartFlags,
	Run:     RunStart,
}

func validateStartFlags(cmd *cobra.Command, args []string) error {
	masterSpec, _ := cmd.Flags().GetString("master")
	pemPath, _ := cmd.Flags().GetString("master-pem")
	noSlave, _ := cmd.Flags().GetBool("no-slave")
	clusterPorts, _ := cmd.Flags().GetIntSlice("cluster-ports")

	if masterSpec != "" {
		if _, err := cluster.ParseRemoteHost(masterSpec); err != nil {
			return err
		}
		if cmd.Flags().Changed("api-port") {
			return fmt.Errorf("flag --api-port cannot be combined with --master, a worker-only instance has no public API")
		}
		if noSlave {
			return fmt.Errorf("flag --master cannot be combined with --no-slave")
		}
	} else if pemPath != "" {
		return fmt.Errorf("flag --master-pem requires --master")
	}

	if len(clusterPorts) != 2 {
		return fmt.Errorf("flag --cluster-ports needs exactly 2 ports, %d given", len(clusterPorts))
	}

	return nil
}

// RunStart executes the cluster start
func RunStart(cmd *cobra.Command, args []string) {
	engineName, _ := cmd.Flags().GetString("engine")
	apiPort, _ := cmd.Flags().GetInt("api-port")
	clusterPorts, _ := cmd.Flags().GetIntSlice("cluster-ports")
	masterSpec, _ := cmd.Flags().GetString("master")
	pemPath, _ := cmd.Flags().GetString("master-pem")
	noSlave, _ := cmd.Flags().GetBool("no-slave")

	if cmd.Flags().Changed("sync-timeout") {
		timeout, _ := cmd.Flags().GetDuration("sync-timeout")
		viper.Set("sync-timeout", timeout)
	}

	config := cluster.StartConfig{
		Engine:       engineName,
		APIPort:      apiPort,
		APIPortSet:   cmd.Flags().Changed("api-port"),
		ClusterPorts: [2]int{clusterPorts[0], clusterPorts[1]},
		NoSlave:      noSlave,
	}

	if masterSpec != "" {
		master, err := cluster.ParseRemoteHost(masterSpec)
		FatalOnError(err)
		master.PemPath = pemPath
		config.Master = master
	}

	handle, err := newController().Start(AppConf.Context, config)
	FatalOnError(err)

	if handle.Master != nil && handle.Worker != nil {
		log.Printf("engine '%s' started, master and worker are running", handle.Engine)
	} else if handle.Master != nil {
		log.Printf("engine '%s' started, master is running without a local worker", handle.Engine)
	} else {
		log.Printf("engine '%s' started, worker is attached to remote master", handle.Engine)
	}

	if handle.Master != nil {
		fmt.Println(UsageHint(handle.APIPort))
	}
}

func registerStartFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("engine", "e", "default", "name of the engine to start")
	cmd.Flags().IntP("api-port", "p", cluster.DefaultAPIPort, "port of the public REST API")
	cmd.Flags().IntSlice("cluster-ports", []int{cluster.DefaultClusterPort, cluster.DefaultClusterPort + 1}, "pair of ports for master-worker synchronization")
	cmd.Flags().String("master", "", "remote master to attach to, as user[:password]@host")
	cmd.Flags().String("master-pem", "", "PEM identity file for the remote master")
	cmd.Flags().Bool("no-slave", false, "start the master without a local worker")
	cmd.Flags().Duration("sync-timeout", cluster.DefaultSyncTimeout, "upper bound for the model sync wait")
}

func init() {
	rootCmd.AddCommand(startCmd)
	registerStartFlags(startCmd)
}
