package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	noColor    bool
	containers []string
	version    = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "tethys-docker",
	Short: "Manage the Docker containers Tethys Platform depends on",
	Long: `tethys-docker installs and runs the PostGIS database, GeoServer and
52 North WPS containers that a local Tethys Platform deployment depends on.
Every command accepts --containers to act on a subset of the services.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tethys-docker.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ipCmd)
}

// Commands are defined in separate files, one per verb

// addContainersFlag registers the service selection flag on cmd
func addContainersFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&containers, "containers", "c", nil,
		"services to act on: postgis, geoserver, wps (default all)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}
