package main

import (
	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Args:  cobra.NoArgs,
	Short: "Stop the service containers",
	Long: `Stops the service containers. With --vm the local Docker VM is shut down too,
provided every service was targeted (no --containers selection, or all three named)
and every container stopped.`,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().Bool("vm", false, "also stop the local Docker VM")
	addContainersFlag(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	stopVM, _ := cmd.Flags().GetBool("vm")

	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "stop")
	if err != nil {
		return err
	}

	report, vmErr := s.runner.Stop(cmd.Context(), ids, stopVM)
	s.console.Report(report)
	if vmErr != nil {
		return s.close(vmErr)
	}
	return s.close(report.Err())
}
