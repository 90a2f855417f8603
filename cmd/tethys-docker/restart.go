package main

import (
	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Args:  cobra.NoArgs,
	Short: "Stop then start the service containers",
	RunE:  runRestart,
}

func init() {
	addContainersFlag(restartCmd)
}

func runRestart(cmd *cobra.Command, args []string) error {
	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "restart")
	if err != nil {
		return err
	}
	return finish(s, s.runner.Restart(cmd.Context(), ids))
}
