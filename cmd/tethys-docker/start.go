package main

import (
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Args:  cobra.NoArgs,
	Short: "Start the service containers",
	RunE:  runStart,
}

func init() {
	addContainersFlag(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "start")
	if err != nil {
		return err
	}
	return finish(s, s.runner.Start(cmd.Context(), ids))
}
