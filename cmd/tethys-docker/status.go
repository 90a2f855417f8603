package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Args:  cobra.NoArgs,
	Short: "Show whether each service container is running",
	RunE:  runStatus,
}

func init() {
	addContainersFlag(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "status")
	if err != nil {
		return err
	}

	rows, err := s.runner.Status(cmd.Context(), ids)
	if err != nil {
		return s.close(err)
	}
	s.console.Status(rows)
	return s.close(nil)
}
