package main

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove",
	Aliases: []string{"rm"},
	Args:    cobra.NoArgs,
	Short:   "Stop and remove the service containers",
	RunE:    runRemove,
}

func init() {
	addContainersFlag(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "remove")
	if err != nil {
		return err
	}
	return finish(s, s.runner.Remove(cmd.Context(), ids))
}
