package main

import (
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Args:  cobra.NoArgs,
	Short: "Pull images and create the service containers",
	Long: `Pulls any missing images and creates any missing containers. Settings for
containers about to be created are asked for interactively unless --defaults is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolP("defaults", "d", false, "create containers with the configured values without prompting")
	addContainersFlag(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	defaults, _ := cmd.Flags().GetBool("defaults")

	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "init")
	if err != nil {
		return err
	}

	pending, err := s.runner.Pending(cmd.Context(), ids)
	if err != nil {
		return s.close(err)
	}
	if err := collectSettings(s, pending, defaults); err != nil {
		return s.close(err)
	}

	return finish(s, s.runner.Init(cmd.Context(), ids))
}
