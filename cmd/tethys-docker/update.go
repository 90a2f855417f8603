package main

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Args:  cobra.NoArgs,
	Short: "Recreate the service containers from freshly pulled images",
	Long: `Stops and removes the selected containers, pulls their images again and
recreates them. Data stored inside the containers is lost.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolP("defaults", "d", false, "recreate containers with the configured values without prompting")
	addContainersFlag(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	defaults, _ := cmd.Flags().GetBool("defaults")

	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "update")
	if err != nil {
		return err
	}

	// Every selected container is recreated, so every one needs settings
	if err := collectSettings(s, selectedOrAll(ids), defaults); err != nil {
		return s.close(err)
	}

	return finish(s, s.runner.Update(cmd.Context(), ids))
}
