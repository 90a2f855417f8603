package main

import (
	"github.com/spf13/cobra"
)

var ipCmd = &cobra.Command{
	Use:   "ip",
	Args:  cobra.NoArgs,
	Short: "Show the host, port and endpoint of each running service",
	RunE:  runIP,
}

func init() {
	addContainersFlag(ipCmd)
}

func runIP(cmd *cobra.Command, args []string) error {
	ids, err := selection()
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), "ip")
	if err != nil {
		return err
	}

	endpoints, err := s.runner.IP(cmd.Context(), ids)
	if err != nil {
		return s.close(err)
	}
	s.console.IP(endpoints)
	return s.close(nil)
}
