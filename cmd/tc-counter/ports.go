package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiwa/timecard-mini/tc-counter/internal/gnss"
)

// NewPortsCommand — список последовательных портов (выход счётчика, приёмник GNSS).
func NewPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := gnss.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
