package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe [id]...",
	Short: "Print the graph each pattern compiles to",
	Long: `Print the nodes and transitions of each compiled pattern graph.

Example:
  logchase describe -p patterns.yaml gray_screen`,
	RunE: func(cmd *cobra.Command, args []string) error {
		compiled, err := loadPatterns(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, c := range compiled {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := c.Graph.Describe(out); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
