package cmd

import (
	"fmt"

	"github.com/sarchlab/worksim/scenario"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>",
	Short: "Check that a scenario can run to completion.",
	Long: "`validate scenario.yaml` checks that every task is assigned to " +
		"exactly one worker, that dependencies form no cycle, and that no " +
		"queue holds a task ahead of something it waits for.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := scenario.Load(args[0])
		if err != nil {
			return err
		}

		if err := s.Validate(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tasks, %d workers, ok\n",
			args[0], len(s.Tasks), len(s.Workers))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
