package main

import (
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Stay reachable and answer incoming calls",
	Long: `Connect to the broker under the derived endpoint of the local identity and
wait for calls. With --auto-answer every invite is accepted.

Examples:
  peercall listen --identity bob --context standup --auto-answer`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		return c.serve(cmd.Context(), func(s *shell) error {
			if err := c.ctl.Connect(cmd.Context()); err != nil {
				return err
			}
			return s.loop(cmd.Context(), false)
		})
	},
}

func init() {
	listenCmd.Flags().Bool("auto-answer", false, "accept incoming calls without asking")
	_ = v.BindPFlag("call.auto_answer", listenCmd.Flags().Lookup("auto-answer"))
}
