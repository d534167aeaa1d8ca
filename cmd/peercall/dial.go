package main

import (
	"github.com/dkeye/peercall/internal/domain"
	"github.com/spf13/cobra"
)

var dialCmd = &cobra.Command{
	Use:   "dial <identity>",
	Short: "Call a user by identity",
	Long: `Resolve the identity to a live endpoint in the session context and call it.
The command exits when the call ends.

Examples:
  peercall dial bob --identity alice --context standup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := domain.ParseIdentity(args[0])
		if err != nil {
			return err
		}
		c, err := newClient(cfg)
		if err != nil {
			return err
		}
		return c.serve(cmd.Context(), func(s *shell) error {
			if _, err := c.ctl.StartCall(cmd.Context(), target); err != nil {
				return err
			}
			return s.loop(cmd.Context(), true)
		})
	},
}
