package main

import (
	"fmt"
	"os"

	"github.com/dkeye/peercall/internal/app/record"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <artifact> <dir>",
	Short: "Convert a saved recording to Ogg/IVF files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		paths, err := record.Export(&record.Artifact{Data: data}, args[1])
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}
