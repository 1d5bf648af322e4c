package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hanpama/gqlengine/internal/schema"
)

func newSDLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdl",
		Short: "Validate a schema and print it in canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config(cmd)
			if err != nil {
				return err
			}
			sch, err := loadSchema(conf.GetString("schema"))
			if err != nil {
				return err
			}
			sdl := schema.Render(sch)
			out := conf.GetString("out")
			if out == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), sdl)
				return err
			}
			return errors.Wrap(os.WriteFile(out, []byte(sdl), 0o644), "write sdl")
		},
	}
	cmd.Flags().String("schema", "", "SDL schema file (required).")
	cmd.Flags().String("out", "", "Write the rendered SDL to this file instead of stdout.")
	return cmd
}
