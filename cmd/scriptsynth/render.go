package main

import (
	"fmt"
	"io"
	"os"

	"github.com/KevinKickass/ScriptSynth/internal/document"
	"github.com/spf13/cobra"
)

// newRenderCmd prints the canonical form of a stored config.yaml, or of
// stdin when the argument is "-" or missing.
func newRenderCmd() *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:     "render [file]",
		Short:   "Print the canonical YAML of a config file",
		Example: "scriptsynth render downloads/config.yaml",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			doc, err := document.Decode(data)
			if err != nil {
				return err
			}

			if validate {
				v, err := document.NewValidator()
				if err != nil {
					return err
				}
				if err := v.Validate(doc); err != nil {
					return fmt.Errorf("validation failed: %w", err)
				}
			}

			out, err := document.Render(doc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "Validate against the document schema")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
