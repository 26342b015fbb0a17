package main

import (
	"encoding/json"
	"fmt"

	"github.com/rinehimer/jxtl/internal/document"
	"github.com/spf13/cobra"
)

func newXML2JSONCmd(a *app) *cobra.Command {
	var (
		skipRoot bool
		indent   bool
	)

	cmd := &cobra.Command{
		Use:   "xml2json [FILE]",
		Short: "Print the JSON form of an XML document as templates see it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			var opts []document.XMLOption
			if skipRoot {
				opts = append(opts, document.SkipRoot())
			}
			root, err := document.ParseXML(data, opts...)
			if err != nil {
				return err
			}

			var out []byte
			if indent {
				out, err = json.MarshalIndent(root, "", "  ")
			} else {
				out, err = json.Marshal(root)
			}
			if err != nil {
				return fmt.Errorf("encoding json: %w", err)
			}

			a.logger.Debug("converted xml document")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().BoolVar(&skipRoot, "skip-root", false, "Drop the root element")
	cmd.Flags().BoolVar(&indent, "indent", false, "Indent the output")
	return cmd
}
