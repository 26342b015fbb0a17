package main

import (
	"fmt"
	"os"

	"github.com/rinehimer/jxtl/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version is set at build time
	Version = "dev"
)

// app holds state shared by every subcommand
type app struct {
	logLevel string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	opts := &renderOptions{}

	root := &cobra.Command{
		Use:           "jxtl -t TEMPLATE (-j|-x|-y) DATA",
		Short:         "Render a template against a JSON, XML or YAML document",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewWithOutput(a.logLevel, "console", []string{"stderr"})
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	flags := root.Flags()
	flags.StringVarP(&opts.template, "template", "t", "", "Template file")
	flags.StringVarP(&opts.jsonFile, "json", "j", "", "JSON data file, - for stdin")
	flags.StringVarP(&opts.xmlFile, "xml", "x", "", "XML data file, - for stdin")
	flags.StringVarP(&opts.yamlFile, "yaml", "y", "", "YAML data file, - for stdin")
	flags.StringVarP(&opts.output, "output", "o", "", "Write output to this file instead of stdout")
	flags.StringVar(&opts.expect, "expect", "", "Compare output with this file and fail on any difference")
	flags.BoolVar(&opts.skipRoot, "skip-root", false, "Drop the XML root element")
	flags.BoolVar(&opts.trimNewlines, "trim-newlines", false, "Drop the newline after block openers and before block closers")
	flags.StringVar(&opts.left, "left-delim", "{{", "Left directive delimiter")
	flags.StringVar(&opts.right, "right-delim", "}}", "Right directive delimiter")
	_ = root.MarkFlagRequired("template")
	root.MarkFlagsMutuallyExclusive("json", "xml", "yaml")
	root.MarkFlagsOneRequired("json", "xml", "yaml")

	root.AddCommand(newXML2JSONCmd(a))
	root.AddCommand(newSubmitCmd(a))
	root.AddCommand(newTemplatesCmd(a))

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jxtl: %v\n", err)
		os.Exit(1)
	}
}
