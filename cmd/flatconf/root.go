package main

import (
	"fmt"

	flatconf "github.com/goliatone/go-flatconf"
	"github.com/goliatone/go-flatconf/internal/logging"
	"github.com/goliatone/go-flatconf/loader"
	"github.com/goliatone/go-flatconf/pkg/activity"
	"github.com/goliatone/go-flatconf/pkg/activity/logsink"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

const defaultConfigFile = "flatconf.yaml"

type rootOptions struct {
	configFile string
	output     string
	verbosity  int
}

// NewRootCmd creates the flatconf command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "flatconf",
		Short: "Resolve layered file-scoped configuration",
		Long: `flatconf loads an ordered list of configuration layers, each scoped by
file globs, and reports the effective settings for individual file paths.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output format %q (json|yaml)", opts.output)
			}
			logging.SetupLogger(opts.verbosity, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", defaultConfigFile, "configuration file (yaml, json or toml)")
	flags.StringVarP(&opts.output, "output", "o", outputJSON, "output format (json|yaml)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")
	flags.String("base-path", "", "resolve absolute paths relative to this directory")
	flags.Int("cache-size", 0, "memoize this many resolved paths")
	flags.String("evaluator", "", "expression engine for validators (expr|cel|js)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputJSON, outputYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("evaluator", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{flatconf.EngineExpr, flatconf.EngineCEL, flatconf.EngineJS}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newResolveCommand(opts))
	rootCmd.AddCommand(newTraceCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}

// build loads the configuration file named by --config with flag overrides
// applied and returns its resolver.
func (o *rootOptions) build(cmd *cobra.Command) (*loader.Document, *flatconf.Resolver, error) {
	logger := logging.GetLogger("flatconf.cli")
	done := logging.LogOperationStart(logger, "load "+o.configFile)
	defer done()

	doc, err := loader.Load(o.configFile,
		loader.WithFlags(cmd.Flags()),
		loader.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := doc.Build(cmd.Context(),
		flatconf.WithLogger(logger),
		flatconf.WithActivityHooks(activity.Hooks{logsink.Hook{Logger: logger}}),
	)
	if err != nil {
		return doc, nil, err
	}
	return doc, resolver, nil
}
