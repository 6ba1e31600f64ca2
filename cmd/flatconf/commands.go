package main

import (
	flatconf "github.com/goliatone/go-flatconf"
	"github.com/spf13/cobra"
)

type resolveResult struct {
	Path       string            `json:"path" yaml:"path"`
	Applicable bool              `json:"applicable" yaml:"applicable"`
	Layers     []string          `json:"layers,omitempty" yaml:"layers,omitempty"`
	Settings   flatconf.Settings `json:"settings,omitempty" yaml:"settings,omitempty"`
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve PATH...",
		Short: "Print the effective settings for each path",
		Long: `Print the effective settings for each path, or applicable: false when
no layer applies or the path is ignored.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, resolver, err := opts.build(cmd)
			if err != nil {
				return err
			}
			results := make([]resolveResult, 0, len(args))
			for _, path := range args {
				result := resolveResult{Path: path}
				if effective, ok := resolver.Resolve(path); ok {
					result.Applicable = true
					result.Layers = effective.Layers
					result.Settings = effective.Settings
				}
				results = append(results, result)
			}
			return render(cmd.OutOrStdout(), opts.output, results)
		},
	}
}

type traceLayer struct {
	Layer   string   `json:"layer" yaml:"layer"`
	Origin  []string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Applies bool     `json:"applies" yaml:"applies"`
	Found   bool     `json:"found" yaml:"found"`
	Winner  bool     `json:"winner,omitempty" yaml:"winner,omitempty"`
	Value   any      `json:"value,omitempty" yaml:"value,omitempty"`
}

type traceResult struct {
	Path       string       `json:"path" yaml:"path"`
	Key        string       `json:"key" yaml:"key"`
	Applicable bool         `json:"applicable" yaml:"applicable"`
	Ignored    bool         `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Value      any          `json:"value,omitempty" yaml:"value,omitempty"`
	Layers     []traceLayer `json:"layers" yaml:"layers"`
}

func newTraceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace PATH KEY",
		Short: "Show which layers set KEY for PATH and which one wins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, resolver, err := opts.build(cmd)
			if err != nil {
				return err
			}
			trace := resolver.ResolveWithTrace(args[0], args[1])
			out := traceResult{
				Path:       trace.Path,
				Key:        trace.Key,
				Applicable: trace.Applicable,
				Ignored:    trace.Ignored,
				Value:      trace.Value,
				Layers:     make([]traceLayer, 0, len(trace.Layers)),
			}
			for _, p := range trace.Layers {
				out.Layers = append(out.Layers, traceLayer{
					Layer:   p.Layer,
					Origin:  p.Origin,
					Applies: p.Applies,
					Found:   p.Found,
					Winner:  p.Winner,
					Value:   p.Value,
				})
			}
			return render(cmd.OutOrStdout(), opts.output, out)
		},
	}
}

type checkKey struct {
	Key    string   `json:"key" yaml:"key"`
	Layers []string `json:"layers" yaml:"layers"`
}

type checkResult struct {
	Source        string     `json:"source" yaml:"source"`
	ConfigID      string     `json:"config_id" yaml:"config_id"`
	Layers        []string   `json:"layers" yaml:"layers"`
	GlobalIgnores []string   `json:"global_ignores,omitempty" yaml:"global_ignores,omitempty"`
	Presets       []string   `json:"presets,omitempty" yaml:"presets,omitempty"`
	Namespaces    []string   `json:"namespaces,omitempty" yaml:"namespaces,omitempty"`
	Keys          []checkKey `json:"keys,omitempty" yaml:"keys,omitempty"`
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configuration and summarize its layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, resolver, err := opts.build(cmd)
			if err != nil {
				return err
			}
			composition := resolver.Composition()
			out := checkResult{
				Source:        doc.Source,
				ConfigID:      resolver.ID(),
				GlobalIgnores: composition.GlobalIgnores(),
				Namespaces:    composition.Namespaces(),
			}
			if doc.Presets != nil {
				out.Presets = doc.Presets.Names()
			}
			for _, layer := range composition.Layers() {
				out.Layers = append(out.Layers, layer.ID)
			}
			for _, key := range composition.Catalog() {
				out.Keys = append(out.Keys, checkKey{Key: key.Key, Layers: key.Layers})
			}
			return render(cmd.OutOrStdout(), opts.output, out)
		},
	}
}
