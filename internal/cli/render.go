package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	goview "github.com/goliatone/go-view"
	"github.com/goliatone/go-view/pkg/prompt"
	"github.com/goliatone/go-view/pkg/template"
)

type renderFlags struct {
	private     bool
	varsFile    string
	sets        []string
	layout      string
	wrappers    []string
	interactive bool
	require     []string
	output      string
}

// newRenderCommand creates the "render" subcommand that renders one template
// through the configured wrappers and layout.
func newRenderCommand(opts *Options) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("layout") {
				cfg.Engine.Layout = flags.layout
			}
			if cmd.Flags().Changed("wrapper") {
				cfg.Engine.Wrappers = flags.wrappers
			}

			vars, err := flags.variables()
			if err != nil {
				return err
			}
			fields, err := prompt.ParseFields(flags.require)
			if err != nil {
				return err
			}
			if flags.interactive {
				if err := prompt.Collect(cmd.Context(), opts.Prompter, vars, fields); err != nil {
					return err
				}
			} else if missing := prompt.Missing(vars, fields); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, field := range missing {
					names = append(names, field.Name)
				}
				return fmt.Errorf("missing required variables: %s (use --set or --interactive)", strings.Join(names, ", "))
			}

			rt, err := goview.FromConfig(cfg, goview.WithLogger(logger))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			v := rt.NewView()
			v.SetVariables(vars)
			out, err := v.Render(cmd.Context(), args[0], flags.private)
			if err != nil {
				return err
			}

			if flags.output == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(flags.output), 0o755); err != nil {
				return fmt.Errorf("create output directory for %q: %w", flags.output, err)
			}
			if err := os.WriteFile(flags.output, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write rendered template to %q: %w", flags.output, err)
			}
			logger.Info("rendered template", "template", args[0], "path", flags.output, "bytes", len(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.private, "private", false, "Render a private template")
	cmd.Flags().StringVar(&flags.varsFile, "vars", "", "YAML file with template variables")
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "Set a variable (key=value); wins over --vars")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "Layout template, empty for none")
	cmd.Flags().StringSliceVar(&flags.wrappers, "wrapper", nil, "Wrapper templates, innermost first")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Prompt for missing required variables")
	cmd.Flags().StringArrayVar(&flags.require, "require", nil, "Required variable (name[:kind][=default])")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (stdout if empty)")

	return cmd
}

// variables merges the vars file and --set pairs, in that order.
func (f *renderFlags) variables() (*template.Vars, error) {
	vars := template.NewVars()

	if f.varsFile != "" {
		raw, err := os.ReadFile(f.varsFile)
		if err != nil {
			return nil, fmt.Errorf("read vars file %q: %w", f.varsFile, err)
		}
		var values map[string]any
		if err := yaml.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("parse vars file %q: %w", f.varsFile, err)
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			vars.Set(key, values[key])
		}
	}

	for _, pair := range f.sets {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		vars.Set(key, value)
	}
	return vars, nil
}
