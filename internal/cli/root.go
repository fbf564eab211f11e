package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallpaper-tools/internal/app"
	"wallpaper-tools/internal/logging"
)

type commonFlags struct {
	configPath string
	verbose    bool
	logFormat  string
	jsonOut    bool
	dryRun     bool

	logger *zap.Logger
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Config file (.toml, .yaml); defaults to $WALLPAPERS_CONFIG or ./wallpapers.toml")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "console", "Log format: console or json")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the result without writing files")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if f.verbose {
			level = "debug"
		}
		logger, err := logging.New(logging.Config{Level: level, Format: f.logFormat})
		if err != nil {
			return app.WrapExit(app.ExitUserError, err)
		}
		f.logger = logger
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if f.logger != nil {
			_ = f.logger.Sync()
		}
	}
}

func (f *commonFlags) loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(f.configPath)
	if err != nil {
		return app.Config{}, app.WrapExit(app.ExitUserError, err)
	}
	return cfg, nil
}

func NewShuffleCommand() *cobra.Command {
	flags := &commonFlags{}
	var exclude int
	cmd := &cobra.Command{
		Use:           "wallshuffle",
		Short:         "Shuffle category order and wallpapers, keeping the leading categories fixed",
		Version:       app.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("exclude") {
				cfg.ExcludeCategories = exclude
				if err := cfg.Validate(); err != nil {
					return app.WrapExit(app.ExitUserError, err)
				}
			}

			svc := app.NewService(cfg, app.WithLogger(flags.logger))
			result, err := svc.Shuffle(app.ShuffleOptions{DryRun: flags.dryRun})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.jsonOut {
				return printJSON(out, result)
			}
			if result.DryRun {
				fmt.Fprintf(out, "%s\n", result.Rendered)
			}
			fmt.Fprintf(out, "Shuffled category order and images in %d categories (excluded first %d)\n", result.Shuffled, cfg.ExcludeCategories)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&exclude, "exclude", app.DefaultExcludeCategories, "Number of leading categories kept in place")
	return cmd
}

func NewSwitchCommand() *cobra.Command {
	flags := &commonFlags{}
	var noBackup bool
	var list bool
	cmd := &cobra.Command{
		Use:           "wallswitch [source]",
		Short:         "Replace the wallpaper document with a source document (free or paid)",
		Version:       app.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			svc := app.NewService(cfg, app.WithLogger(flags.logger))
			out := cmd.OutOrStdout()

			if list {
				if len(args) > 0 {
					return app.WrapExit(app.ExitUserError, fmt.Errorf("--list does not take a source argument (got %q)", args[0]))
				}
				sources := svc.Sources()
				if flags.jsonOut {
					return printJSON(out, sources)
				}
				printSources(out, sources)
				return nil
			}

			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			result, err := svc.Switch(app.SwitchOptions{
				Source:   token,
				DryRun:   flags.dryRun,
				NoBackup: noBackup,
			})
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(out, result)
			}
			printSwitch(out, result, token == "")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not copy the current document to <file>.backup")
	cmd.Flags().BoolVar(&list, "list", false, "List configured sources")
	return cmd
}

func printSwitch(out io.Writer, result app.SwitchResult, fromConfig bool) {
	if fromConfig {
		fmt.Fprintf(out, "Using configured data source: %s\n", result.Source)
	} else {
		fmt.Fprintf(out, "Using command line argument: %s\n", result.Source)
	}
	fmt.Fprintf(out, "\n%s contains:\n", result.SourcePath)
	for _, c := range result.Categories {
		if c.Kind == "list" {
			fmt.Fprintf(out, "  • %s: %d items\n", c.Name, c.Count)
			continue
		}
		fmt.Fprintf(out, "  • %s: %s\n", c.Name, c.Kind)
	}
	fmt.Fprintln(out)

	if result.DryRun {
		fmt.Fprintf(out, "Dry run: %s not modified (%d wallpapers would be written)\n", result.DataPath, result.Items)
		return
	}
	if result.BackedUp {
		fmt.Fprintf(out, "Backup created: %s\n", result.BackupPath)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	fmt.Fprintf(out, "Updated %s with data from %s\n", result.DataPath, result.SourcePath)
	fmt.Fprintf(out, "Total wallpapers updated: %d\n", result.Items)
}

func printSources(out io.Writer, sources []app.SourceInfo) {
	for _, item := range sources {
		marks := []string{}
		if item.Default {
			marks = append(marks, "default")
		}
		if item.Active {
			marks = append(marks, "active")
		}
		fmt.Fprintf(out, "%s\n", item.Name)
		fmt.Fprintf(out, "  path: %s\n", item.Path)
		fmt.Fprintf(out, "  exists: %v\n", item.Exists)
		if len(marks) > 0 {
			fmt.Fprintf(out, "  status: %s\n", strings.Join(marks, ","))
		}
		if item.Error != "" {
			fmt.Fprintf(out, "  error: %s\n", item.Error)
		} else if item.Exists {
			fmt.Fprintf(out, "  categories: %d\n", item.Categories)
			fmt.Fprintf(out, "  items: %d\n", item.Items)
		}
		fmt.Fprintln(out)
	}
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
