package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subtidy/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigValidateCommand() *cobra.Command {
	var pathFlag string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate a configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(pathFlag))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration valid: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "(using built-in defaults; no file found)")
			}
			fmt.Fprintf(out, "Media directory:    %s\n", cfg.Paths.MediaDir)
			fmt.Fprintf(out, "Subscriptions file: %s\n", cfg.Paths.SubscriptionsFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Configuration file to validate")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var pathFlag string

	cmd := &cobra.Command{
		Use:         "show",
		Short:       "Print the resolved configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, _, err := config.Load(strings.TrimSpace(pathFlag))
			if err != nil {
				return err
			}
			activities, err := cfg.Activities()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(activities))
			for _, act := range activities {
				names = append(names, act.Name())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file:         %s\n", resolved)
			fmt.Fprintf(out, "Media directory:     %s\n", cfg.Paths.MediaDir)
			fmt.Fprintf(out, "Subscriptions file:  %s\n", cfg.Paths.SubscriptionsFile)
			fmt.Fprintf(out, "History file:        %s\n", cfg.HistoryFile())
			fmt.Fprintf(out, "Lock file:           %s\n", cfg.Paths.LockFile)
			fmt.Fprintf(out, "Log directory:       %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "Scraper strategy:    %s\n", cfg.Scraper.Strategy)
			fmt.Fprintf(out, "Activities:          %s\n", strings.Join(names, ", "))
			fmt.Fprintf(out, "Class limit:         %d per activity\n", cfg.Scraper.ClassLimitPerActivity)
			fmt.Fprintf(out, "Page scrolls:        %d\n", cfg.Scraper.PageScrolls)
			fmt.Fprintf(out, "Repair enabled:      %s\n", yesNo(cfg.Repair.Enabled))
			fmt.Fprintf(out, "Repair max passes:   %d\n", cfg.Repair.MaxPasses)
			fmt.Fprintf(out, "History purge days:  %d\n", cfg.History.PurgeDays)
			fmt.Fprintf(out, "History warn days:   %d\n", cfg.History.WarningDays)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Configuration file to show")

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set SUBTIDY_USERNAME and SUBTIDY_PASSWORD in the environment before running a sync.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")

	return cmd
}
