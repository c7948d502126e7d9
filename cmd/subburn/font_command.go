package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"subburn/internal/config"
	"subburn/internal/fileutil"
	"subburn/internal/fonts"
	"subburn/internal/logging"
)

const userFontDir = "~/.local/share/fonts"

func newFontCommand(ctx *commandContext) *cobra.Command {
	fontCmd := &cobra.Command{
		Use:   "font",
		Short: "Inspect or install the burn font",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name, err := fonts.ResolveName(cfg.Style.FontFile)
			if err != nil {
				return err
			}
			var indexed string
			installed, err := fonts.NewInstaller(cfg, logging.NewNop()).IsInstalled(cmd.Context(), cfg.Style.FontFile)
			if err != nil {
				indexed = fmt.Sprintf("unknown (%v)", err)
			} else {
				indexed = yesNo(installed)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Font file: %s\n", cfg.Style.FontFile)
			fmt.Fprintf(out, "Family: %s\n", name)
			fmt.Fprintf(out, "Indexed by fontconfig: %s\n", indexed)
			return nil
		},
	}
	fontCmd.AddCommand(newFontInstallCommand(ctx))
	return fontCmd
}

func newFontInstallCommand(ctx *commandContext) *cobra.Command {
	var targetDir string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Copy the burn font into a fontconfig directory and rebuild the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			logger, err := logging.New(logging.Options{
				Level:       "warn",
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			installer := fonts.NewInstaller(cfg, logger)

			installed, err := installer.IsInstalled(cmd.Context(), cfg.Style.FontFile)
			if err != nil {
				// Same tolerance as startup: copy anyway and let the rebuild decide.
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not query fontconfig: %v\n", err)
			}
			if !installed {
				dir, err := config.ExpandPath(strings.TrimSpace(targetDir))
				if err != nil {
					return fmt.Errorf("resolve font directory: %w", err)
				}
				dst := filepath.Join(dir, filepath.Base(cfg.Style.FontFile))
				if err := fileutil.CopyFile(cfg.Style.FontFile, dst, 0o644); err != nil {
					return fmt.Errorf("copy font: %w", err)
				}
				fmt.Fprintf(out, "Copied %s to %s\n", filepath.Base(cfg.Style.FontFile), dir)
			}

			result, err := installer.Ensure(cmd.Context(), cfg.Style.FontFile)
			if err != nil {
				return err
			}
			switch {
			case result.Installed:
				fmt.Fprintf(out, "Font %q already indexed\n", result.Name)
			case result.Rebuilt:
				fmt.Fprintf(out, "Font %q installed; font cache rebuilt\n", result.Name)
			default:
				fmt.Fprintf(os.Stderr, "Font %q copied but the font cache could not be rebuilt\n", result.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetDir, "dir", userFontDir, "Fontconfig directory to copy the font into")
	return cmd
}
