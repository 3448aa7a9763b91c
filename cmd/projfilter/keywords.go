package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/projfilter/pkg/keywords"
)

func newKeywordsCmd(root *rootOptions) *cobra.Command {
	var initFile, force bool

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the keyword vocabulary",
		Long: `List the keywords that analyze will look for, in matching order.

With --init the built-in livestock vocabulary is written to the keywords
file first.

Examples:
  # Show the configured keywords
  projfilter keywords

  # Create keywords.txt with the built-in list
  projfilter keywords --init`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			out := cmd.OutOrStdout()
			path := cfg.Keywords.File

			if initFile {
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if err := keywords.WriteFile(path, keywords.Default()); err != nil {
					return err
				}
				fmt.Fprintln(out, color.GreenString("✓ Wrote %d keywords to %s", len(keywords.Default()), path))
			}

			matcher, err := loadMatcher(cfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, color.BlueString("%d keywords from %s:", matcher.Len(), path))
			for _, kw := range matcher.Keywords() {
				fmt.Fprintf(out, "  %s\n", kw)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "Write the built-in keyword list to the keywords file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing keywords file with --init")

	return cmd
}
