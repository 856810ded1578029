package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/handiism/sheets-exporter/internal/config"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/tui"
)

func main() {
	var configPath, output string

	rootCmd := &cobra.Command{
		Use:           "sheets-tui",
		Short:         "Interactive control panel for Google Sheets exports",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				settings.Output = output
			}

			saver, err := ioutils.OpenSaver(context.Background(), settings.Output)
			if err != nil {
				return err
			}
			defer saver.Close()

			return tui.Run(settings, saver)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: "+config.DefaultPath()+")")
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output directory or bucket URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
