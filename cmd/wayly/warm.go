package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/UnknownOlympus/wayly/internal/service"
	"github.com/spf13/cobra"
)

func warmCmd() *cobra.Command {
	var (
		file    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "warm [place...]",
		Short: "Geocode place names ahead of time to fill the geocode cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := args
			if file != "" {
				lines, err := readLines(file)
				if err != nil {
					return err
				}
				queries = append(queries, lines...)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.dtb == nil {
				a.log.WarnContext(cmd.Context(), "Geocode cache is disabled, results will not be kept")
			}

			warmer := service.NewWarmer(a.log, a.provider, a.cfg.Geocoder.Type, a.presets, a.metrics, workers)
			report := warmer.Warm(cmd.Context(), queries)

			fmt.Fprintf(cmd.OutOrStdout(), "resolved %d, failed %d, skipped %d\n",
				report.Resolved, report.Failed, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "file with one place name per line")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "number of concurrent workers")

	return cmd
}

func readLines(name string) ([]string, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return lines, nil
}
