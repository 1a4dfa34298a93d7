package main

import (
	"fmt"

	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/UnknownOlympus/wayly/internal/poi"
	"github.com/spf13/cobra"
)

func poisCmd() *cobra.Command {
	var (
		location   string
		rangeKm    float64
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "pois",
		Short: "List points of interest near a location",
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := parseLatLon(location)
			if err != nil {
				return fmt.Errorf("invalid --location: %w", err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			a.routes.SetLocation(current)

			filter := make([]models.Category, 0, len(categories))
			for _, category := range categories {
				filter = append(filter, models.Category(category))
			}

			pois, err := a.routes.NearbyPOIs(cmd.Context(), rangeKm, filter...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range pois {
				rating := "-"
				if p.Rating != nil {
					rating = fmt.Sprintf("%.1f", *p.Rating)
				}
				fmt.Fprintf(out, "%-6s %-10s %6.2f km  ★ %-4s %s\n", p.ID, p.Category, p.DistanceKm, rating, p.Name)
			}
			fmt.Fprintf(out, "%d points of interest\n", len(pois))

			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "location as lat,lon")
	cmd.Flags().Float64VarP(&rangeKm, "range", "r", poi.DefaultRangeKm, "search radius in km")
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "museum, activity or restaurant")
	_ = cmd.MarkFlagRequired("location")

	return cmd
}
