package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/wayly/internal/export"
	"github.com/UnknownOlympus/wayly/internal/models"
	"github.com/spf13/cobra"
)

func routeCmd() *cobra.Command {
	var (
		origin    string
		location  string
		stops     []string
		kmlFile   string
		geojsonTo string
	)

	cmd := &cobra.Command{
		Use:   "route <destination>",
		Short: "Request route alternatives once and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if location != "" {
				current, err := parseLatLon(location)
				if err != nil {
					return fmt.Errorf("invalid --location: %w", err)
				}
				a.routes.SetLocation(current)
			}
			for _, stop := range stops {
				wp, err := parseLatLon(stop)
				if err != nil {
					return fmt.Errorf("invalid --via %q: %w", stop, err)
				}
				a.routes.AddWaypoint(wp)
			}

			outcome := a.routes.Submit(cmd.Context(), origin, args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", outcome.Status)
			if outcome.Notice != "" {
				fmt.Fprintf(out, "notice: %s\n", outcome.Notice)
			}
			if outcome.Origin != nil && outcome.Destination != nil {
				fmt.Fprintf(out, "from:   %s (%.5f, %.5f)\n",
					outcome.Origin.Name, outcome.Origin.Latitude, outcome.Origin.Longitude)
				fmt.Fprintf(out, "to:     %s (%.5f, %.5f)\n",
					outcome.Destination.Name, outcome.Destination.Latitude, outcome.Destination.Longitude)
			}
			for i, alt := range outcome.Alternatives {
				fmt.Fprintf(out, "route %d: %d points %s\n", i+1, len(alt), export.EncodePolyline(alt))
			}

			if outcome.Err != nil && len(outcome.Alternatives) == 0 {
				return outcome.Err
			}

			route := a.routes.ExportRoute()
			if kmlFile != "" {
				if err = writeKMLFile(kmlFile, route); err != nil {
					return err
				}
			}
			if geojsonTo != "" {
				data, err := export.GeoJSON(route).MarshalJSON()
				if err != nil {
					return fmt.Errorf("failed to encode geojson: %w", err)
				}
				if err = os.WriteFile(geojsonTo, data, 0o644); err != nil {
					return fmt.Errorf("failed to write geojson: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&origin, "from", "f", "", `origin place; empty or "atual" uses --location`)
	cmd.Flags().StringVarP(&location, "location", "l", "", "current location as lat,lon")
	cmd.Flags().StringArrayVar(&stops, "via", nil, "waypoint as lat,lon (repeatable)")
	cmd.Flags().StringVar(&kmlFile, "kml", "", "write the routes to a KML file")
	cmd.Flags().StringVar(&geojsonTo, "geojson", "", "write the routes to a GeoJSON file")

	return cmd
}

func writeKMLFile(name string, route export.Route) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create kml file: %w", err)
	}
	defer file.Close()

	return export.WriteKML(file, "Wayly route", route)
}

func parseLatLon(value string) (models.Coordinate, error) {
	latText, lonText, ok := strings.Cut(value, ",")
	if !ok {
		return models.Coordinate{}, fmt.Errorf("expected lat,lon, got %q", value)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("invalid longitude: %w", err)
	}

	return models.Coordinate{Latitude: lat, Longitude: lon}, nil
}
