package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/forestshield/internal/details"
	"github.com/sells-group/forestshield/internal/export"
	"github.com/sells-group/forestshield/internal/geo"
	"github.com/sells-group/forestshield/internal/mapctl"
	"github.com/sells-group/forestshield/internal/region"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Manage monitored regions",
}

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored regions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")

		regions, err := client.ListRegions(cmd.Context(), forestshield.RegionFilter{
			Status: forestshield.RegionStatus(strings.ToUpper(status)),
		})
		if err != nil {
			return eris.Wrap(err, "list regions")
		}
		return render(cmd.OutOrStdout(), outputFormat, regions, func(w io.Writer) {
			if len(regions) == 0 {
				_, _ = fmt.Fprintln(w, "No regions found.")
				return
			}
			formatRegions(w, regions)
		})
	},
}

var regionsGetCmd = &cobra.Command{
	Use:   "get REGION_ID",
	Short: "Show one region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		r, err := client.GetRegion(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrapf(err, "get region %s", args[0])
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) {
			formatRegion(w, *r)
		})
	},
}

var regionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a region from explicit coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		radius, _ := cmd.Flags().GetFloat64("radius-km")
		cloud, _ := cmd.Flags().GetInt("cloud-cover")
		if !cmd.Flags().Changed("cloud-cover") {
			cloud = cfg.Regions.DefaultCloudCover
		}

		dto := forestshield.CreateRegionDto{
			Name:                strings.TrimSpace(name),
			Latitude:            region.RoundCoord(lat),
			Longitude:           region.RoundCoord(lng),
			Description:         description,
			RadiusKm:            radius,
			CloudCoverThreshold: cloud,
		}
		if err := region.ValidateCreate(dto); err != nil {
			return err
		}

		r, err := client.CreateRegion(cmd.Context(), dto)
		if err != nil {
			return eris.Wrap(err, "create region")
		}
		zap.L().Info("region created", zap.String("id", r.ID), zap.String("name", r.Name))
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) {
			formatRegion(w, *r)
		})
	},
}

var regionsUpdateCmd = &cobra.Command{
	Use:   "update REGION_ID",
	Short: "Change the name, description, radius or cloud cover of a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		if patch.Empty() {
			return eris.New("nothing to update: pass --name, --description, --radius-km or --cloud-cover")
		}

		ctx := cmd.Context()
		store := region.NewStore(client)
		if err := store.Load(ctx); err != nil {
			return err
		}
		form := details.New(ctx, store, client)
		defer form.Close()

		if _, err := form.Edit(args[0]); err != nil {
			return err
		}
		updated, err := form.Update(ctx, patch)
		if err != nil {
			return bannerError(form.Banner().Current, err)
		}
		return render(cmd.OutOrStdout(), outputFormat, updated, func(w io.Writer) {
			formatRegion(w, updated)
		})
	},
}

var regionsDeleteCmd = &cobra.Command{
	Use:   "delete REGION_ID",
	Short: "Delete a region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")

		ctx := cmd.Context()
		store := region.NewStore(client)
		if err := store.Load(ctx); err != nil {
			return err
		}
		form := details.New(ctx, store, client)
		defer form.Close()

		r, err := form.Edit(args[0])
		if err != nil {
			return err
		}
		if !yes {
			yes = confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Delete region %q (%s)? This cannot be undone.", r.Name, r.ID))
		}

		deleted, err := form.Delete(ctx, yes)
		if err != nil {
			return bannerError(form.Banner().Current, err)
		}
		if !deleted {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted region %s.\n", r.ID)
		return nil
	},
}

var regionsDragCmd = &cobra.Command{
	Use:   "drag",
	Short: "Create a region by replaying a drag gesture from center to edge",
	Long:  "Replays the map's drag-to-create gesture: --from is the center and --to the release point. The great-circle distance between them becomes the radius, which must be between 100 meters and 50 kilometers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		from, err := parseLatLng(fromStr)
		if err != nil {
			return eris.Wrap(err, "--from")
		}
		to, err := parseLatLng(toStr)
		if err != nil {
			return eris.Wrap(err, "--to")
		}

		ctx := cmd.Context()
		store := region.NewStore(client)
		ctl := mapctl.New(ctx, store, client, mapctl.WithDefaultCloudCover(cfg.Regions.DefaultCloudCover))
		defer ctl.Close()

		ctl.ArmCreation()
		ctl.PointerDown(from)
		if preview, ok := ctl.PointerMove(to); ok && !preview.Valid {
			zap.L().Debug("drag preview out of range", zap.Float64("radius_m", preview.RadiusMeters))
		}
		r, err := ctl.PointerUp(ctx, to)
		if err != nil {
			return bannerError(ctl.Banner().Current, err)
		}
		return render(cmd.OutOrStdout(), outputFormat, r, func(w io.Writer) {
			formatRegion(w, *r)
		})
	},
}

var regionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export regions as GeoJSON or a shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient("client")
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		regions, err := client.ListRegions(cmd.Context(), forestshield.RegionFilter{})
		if err != nil {
			return eris.Wrap(err, "list regions")
		}

		switch strings.ToLower(format) {
		case "geojson":
			if out == "" || out == "-" {
				return export.WriteGeoJSON(cmd.OutOrStdout(), regions)
			}
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrapf(err, "create %s", out)
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteGeoJSON(f, regions); err != nil {
				return err
			}
		case "shp", "shapefile":
			if out == "" {
				return eris.New("--out is required for shapefile export")
			}
			if err := export.WriteShapefile(out, regions); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown export format %q (want geojson or shp)", format)
		}

		zap.L().Info("regions exported",
			zap.String("format", format),
			zap.String("path", out),
			zap.Int("count", len(regions)),
		)
		return nil
	},
}

// patchFromFlags collects the edit flags that were actually set.
func patchFromFlags(cmd *cobra.Command) (details.Patch, error) {
	var p details.Patch
	flags := cmd.Flags()
	if flags.Changed("name") {
		v, err := flags.GetString("name")
		if err != nil {
			return p, err
		}
		p.Name = &v
	}
	if flags.Changed("description") {
		v, err := flags.GetString("description")
		if err != nil {
			return p, err
		}
		p.Description = &v
	}
	if flags.Changed("radius-km") {
		v, err := flags.GetFloat64("radius-km")
		if err != nil {
			return p, err
		}
		p.RadiusKm = &v
	}
	if flags.Changed("cloud-cover") {
		v, err := flags.GetInt("cloud-cover")
		if err != nil {
			return p, err
		}
		p.CloudCoverThreshold = &v
	}
	return p, nil
}

// parseLatLng parses "LAT,LNG" in decimal degrees.
func parseLatLng(s string) (geo.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.LatLng{}, eris.Errorf("expected LAT,LNG, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.LatLng{}, eris.Wrapf(err, "parse latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.LatLng{}, eris.Wrapf(err, "parse longitude %q", parts[1])
	}
	p := geo.LatLng{Lat: lat, Lng: lng}
	if !p.Valid() {
		return geo.LatLng{}, eris.Errorf("%s: %s", region.MsgCoordinatesInvalid, s)
	}
	return p, nil
}

// confirm asks a yes/no question on out and reads the answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	regionsListCmd.Flags().String("status", "", "filter by status (ACTIVE, PAUSED, MONITORING)")

	regionsCreateCmd.Flags().String("name", "", "region name")
	regionsCreateCmd.Flags().String("description", "", "region description")
	regionsCreateCmd.Flags().Float64("lat", 0, "center latitude")
	regionsCreateCmd.Flags().Float64("lng", 0, "center longitude")
	regionsCreateCmd.Flags().Float64("radius-km", 10, "radius in kilometers (1-50)")
	regionsCreateCmd.Flags().Int("cloud-cover", region.DefaultCloudCover, "max cloud cover percent (default from config)")
	_ = regionsCreateCmd.MarkFlagRequired("name")
	_ = regionsCreateCmd.MarkFlagRequired("lat")
	_ = regionsCreateCmd.MarkFlagRequired("lng")

	regionsUpdateCmd.Flags().String("name", "", "new name")
	regionsUpdateCmd.Flags().String("description", "", "new description")
	regionsUpdateCmd.Flags().Float64("radius-km", 0, "new radius in kilometers (1-50)")
	regionsUpdateCmd.Flags().Int("cloud-cover", 0, "new max cloud cover percent")

	regionsDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	regionsDragCmd.Flags().String("from", "", "gesture start (region center) as LAT,LNG")
	regionsDragCmd.Flags().String("to", "", "gesture release point as LAT,LNG")
	_ = regionsDragCmd.MarkFlagRequired("from")
	_ = regionsDragCmd.MarkFlagRequired("to")

	regionsExportCmd.Flags().String("format", "geojson", "export format: geojson or shp")
	regionsExportCmd.Flags().String("out", "", "output path (geojson defaults to stdout)")

	regionsCmd.AddCommand(regionsListCmd, regionsGetCmd, regionsCreateCmd, regionsUpdateCmd,
		regionsDeleteCmd, regionsDragCmd, regionsExportCmd)
	rootCmd.AddCommand(regionsCmd)
}
