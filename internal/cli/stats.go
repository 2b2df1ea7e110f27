package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/internal/geo"
	"github.com/mesh-intelligence/landmark/pkg/types"
)

// stats summarizes the project.
type stats struct {
	Features     int                      `json:"features"`
	Observations int                      `json:"observations"`
	Measurements int                      `json:"measurements"`
	Tasks        map[types.TaskStatus]int `json:"tasks"`
	Overdue      int                      `json:"overdue"`
	Templates    int                      `json:"templates"`
	Media        int                      `json:"media"`
	MediaBytes   int64                    `json:"mediaBytes"`
	Tags         int                      `json:"tags"`
	TotalArea    float64                  `json:"totalAreaM2"`
	TotalLength  float64                  `json:"totalLengthM"`
}

var taskStatuses = []types.TaskStatus{types.TaskPlanned, types.TaskActive, types.TaskDone, types.TaskAbandoned}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the project",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var s stats

			features, err := store.Features.GetAll(ctx)
			if err != nil {
				return err
			}
			s.Features = len(features)
			for _, f := range features {
				s.TotalArea += geo.Area(f.Geometry)
				s.TotalLength += geo.Length(f.Geometry)
			}
			if s.Observations, err = store.Observations.Count(ctx, ""); err != nil {
				return err
			}
			if s.Measurements, err = store.Measurements.Count(ctx, ""); err != nil {
				return err
			}
			s.Tasks = make(map[types.TaskStatus]int, len(taskStatuses))
			for _, status := range taskStatuses {
				if s.Tasks[status], err = store.Tasks.Count(ctx, "", status); err != nil {
					return err
				}
			}
			overdue, err := store.Tasks.Overdue(ctx)
			if err != nil {
				return err
			}
			s.Overdue = len(overdue)
			if s.Templates, err = store.Templates.Count(ctx); err != nil {
				return err
			}
			if s.Media, err = store.Media.Count(ctx, ""); err != nil {
				return err
			}
			if s.MediaBytes, err = store.Media.TotalSize(ctx); err != nil {
				return err
			}
			tags, err := store.Features.AllTags(ctx)
			if err != nil {
				return err
			}
			s.Tags = len(tags)

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), s)
			}
			units := a.units(ctx, store)
			out := cmd.OutOrStdout()
			field(out, "Features", strconv.Itoa(s.Features))
			field(out, "Observations", strconv.Itoa(s.Observations))
			field(out, "Measurements", strconv.Itoa(s.Measurements))
			for _, status := range taskStatuses {
				field(out, "Tasks "+string(status), strconv.Itoa(s.Tasks[status]))
			}
			field(out, "Overdue", strconv.Itoa(s.Overdue))
			field(out, "Templates", strconv.Itoa(s.Templates))
			field(out, "Media", fmt.Sprintf("%d (%d bytes)", s.Media, s.MediaBytes))
			field(out, "Tags", strconv.Itoa(s.Tags))
			field(out, "Total area", geo.FormatArea(s.TotalArea, units))
			field(out, "Total length", geo.FormatDistance(s.TotalLength, units))
			return nil
		}),
	}
}
