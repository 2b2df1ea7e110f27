package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

func (a *app) newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage feature tasks",
	}
	cmd.AddCommand(a.newTaskListCmd(), a.newTaskAddCmd(), a.newTaskUpdateCmd())
	return cmd
}

func (a *app) newTaskListCmd() *cobra.Command {
	var (
		statuses, tags          []string
		featureID, geometryType string
		overdue, withDue, noDue bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by priority and due date",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			filter := types.TaskFilter{
				Tags:      tags,
				FeatureID: featureID,
				Overdue:   overdue,
			}
			for _, s := range statuses {
				status := types.TaskStatus(s)
				if !status.Valid() {
					return fmt.Errorf("%w: unknown task status %q", types.ErrInvalidValue, s)
				}
				filter.Statuses = append(filter.Statuses, status)
			}
			if geometryType != "" {
				gt, err := parseGeometryType(geometryType)
				if err != nil {
					return err
				}
				filter.GeometryType = gt
			}
			switch {
			case withDue:
				filter.HasDueDate = &withDue
			case noDue:
				has := false
				filter.HasDueDate = &has
			}

			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			tasks, err := store.Tasks.Filter(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), tasks)
			}
			t := newTable(cmd.OutOrStdout(), "ID", "TITLE", "STATUS", "PRIORITY", "DUE", "FEATURE")
			for _, task := range tasks {
				t.row(task.ID, task.Title, string(task.Status), priority(task.Priority),
					formatOpt(task.DueDate, dateLayout), task.FeatureID)
			}
			return t.flush()
		}),
	}
	f := cmd.Flags()
	f.StringSliceVar(&statuses, "status", nil, "only these statuses (planned, active, done, abandoned)")
	f.StringSliceVar(&tags, "tag", nil, "only tasks carrying any of these tags")
	f.StringVar(&featureID, "feature", "", "only tasks of this feature")
	f.StringVar(&geometryType, "type", "", "only tasks on features of this geometry type")
	f.BoolVar(&overdue, "overdue", false, "only open tasks past their due date")
	f.BoolVar(&withDue, "with-due", false, "only tasks with a due date")
	f.BoolVar(&noDue, "no-due", false, "only tasks without a due date")
	cmd.MarkFlagsMutuallyExclusive("with-due", "no-due")
	return cmd
}

func (a *app) newTaskAddCmd() *cobra.Command {
	var (
		description, status, due string
		prio                     int
		tags                     []string
	)
	cmd := &cobra.Command{
		Use:   "add <feature-id> <title>",
		Short: "Add a task to a feature",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			in := types.CreateTaskInput{
				FeatureID: args[0],
				Title:     args[1],
				Status:    types.TaskStatus(status),
				Tags:      tags,
			}
			if description != "" {
				in.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				in.Priority = &prio
			}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}

			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if _, err := store.Features.GetByID(ctx, in.FeatureID); err != nil {
				return err
			}
			task, err := store.Tasks.Create(ctx, in)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.ID)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&description, "description", "", "task description")
	f.StringVar(&status, "status", "", "initial status (default planned)")
	f.StringVar(&due, "due", "", "due date as YYYY-MM-DD")
	f.IntVar(&prio, "priority", 0, "priority from 1 (low) to 5 (high)")
	f.StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func (a *app) newTaskUpdateCmd() *cobra.Command {
	var (
		title, description, status, due string
		prio                            int
		tags                            []string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long:  "Change the fields given by flags. Moving a task to done records its completion time.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var in types.UpdateTaskInput
			changed := cmd.Flags().Changed
			if changed("title") {
				in.Title = &title
			}
			if changed("description") {
				in.Description = &description
			}
			if changed("status") {
				s := types.TaskStatus(status)
				in.Status = &s
			}
			if changed("priority") {
				in.Priority = &prio
			}
			if changed("due") {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}
			if changed("tag") {
				in.Tags = tags
			}

			store, err := a.store(cmd)
			if err != nil {
				return err
			}
			task, err := store.Tasks.Update(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", task.ID, task.Status)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&description, "description", "", "new description")
	f.StringVar(&status, "status", "", "new status (planned, active, done, abandoned)")
	f.StringVar(&due, "due", "", "new due date as YYYY-MM-DD")
	f.IntVar(&prio, "priority", 0, "new priority from 1 to 5")
	f.StringSliceVar(&tags, "tag", nil, "replacement tags")
	return cmd
}

func priority(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}
