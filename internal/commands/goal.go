package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/foresight/internal/insight"
	"github.com/cleared-dev/foresight/internal/model"
)

func newGoalCommand(flags *globalFlags) *cobra.Command {
	goalCmd := &cobra.Command{
		Use:   "goal",
		Short: "Savings goals",
	}
	goalCmd.AddCommand(
		newGoalAddCommand(flags),
		newGoalListCommand(flags),
		newGoalProjectCommand(flags),
	)
	return goalCmd
}

func newGoalAddCommand(flags *globalFlags) *cobra.Command {
	var (
		title       string
		description string
		target      string
		by          string
		from        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := decimal.NewFromString(target)
			if err != nil {
				return fmt.Errorf("invalid --target %q: %w", target, err)
			}
			deadline, err := time.Parse("2006-01-02", by)
			if err != nil {
				return fmt.Errorf("invalid --by %q (want YYYY-MM-DD): %w", by, err)
			}
			params := insight.GoalParams{
				Title:        title,
				Description:  description,
				TargetAmount: amount,
				TargetDate:   deadline,
			}
			if from != "" {
				if params.CreationPeriod, err = model.ParsePeriod(from); err != nil {
					return err
				}
			}

			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			g, err := p.insight().AddGoal(cmd.Context(), params)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added goal %s: %s, %s by %s\n",
				g.ID, g.Title, g.TargetAmount.StringFixed(2), g.TargetDate.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "goal title (required)")
	cmd.Flags().StringVar(&description, "description", "", "goal description")
	cmd.Flags().StringVar(&target, "target", "", "amount to save (required)")
	cmd.Flags().StringVar(&by, "by", "", "target date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&from, "from", "", "first month that counts toward the goal, YYYY-MM (default: this month)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

func newGoalListCommand(flags *globalFlags) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List savings goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := make([]model.GoalStatus, len(statuses))
			for i, s := range statuses {
				filter[i] = model.GoalStatus(s)
			}

			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			goals, err := p.insight().Goals(cmd.Context(), filter...)
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), goals)
			}
			if len(goals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No goals.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tTARGET\tBY\tFROM\tSTATUS")
			for _, g := range goals {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", g.ID, g.Title, g.TargetAmount.StringFixed(2),
					g.TargetDate.Format("2006-01-02"), g.CreationPeriod, g.Status)
			}
			tw.Flush()
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only goals with these statuses (active, achieved, failed)")

	return cmd
}

func newGoalProjectCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "project [goal-id]",
		Short: "Project when goals will be reached",
		Long:  "Project one goal, or every active goal when no ID is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			svc := p.insight()
			var outlooks []insight.GoalOutlook
			if len(args) == 1 {
				o, err := svc.ProjectGoal(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				outlooks = append(outlooks, o)
			} else if outlooks, err = svc.ProjectGoals(cmd.Context()); err != nil {
				return err
			}

			if flags.json {
				return printJSON(cmd.OutOrStdout(), outlooks)
			}
			if len(outlooks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active goals.")
				return nil
			}
			writeOutlooks(cmd.OutOrStdout(), outlooks)
			return nil
		},
	}
}

func writeOutlooks(w io.Writer, outlooks []insight.GoalOutlook) {
	for _, o := range outlooks {
		g, pr := o.Goal, o.Projection
		fmt.Fprintf(w, "%s (%s): saved %s of %s, %.2f%%, %s\n",
			g.Title, g.ID, pr.CurrentSaved.StringFixed(2), g.TargetAmount.StringFixed(2),
			pr.ProgressPercent, g.Status)
		switch pr.Status {
		case model.StatusInsufficientData:
			fmt.Fprintln(w, "  No monthly history yet, cannot project a date.")
		case model.StatusUndefinedHorizon:
			fmt.Fprintf(w, "  Recent months average %s net, so the goal is never reached at this pace.\n",
				pr.AverageNet.StringFixed(2))
		default:
			fmt.Fprintf(w, "  Projected %s (%.2f months needed, %.2f left), %.2f%% likely\n",
				pr.ProjectedDate.Format("2006-01-02"), *pr.MonthsNeeded, pr.MonthsLeft, *pr.SuccessProbability)
		}
	}
}
