package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/foresight/internal/insight"
	"github.com/cleared-dev/foresight/internal/model"
)

func newSummaryCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show monthly inflow, outflow and net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			summaries, err := p.insight().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The ledger is empty.")
				return nil
			}
			writeSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
}

func writeSummaries(w io.Writer, summaries []model.PeriodSummary) {
	tw := newTable(w)
	fmt.Fprintln(tw, "PERIOD\tINFLOW\tOUTFLOW\tNET")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Period,
			s.TotalInflow.StringFixed(2), s.TotalOutflow.StringFixed(2), s.Net.StringFixed(2))
	}
	tw.Flush()
}

func newForecastCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Predict next month's net with a confidence interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.insight().Forecast(cmd.Context())
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			writeForecast(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func writeForecast(w io.Writer, res model.ForecastResult) {
	if res.Status != model.StatusOK {
		fmt.Fprintf(w, "Not enough history to forecast yet (%d months recorded).\n", res.PeriodsUsed)
		return
	}
	fmt.Fprintf(w, "Forecast for %s: net %s (interval %s to %s) from %d months, %s\n",
		res.Period, res.PredictedNet.StringFixed(2), res.Lower.StringFixed(2),
		res.Upper.StringFixed(2), res.PeriodsUsed, res.Method)
}

func newAnomaliesCommand(flags *globalFlags) *cobra.Command {
	var (
		publish bool
		all     bool
		period  string
	)

	cmd := &cobra.Command{
		Use:   "anomalies",
		Short: "Flag unusual ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts insight.AnomalyOptions
			if period != "" {
				pp, err := model.ParsePeriod(period)
				if err != nil {
					return err
				}
				opts.Period = &pp
			}
			opts.Publish = publish

			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()
			if publish {
				if err := p.connectAlerts(); err != nil {
					return err
				}
			}

			report, err := p.insight().Anomalies(cmd.Context(), opts)
			if insight.IsInsufficient(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "Not enough entries for an anomaly scan: %v\n", err)
				return nil
			}
			if err != nil {
				return err
			}

			findings := report.Findings
			if !all {
				findings = report.Flagged()
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), findings)
			}
			writeFindings(cmd.OutOrStdout(), report, findings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "send flagged entries to the alerts broker")
	cmd.Flags().BoolVar(&all, "all", false, "show every entry, not only flagged ones")
	cmd.Flags().StringVar(&period, "period", "", "scan one month (YYYY-MM)")

	return cmd
}

func writeFindings(w io.Writer, report insight.AnomalyReport, findings []insight.Finding) {
	fmt.Fprintf(w, "Scanned %d entries, %d flagged.\n", report.Scanned, len(report.Flagged()))
	if report.Published > 0 {
		fmt.Fprintf(w, "Published %d alerts.\n", report.Published)
	}
	if len(findings) == 0 {
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tKIND\tCATEGORY\tVOTES\tFLAGGED BY\tDESCRIPTION")
	for _, f := range findings {
		e, v := f.Entry, f.Verdict
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			e.Date.Format("2006-01-02"), e.Amount.StringFixed(2), e.Kind, e.Category,
			v.Votes, v.TotalDetectors, strings.Join(v.FlaggedBy, ","), e.Description)
	}
	tw.Flush()
}

func newReportCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summaries, forecast, anomalies and goals in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := openProject(cmd.Context(), flags.repo)
			if err != nil {
				return err
			}
			defer p.Close()

			r, err := p.insight().Report(cmd.Context())
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(cmd.OutOrStdout(), r)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s report (%s)\n\n", p.cfg.Business.Name, r.GeneratedAt.Format("2006-01-02"))
			if len(r.Summaries) == 0 {
				fmt.Fprintln(out, "The ledger is empty.")
			} else {
				writeSummaries(out, r.Summaries)
			}
			fmt.Fprintln(out)
			writeForecast(out, r.Forecast)

			if len(r.TopOutflows) > 0 {
				fmt.Fprintf(out, "\nTop spending in %s:\n", r.Summaries[len(r.Summaries)-1].Period)
				tw := newTable(out)
				for _, c := range r.TopOutflows {
					fmt.Fprintf(tw, "  %s\t%s\t%d entries\n", c.Category, c.Total.StringFixed(2), c.Count)
				}
				tw.Flush()
			}

			if r.Anomalies != nil {
				fmt.Fprintln(out)
				writeFindings(out, *r.Anomalies, r.Anomalies.Flagged())
			}
			for _, n := range r.Notes {
				fmt.Fprintf(out, "\nNote: %s\n", n)
			}

			if len(r.Goals) > 0 {
				fmt.Fprintln(out)
				writeOutlooks(out, r.Goals)
			}
			return nil
		},
	}
}
