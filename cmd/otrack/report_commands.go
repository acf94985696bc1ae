package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"otrack/internal/api"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, delays, clients, cycle times, and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			dash, err := rt.service.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, dash)
			}
			printDashboard(cmd, dash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printDashboard(cmd *cobra.Command, dash api.Dashboard) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Summary", colorize) {
		fmt.Fprintln(out, line)
	}
	locations := make([]string, 0, len(dash.ByLocation))
	for loc := range dash.ByLocation {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	rows := [][]string{
		{"Total", strconv.Itoa(dash.Total)},
		{"In progress", strconv.Itoa(dash.InProgress)},
		{"Completed", strconv.Itoa(dash.Completed)},
		{"Delayed", strconv.Itoa(dash.DelayedCount)},
	}
	for _, loc := range locations {
		rows = append(rows, []string{"  " + loc, strconv.Itoa(dash.ByLocation[loc])})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, plainRows(rows), []columnAlignment{alignLeft, alignRight}, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Average cycle times", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "INCO:    %s\n", formatDays(dash.CycleTimes.INCODays))
	fmt.Fprintf(out, "ANTI:    %s\n", formatDays(dash.CycleTimes.ANTIDays))
	fmt.Fprintf(out, "Overall: %s\n", formatDays(dash.CycleTimes.OverallDays))
	fmt.Fprintln(out)

	if len(dash.Delayed) > 0 {
		printWorkOrders(out, "Delayed", dash.Delayed, colorize)
	}

	if len(dash.Clients) > 0 {
		for _, line := range renderSectionHeader("Clients in progress", colorize) {
			fmt.Fprintln(out, line)
		}
		clientRows := make([][]string, 0, len(dash.Clients))
		for _, c := range dash.Clients {
			clientRows = append(clientRows, []string{c.Client, strconv.Itoa(c.Count)})
		}
		fmt.Fprintln(out, renderTable([]string{"Client", "Orders"}, plainRows(clientRows), []columnAlignment{alignLeft, alignRight}, colorize))
		fmt.Fprintln(out)
	}

	if len(dash.History) > 0 {
		for _, line := range renderSectionHeader("Recent activity", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, renderHistory(dash.History, colorize))
	}
}

func renderHistory(entries []api.HistoryEntry, colorize bool) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ChangedAt, e.OT, e.Field, e.OldValue, e.NewValue, e.Actor})
	}
	return renderTable([]string{"When", "OT", "Field", "Old", "New", "By"}, plainRows(rows), nil, colorize)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			entries, err := rt.service.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"items": entries})
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, shouldColorize(out)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newStagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "stages",
		Short:       "Show the stage catalog",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, p := range api.Catalog() {
				for _, line := range renderSectionHeader(p.Name, colorize) {
					fmt.Fprintln(out, line)
				}
				rows := make([][]string, 0, len(p.Stages))
				for _, s := range p.Stages {
					handOff := ""
					if s.HandOff {
						handOff = "hand-off"
					}
					rows = append(rows, []string{s.Name, fmt.Sprintf("%d%%", s.Progress), handOff})
				}
				fmt.Fprintln(out, renderTable([]string{"Stage", "Progress", ""}, plainRows(rows), []columnAlignment{alignLeft, alignRight, alignLeft}, colorize))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
