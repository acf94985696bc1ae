package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"otrack/internal/api"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := "[OK]"
	color := text.FgGreen
	if kind == statusError {
		statusText = "[ERROR]"
		color = text.FgRed
	}
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		return text.Colors{color}.Sprint(base)
	}
	return base
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = text.Colors{text.FgBlue}.Sprint(line)
		rule = text.Colors{text.FgBlue}.Sprint(rule)
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func workOrderRows(orders []api.WorkOrder) []tableRow {
	rows := make([]tableRow, 0, len(orders))
	for _, o := range orders {
		status := o.Status
		if status == "" {
			status = "-"
		}
		delayed := ""
		if o.Delayed {
			delayed = "delayed"
		}
		rows = append(rows, tableRow{
			cells:     []string{o.OT, o.Client, o.Tag, status, fmt.Sprintf("%d%%", o.Progress), o.Location, delayed},
			highlight: o.Delayed,
		})
	}
	return rows
}

var workOrderHeaders = []string{"OT", "Client", "Tag", "Status", "Progress", "Location", "Delay"}

var workOrderAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

func printWorkOrders(out io.Writer, title string, orders []api.WorkOrder, colorize bool) {
	for _, line := range renderSectionHeader(fmt.Sprintf("%s (%d)", title, len(orders)), colorize) {
		fmt.Fprintln(out, line)
	}
	if len(orders) == 0 {
		fmt.Fprintln(out, "No work orders")
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintln(out, renderTable(workOrderHeaders, workOrderRows(orders), workOrderAligns, colorize))
	fmt.Fprintln(out)
}

func printWorkOrderDetail(out io.Writer, o api.WorkOrder, order []string) {
	fmt.Fprintf(out, "OT:          %s\n", o.OT)
	fmt.Fprintf(out, "Client:      %s\n", o.Client)
	fmt.Fprintf(out, "Tag:         %s\n", o.Tag)
	fmt.Fprintf(out, "Description: %s\n", o.Description)
	fmt.Fprintf(out, "Status:      %s\n", o.Status)
	fmt.Fprintf(out, "Progress:    %d%%\n", o.Progress)
	fmt.Fprintf(out, "Location:    %s\n", o.Location)
	fmt.Fprintf(out, "Delayed:     %s\n", yesNo(o.Delayed))
	if len(o.Dates) == 0 {
		return
	}
	fmt.Fprintln(out, "Dates:")
	for _, stage := range order {
		if value, ok := o.Dates[stage]; ok {
			fmt.Fprintf(out, "  %-12s %s\n", stage, value)
		}
	}
}

func formatDays(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f days", *value)
}
