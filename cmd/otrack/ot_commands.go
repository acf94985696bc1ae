package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"otrack/internal/api"
	"otrack/internal/workorder"
)

func newOTCommand(ctx *commandContext) *cobra.Command {
	otCmd := &cobra.Command{
		Use:     "ot",
		Aliases: []string{"workorder"},
		Short:   "Create, update, and inspect work orders",
	}

	otCmd.AddCommand(newOTCreateCommand(ctx))
	otCmd.AddCommand(newOTEditCommand(ctx))
	otCmd.AddCommand(newOTSetDateCommand(ctx))
	otCmd.AddCommand(newOTListCommand(ctx))
	otCmd.AddCommand(newOTShowCommand(ctx))
	otCmd.AddCommand(newOTExportCommand(ctx))

	return otCmd
}

func newOTCreateCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateRequest
	cmd := &cobra.Command{
		Use:   "create <ot>",
		Short: "Create a work order in INCO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			session, err := ctx.session(cmd.Context(), rt)
			if err != nil {
				return err
			}
			req.OT = args[0]
			created, err := rt.service.Create(cmd.Context(), session, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s in %s\n", created.OT, created.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Client, "client", "", "Client name")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "Tag")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description")
	return cmd
}

func newOTEditCommand(ctx *commandContext) *cobra.Command {
	var client, tag, description string
	cmd := &cobra.Command{
		Use:   "edit <ot>",
		Short: "Edit client, tag, or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("client") && !flags.Changed("tag") && !flags.Changed("description") {
				return errors.New("nothing to edit; pass --client, --tag, or --description")
			}
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			session, err := ctx.session(cmd.Context(), rt)
			if err != nil {
				return err
			}
			current, err := rt.service.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			req := api.DetailsRequest{Client: current.Client, Tag: current.Tag, Description: current.Description}
			if flags.Changed("client") {
				req.Client = client
			}
			if flags.Changed("tag") {
				req.Tag = tag
			}
			if flags.Changed("description") {
				req.Description = description
			}
			updated, err := rt.service.UpdateDetails(cmd.Context(), session, args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", updated.OT)
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	return cmd
}

func newOTSetDateCommand(ctx *commandContext) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "set-date <ot> <stage> [YYYY-MM-DD]",
		Short: "Record or clear the date a stage was reached",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			switch {
			case clear && len(args) == 3:
				return errors.New("--clear does not take a date")
			case !clear && len(args) == 2:
				return errors.New("date is required (or pass --clear)")
			case len(args) == 3:
				raw = args[2]
			}
			date, err := workorder.ParseDate(raw)
			if err != nil {
				return err
			}
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			session, err := ctx.session(cmd.Context(), rt)
			if err != nil {
				return err
			}
			update, err := rt.service.RecordStageDate(cmd.Context(), session, args[0], args[1], date)
			if err != nil {
				return err
			}
			printStageUpdate(cmd, update)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Clear the stage date")
	return cmd
}

func printStageUpdate(cmd *cobra.Command, update api.StageUpdate) {
	out := cmd.OutOrStdout()
	o := update.WorkOrder
	switch {
	case update.Cleared:
		fmt.Fprintf(out, "Cleared %s date on %s\n", update.Stage, o.OT)
	default:
		fmt.Fprintf(out, "Recorded %s %s on %s\n", update.Stage, o.Dates[update.Stage], o.OT)
		if !update.StageKnown {
			fmt.Fprintf(out, "%s is outside the %s pipeline; status unchanged\n", update.Stage, update.PrevLocation)
		}
	}
	fmt.Fprintf(out, "Status: %s (%d%%), location %s\n", o.Status, o.Progress, o.Location)
	if update.Advanced {
		fmt.Fprintf(out, "Moved %s -> %s\n", update.PrevLocation, update.Location)
	}
}

func newOTListCommand(ctx *commandContext) *cobra.Command {
	var location string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders by location",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if strings.TrimSpace(location) != "" {
				orders, err := rt.service.List(cmd.Context(), location)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{"items": orders})
				}
				printWorkOrders(out, strings.ToUpper(strings.TrimSpace(location)), orders, colorize)
				return nil
			}
			board, err := rt.service.Board(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, board)
			}
			printWorkOrders(out, "INCO", board.INCO, colorize)
			printWorkOrders(out, "ANTI", board.ANTI, colorize)
			printWorkOrders(out, "ARCHIVED", board.Archived, colorize)
			if len(board.Unknown) > 0 {
				printWorkOrders(out, "UNKNOWN LOCATION", board.Unknown, colorize)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", "Only list INCO, ANTI, or ARCHIVED")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newOTShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <ot>",
		Short: "Show one work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			o, err := rt.service.Describe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, o)
			}
			printWorkOrderDetail(cmd.OutOrStdout(), o, stageOrder())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func stageOrder() []string {
	var names []string
	for _, p := range api.Catalog() {
		for _, s := range p.Stages {
			names = append(names, s.Name)
		}
	}
	return names
}

func newOTExportCommand(ctx *commandContext) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every work order as JSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			if strings.TrimSpace(output) == "" || output == "-" {
				return rt.service.Export(cmd.Context(), cmd.OutOrStdout(), format)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := rt.service.Export(cmd.Context(), file, format); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported work orders to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", api.FormatJSON, "Export format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	return cmd
}
