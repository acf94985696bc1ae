package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users allowed to sign in",
	}

	userCmd.AddCommand(&cobra.Command{
		Use:   "add <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			user, err := rt.identity.RegisterUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Email)
			return nil
		},
	})

	userCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			users, err := rt.store.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users registered")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.Email, u.CreatedAt.Local().Format(time.DateTime)})
			}
			fmt.Fprintln(out, renderTable([]string{"Email", "Registered"}, plainRows(rows), nil, false))
			return nil
		},
	})

	return userCmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			session, err := rt.identity.SignIn(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ctx.writeToken(session.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n",
				session.Email, session.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			token, err := ctx.readToken()
			if err != nil {
				return err
			}
			if err := rt.identity.SignOut(cmd.Context(), token); err != nil {
				return err
			}
			if err := ctx.clearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.open(cmd)
			if err != nil {
				return err
			}
			session, err := ctx.session(cmd.Context(), rt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (expires %s)\n",
				session.Email, session.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
}
