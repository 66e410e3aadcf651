package main

import (
	"fmt"

	"github.com/sahil-darj/Rewear/internal/market"

	"github.com/spf13/cobra"
)

func (c *cli) signupCmd() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.svc.Signup(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if err := c.startSession(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You start with %d points.\n", u.Name, u.Points)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&password, "password", market.MockPassword, "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.svc.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := c.startSession(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.local.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	var name, avatar string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show or edit the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			var patch market.UserPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("avatar") {
				patch.Avatar = &avatar
			}
			if patch.Name != nil || patch.Avatar != nil {
				if u, err = c.svc.UpdateProfile(cmd.Context(), u.ID, patch); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(out, "Points: %d\n", u.Points)
			fmt.Fprintf(out, "Member since: %s\n", u.JoinedDate.Format("2006-01-02"))
			if u.IsAdmin {
				fmt.Fprintln(out, "Role: admin")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Change display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Change avatar URL")
	return cmd
}

func (c *cli) ledgerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ledger",
		Short: "Show your points history",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := c.svc.Ledger(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout(), "WHEN", "EVENT", "CHANGE", "BALANCE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%+d\t%d\n", e.CreatedAt.Format("2006-01-02 15:04"), e.EventType, e.Change, e.BalanceAfter)
			}
			return w.Flush()
		},
	}
}
