package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/unihub/auth"
	"github.com/unkn0wn-root/unihub/user"
)

func loginCmd(g *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return run(g, func(ctx context.Context, a *App, _ []string) error {
				s, err := a.client.Auth.Login(ctx, email, password)
				if err != nil {
					return err
				}
				name := s.Username
				if name == "" {
					name = email
				}
				fmt.Fprintf(a.out, "Logged in as %s\n", name)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func logoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			if err := a.client.Auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		}),
	}
}

func usersCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Find other users",
	}
	var typ string
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search users",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			out, err := a.client.Users.Search(ctx, strings.Join(args, " "), user.SearchType(typ))
			if err != nil {
				return err
			}
			printUsers(a.out, out)
			return nil
		}),
	}
	search.Flags().StringVar(&typ, "type", string(user.SearchAll), "Match on all, username, name, full_name or interest")
	cmd.AddCommand(search)
	return cmd
}

func signupCmd(g *globalFlags) *cobra.Command {
	var in auth.SignupInput
	var year int
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register an account; a code is mailed for verify-otp",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			if year > 0 {
				in.AcademicYear = &year
			}
			msg, err := a.client.Auth.Signup(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		}),
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Username")
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().IntVar(&year, "year", 0, "Academic year")
	for _, f := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func verifyOTPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-otp <email> <code>",
		Short: "Confirm a signup with the mailed code",
		Args:  cobra.ExactArgs(2),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			msg, err := a.client.Auth.VerifyOTP(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		}),
	}
}

func profileCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show my profile",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			p, err := a.client.Users.Profile(ctx)
			if err != nil {
				return err
			}
			printProfile(a.out, p)
			return nil
		}),
	}

	var first, last, bio string
	var year int
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the flags given are sent",
		Args:  cobra.NoArgs,
	}
	update.RunE = run(g, func(ctx context.Context, a *App, _ []string) error {
		var upd user.ProfileUpdate
		flags := update.Flags()
		if flags.Changed("first-name") {
			upd.FirstName = &first
		}
		if flags.Changed("last-name") {
			upd.LastName = &last
		}
		if flags.Changed("bio") {
			upd.Bio = &bio
		}
		if flags.Changed("year") {
			upd.AcademicYear = &year
		}
		p, err := a.client.Users.UpdateProfile(ctx, upd)
		if err != nil {
			return err
		}
		printProfile(a.out, p)
		return nil
	})
	update.Flags().StringVar(&first, "first-name", "", "First name")
	update.Flags().StringVar(&last, "last-name", "", "Last name")
	update.Flags().StringVar(&bio, "bio", "", "Short bio")
	update.Flags().IntVar(&year, "year", 0, "Academic year")

	cmd.AddCommand(update)
	return cmd
}
