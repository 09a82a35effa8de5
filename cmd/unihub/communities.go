package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/unihub/community"
	"github.com/unkn0wn-root/unihub/membership"
)

func communitiesCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "communities",
		Aliases: []string{"community", "c"},
		Short:   "Browse and create communities",
	}

	var (
		f      community.Filters
		mine   bool
		member string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List communities",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			var (
				out []community.Community
				err error
			)
			switch {
			case member != "":
				out, err = a.client.Communities.UserCommunities(ctx, member)
			case mine:
				filters := f
				filters.MemberOf = true
				out, err = a.client.Communities.Communities(ctx, &filters)
			case f == (community.Filters{}):
				out, err = a.client.Communities.Communities(ctx, nil)
			default:
				out, err = a.client.Communities.Communities(ctx, &f)
			}
			if err != nil {
				return err
			}
			printCommunities(a.out, out)
			return nil
		}),
	}
	list.Flags().StringVar(&f.Category, "category", "", "Filter by category")
	list.Flags().StringVar(&f.Search, "search", "", "Search text")
	list.Flags().StringVar(&f.Ordering, "ordering", "", "Sort field, e.g. -member_count")
	list.Flags().IntVar(&f.Page, "page", 0, "Page number")
	list.Flags().BoolVar(&mine, "mine", false, "Only communities I belong to")
	list.Flags().StringVar(&member, "user", "", "Only communities this user belongs to")

	show := &cobra.Command{
		Use:   "show <slug>",
		Short: "Show one community",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			c, err := a.client.Communities.Community(ctx, args[0])
			if err != nil {
				return err
			}
			printCommunity(a.out, c)
			return nil
		}),
	}

	var (
		in   community.CreateInput
		tags string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a community",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			if tags != "" {
				for _, t := range strings.Split(tags, ",") {
					if t = strings.TrimSpace(t); t != "" {
						in.Tags = append(in.Tags, t)
					}
				}
			}
			c, err := a.client.Communities.CreateCommunity(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created %s (%s)\n", c.Name, c.Slug)
			return nil
		}),
	}
	create.Flags().StringVar(&in.Name, "name", "", "Community name")
	create.Flags().StringVar(&in.Description, "description", "", "Description")
	create.Flags().StringVar(&in.Category, "category", "", "Category")
	create.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	create.Flags().StringVar(&in.Rules, "rules", "", "Community rules")
	create.Flags().BoolVar(&in.IsPrivate, "private", false, "Private community")
	create.Flags().BoolVar(&in.RequiresApproval, "requires-approval", false, "New members need approval")
	_ = create.MarkFlagRequired("name")

	var role string
	members := &cobra.Command{
		Use:   "members <slug>",
		Short: "List community members",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			out, err := a.client.Communities.Members(ctx, args[0], community.Role(role))
			if err != nil {
				return err
			}
			printMembers(a.out, out)
			return nil
		}),
	}
	members.Flags().StringVar(&role, "role", "", "Only members with this role (admin, moderator, member)")

	cmd.AddCommand(list, show, create, members)
	return cmd
}

func joinCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "join <slug>",
		Short: "Join a community",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			resp, err := a.client.Communities.Join(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, detailOr(resp, "Joined community."))
			return nil
		}),
	}
}

func leaveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <slug>",
		Short: "Leave a community",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			resp, err := a.client.Communities.Leave(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, detailOr(resp, "Left community."))
			return nil
		}),
	}
}

func membershipCmd(g *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "membership <slug>",
		Short: "Show my membership in a community, retrying while it is not found",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			var onChange func(membership.View)
			if verbose {
				onChange = func(v membership.View) {
					if !v.State.Settled() {
						printMembershipView(a.out, v)
					}
				}
			}
			rec := a.client.Membership(onChange)
			defer rec.Close()

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			rec.Update(args[0], a.client.Authenticated())
			v, err := rec.Wait(ctx)
			if err != nil {
				return err
			}
			printMembershipView(a.out, v)
			return nil
		}),
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up waiting after this long")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print intermediate states")
	return cmd
}

func detailOr(resp community.SuccessResponse, def string) string {
	if resp.Detail != "" {
		return resp.Detail
	}
	return def
}
