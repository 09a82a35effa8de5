package main

import (
	"context"

	"github.com/spf13/cobra"
)

func testimonialsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testimonials",
		Short: "Read what members say about UniHub",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List testimonials",
		Args:  cobra.NoArgs,
		RunE: run(g, func(ctx context.Context, a *App, _ []string) error {
			out, err := a.client.Testimonials.List(ctx)
			if err != nil {
				return err
			}
			printTestimonials(a.out, out)
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one testimonial",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := a.client.Testimonials.Get(ctx, id)
			if err != nil {
				return err
			}
			printTestimonial(a.out, t)
			return nil
		}),
	}

	cmd.AddCommand(list, show)
	return cmd
}
