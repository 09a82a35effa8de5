package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/unihub/optimistic"
	"github.com/unkn0wn-root/unihub/post"
)

func postsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post", "p"},
		Short:   "Read, write and upvote community posts",
	}

	var (
		f       post.Filters
		postTyp string
	)
	list := &cobra.Command{
		Use:   "list <slug>",
		Short: "List posts in a community",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			f.Type = post.Type(postTyp)
			page, err := a.client.Posts.Posts(ctx, args[0], &f)
			if err != nil {
				return err
			}
			printPosts(a.out, page)
			return nil
		}),
	}
	list.Flags().StringVar(&postTyp, "type", "", "Post type (discussion, question, event, announcement, resource, other)")
	list.Flags().StringVar(&f.Search, "search", "", "Search text")
	list.Flags().StringVar(&f.Ordering, "ordering", "", "Sort field, e.g. -created_at")
	list.Flags().IntVar(&f.Page, "page", 0, "Page number")

	show := &cobra.Command{
		Use:   "show <slug> <id>",
		Short: "Show a post",
		Args:  cobra.ExactArgs(2),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			p, err := a.client.Posts.Post(ctx, args[0], id)
			if err != nil {
				return err
			}
			printPost(a.out, p)
			return nil
		}),
	}

	var (
		in      post.CreatePostInput
		newType string
	)
	create := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a post",
		Args:  cobra.ExactArgs(1),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			in.Type = post.Type(newType)
			p, err := a.client.Posts.CreatePost(ctx, args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created post #%d\n", p.ID)
			return nil
		}),
	}
	create.Flags().StringVar(&in.Title, "title", "", "Title")
	create.Flags().StringVar(&in.Content, "content", "", "Body")
	create.Flags().StringVar(&newType, "type", string(post.TypeDiscussion), "Post type")
	create.Flags().StringVar(&in.EventLocation, "location", "", "Event location")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("content")

	upvote := &cobra.Command{
		Use:   "upvote <slug> <id>",
		Short: "Toggle my upvote on a post",
		Args:  cobra.ExactArgs(2),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			p, err := a.client.Posts.Post(ctx, args[0], id)
			if err != nil {
				return err
			}
			return toggleVote(ctx, a, optimistic.Vote{HasUpvoted: p.HasUpvoted, UpvoteCount: p.UpvoteCount},
				func(ctx context.Context) (string, error) { return a.client.Posts.UpvotePost(ctx, args[0], id) })
		}),
	}

	cmd.AddCommand(list, show, create, upvote)
	return cmd
}

func commentsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read, write and upvote comments on a post",
	}

	list := &cobra.Command{
		Use:   "list <slug> <post-id>",
		Short: "List comments on a post",
		Args:  cobra.ExactArgs(2),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			out, err := a.client.Posts.Comments(ctx, args[0], id)
			if err != nil {
				return err
			}
			printComments(a.out, out)
			return nil
		}),
	}

	var parent int64
	add := &cobra.Command{
		Use:   "add <slug> <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(3),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			in := post.CreateCommentInput{Content: args[2]}
			if parent > 0 {
				in.ParentID = &parent
			}
			c, err := a.client.Posts.CreateComment(ctx, args[0], id, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added comment #%d\n", c.ID)
			return nil
		}),
	}
	add.Flags().Int64Var(&parent, "reply-to", 0, "Parent comment id")

	upvote := &cobra.Command{
		Use:   "upvote <slug> <post-id> <comment-id>",
		Short: "Toggle my upvote on a comment",
		Args:  cobra.ExactArgs(3),
		RunE: run(g, func(ctx context.Context, a *App, args []string) error {
			postID, err := parseID(args[1])
			if err != nil {
				return err
			}
			commentID, err := parseID(args[2])
			if err != nil {
				return err
			}
			comments, err := a.client.Posts.Comments(ctx, args[0], postID)
			if err != nil {
				return err
			}
			idx := slices.IndexFunc(comments, func(c post.Comment) bool { return c.ID == commentID })
			if idx < 0 {
				return fmt.Errorf("comment %d not found on post %d", commentID, postID)
			}
			current := optimistic.Vote{HasUpvoted: comments[idx].HasUpvoted, UpvoteCount: comments[idx].UpvoteCount}
			return toggleVote(ctx, a, current, func(ctx context.Context) (string, error) {
				return a.client.Posts.UpvoteComment(ctx, args[0], postID, commentID)
			})
		}),
	}

	cmd.AddCommand(list, add, upvote)
	return cmd
}

// toggleVote shows the optimistic vote first, then the reverted one if the
// call fails.
func toggleVote(ctx context.Context, a *App, current optimistic.Vote, call func(context.Context) (string, error)) error {
	u := optimistic.New(current, optimistic.Options[optimistic.Vote]{
		Logger:   a.log,
		OnChange: func(v optimistic.Vote) { printVote(a.out, v) },
		Notify:   func(err error) { fmt.Fprintf(a.out, "Upvote failed: %v\n", err) },
	})
	var detail string
	err := u.Run(ctx, optimistic.ToggleVote, func(ctx context.Context) error {
		var err error
		detail, err = call(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if detail != "" {
		fmt.Fprintln(a.out, detail)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
