package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/unihub/community"
	"github.com/unkn0wn-root/unihub/membership"
	"github.com/unkn0wn-root/unihub/optimistic"
	"github.com/unkn0wn-root/unihub/post"
	"github.com/unkn0wn-root/unihub/testimonial"
	"github.com/unkn0wn-root/unihub/user"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func printCommunities(w io.Writer, list []community.Community) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No communities found.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "SLUG\tNAME\tCATEGORY\tMEMBERS\tCREATED")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Slug, c.Name, c.Category, humanize.Comma(int64(c.MemberCount)), ago(c.CreatedAt))
	}
	_ = tw.Flush()
}

func printCommunity(w io.Writer, c community.Community) {
	fmt.Fprintf(w, "%s (%s)\n", c.Name, c.Slug)
	if c.Description != "" {
		fmt.Fprintf(w, "  %s\n", c.Description)
	}
	fmt.Fprintf(w, "  category: %s\n", c.Category)
	if len(c.Tags) > 0 {
		fmt.Fprintf(w, "  tags:     %s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Fprintf(w, "  members:  %s\n", humanize.Comma(int64(c.MemberCount)))
	if c.Creator != nil {
		fmt.Fprintf(w, "  creator:  %s\n", c.Creator.DisplayName())
	}
	fmt.Fprintf(w, "  created:  %s\n", ago(c.CreatedAt))
}

func printMembers(w io.Writer, list []community.Member) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No members found.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "USERNAME\tNAME\tROLE\tSTATUS\tJOINED")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.User.Username, m.User.DisplayName(), m.Role, m.Status, ago(m.JoinedAt))
	}
	_ = tw.Flush()
}

func printMembershipView(w io.Writer, v membership.View) {
	switch v.State {
	case membership.Idle:
		fmt.Fprintln(w, "No community selected.")
		return
	case membership.Unauthenticated:
		fmt.Fprintln(w, "Not logged in.")
		return
	case membership.Loading:
		fmt.Fprintf(w, "%s: checking membership...\n", v.Slug)
		return
	case membership.RetryPending:
		fmt.Fprintf(w, "%s: not available yet, retry %d\n", v.Slug, v.Attempt)
		return
	}
	s := v.Status
	switch {
	case s == nil || !s.IsMember:
		fmt.Fprintf(w, "%s: not a member\n", v.Slug)
	default:
		state, role := "-", "-"
		if s.Status != nil {
			state = string(*s.Status)
		}
		if s.Role != nil {
			role = string(*s.Role)
		}
		fmt.Fprintf(w, "%s: member (status %s, role %s)\n", v.Slug, state, role)
	}
	if v.State == membership.GaveUp && v.Err != "" {
		fmt.Fprintf(w, "  last error: %s\n", v.Err)
	}
}

func printPosts(w io.Writer, page post.Page) {
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No posts yet.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tAUTHOR\tUPVOTES\tCOMMENTS\tPOSTED")
	for _, p := range page.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n", p.ID, p.Type, p.Title, p.Author.DisplayName(), p.UpvoteCount, p.CommentCount, ago(p.CreatedAt))
	}
	_ = tw.Flush()
	if page.Count > len(page.Results) {
		fmt.Fprintf(w, "%d of %s posts\n", len(page.Results), humanize.Comma(int64(page.Count)))
	}
}

func printPost(w io.Writer, p post.Post) {
	fmt.Fprintf(w, "#%d %s [%s]\n", p.ID, p.Title, p.Type)
	fmt.Fprintf(w, "by %s, %s\n\n", p.Author.DisplayName(), ago(p.CreatedAt))
	fmt.Fprintln(w, p.Content)
	if e := p.Event; e != nil {
		fmt.Fprintln(w)
		if e.Date != nil {
			fmt.Fprintf(w, "when:  %s (%s)\n", e.Date.Format(time.RFC1123), humanize.Time(*e.Date))
		}
		if e.Location != "" {
			fmt.Fprintf(w, "where: %s\n", e.Location)
		}
		if e.ParticipantLimit != nil {
			fmt.Fprintf(w, "going: %d/%d\n", e.ParticipantCount, *e.ParticipantLimit)
		}
	}
	fmt.Fprintf(w, "\n%s, %s\n", plural(p.UpvoteCount, "upvote"), plural(p.CommentCount, "comment"))
}

func printComments(w io.Writer, list []post.Comment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	for _, c := range list {
		indent := ""
		if c.ParentID != nil {
			indent = "  "
		}
		fmt.Fprintf(w, "%s#%d %s (%s, %s)\n", indent, c.ID, c.Author.DisplayName(), ago(c.CreatedAt), plural(c.UpvoteCount, "upvote"))
		fmt.Fprintf(w, "%s  %s\n", indent, c.Content)
	}
}

func printUsers(w io.Writer, list []user.User) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "USERNAME\tNAME\tYEAR")
	for _, u := range list {
		year := "-"
		if u.AcademicYear != nil {
			year = humanize.Ordinal(*u.AcademicYear)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Username, u.DisplayName(), year)
	}
	_ = tw.Flush()
}

func printProfile(w io.Writer, p user.Profile) {
	fmt.Fprintf(w, "%s (@%s)\n", p.DisplayName(), p.Username)
	if p.Email != "" {
		fmt.Fprintf(w, "  email: %s\n", p.Email)
	}
	if p.AcademicYear != nil {
		fmt.Fprintf(w, "  year:  %s\n", humanize.Ordinal(*p.AcademicYear))
	}
	if p.Bio != "" {
		fmt.Fprintf(w, "  bio:   %s\n", p.Bio)
	}
}

func printTestimonials(w io.Writer, list []testimonial.Testimonial) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No testimonials yet.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tRATING\tQUOTE")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, stars(t.Rating), clip(t.Content, 60))
	}
	_ = tw.Flush()
}

func printTestimonial(w io.Writer, t testimonial.Testimonial) {
	fmt.Fprintf(w, "%q\n", t.Content)
	who := t.Name
	if t.Role != "" {
		who += ", " + t.Role
	}
	fmt.Fprintf(w, "  - %s %s\n", who, stars(t.Rating))
}

func stars(n int) string {
	if n <= 0 {
		return "-"
	}
	return strings.Repeat("*", min(n, 5))
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printVote(w io.Writer, v optimistic.Vote) {
	mark := " "
	if v.HasUpvoted {
		mark = "▲"
	}
	fmt.Fprintf(w, "%s %s\n", mark, plural(v.UpvoteCount, "upvote"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}
