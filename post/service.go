// Package post reads and writes posts and comments of a community.
package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

var (
	ErrSlugRequired    = errors.New("community slug is required")
	ErrContentRequired = errors.New("comment content is required")
)

type Service struct {
	api *transport.Client
	log logger.Logger
}

func NewService(api *transport.Client, log logger.Logger) *Service {
	return &Service{api: api, log: logger.With(log, logger.Fields{"component": "post"})}
}

func postsPath(slug string) string { return "/api/communities/" + slug + "/posts/" }

func postPath(slug string, id int64) string {
	return postsPath(slug) + strconv.FormatInt(id, 10) + "/"
}

func cleanSlug(slug string) (string, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return "", ErrSlugRequired
	}
	return slug, nil
}

// Posts returns one page of a community's posts.
func (s *Service) Posts(ctx context.Context, slug string, f *Filters) (Page, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return Page{}, err
	}
	fail := func(err error) (Page, error) {
		return apierr.Handle(s.log, err, fmt.Sprintf("posts for community %q", slug), apierr.Options[Page]{
			DefaultMessage: "Failed to load posts.",
			Rethrow:        true,
		})
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, postsPath(slug), f.values(), &raw); err != nil {
		return fail(err)
	}
	page, err := transport.DecodePage[postDTO](raw)
	if err != nil {
		return fail(err)
	}
	out := Page{Count: page.Count, Results: make([]Post, 0, len(page.Results))}
	if page.Next != nil {
		out.Next = *page.Next
	}
	if page.Previous != nil {
		out.Previous = *page.Previous
	}
	for _, d := range page.Results {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping post record", logger.Fields{"slug": slug, "err": err})
			continue
		}
		out.Results = append(out.Results, d.toPost())
	}
	return out, nil
}

// Post returns a single post.
func (s *Service) Post(ctx context.Context, slug string, id int64) (Post, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return Post{}, err
	}
	var dto postDTO
	if err := s.api.Get(ctx, postPath(slug, id), nil, &dto); err != nil {
		return apierr.Handle(s.log, err, "Post", apierr.Options[Post]{
			DefaultMessage: "Failed to load post.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Post{}, apierr.New(0, err.Error())
	}
	return dto.toPost(), nil
}

func (s *Service) CreatePost(ctx context.Context, slug string, in CreatePostInput) (Post, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return Post{}, err
	}
	if err := in.validate(); err != nil {
		return Post{}, err
	}
	if in.Type == "" {
		in.Type = TypeDiscussion
	}
	var dto postDTO
	if err := s.api.Post(ctx, postsPath(slug), in, &dto); err != nil {
		return apierr.Handle(s.log, err, "create post", apierr.Options[Post]{
			DefaultMessage: "Failed to create post.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Post{}, apierr.New(0, err.Error())
	}
	s.log.Info("post created", logger.Fields{"slug": slug, "id": dto.ID})
	return dto.toPost(), nil
}

// UpvotePost toggles the current user's upvote. The backend replies with a
// message only; counts are not returned.
func (s *Service) UpvotePost(ctx context.Context, slug string, id int64) (string, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return "", err
	}
	var out detailDTO
	if err := s.api.Post(ctx, postPath(slug, id)+"upvote/", nil, &out); err != nil {
		return apierr.Handle(s.log, err, "Post", apierr.Options[string]{
			DefaultMessage: "Failed to upvote. Please try again.",
			Rethrow:        true,
		})
	}
	return out.Detail, nil
}

// Comments lists a post's comments. Failures degrade to an empty list.
func (s *Service) Comments(ctx context.Context, slug string, postID int64) ([]Comment, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return nil, err
	}
	empty := []Comment{}
	fail := func(err error) ([]Comment, error) {
		return apierr.Handle(s.log, err, fmt.Sprintf("comments for post %d", postID), apierr.Options[[]Comment]{Fallback: &empty})
	}

	var raw json.RawMessage
	if err := s.api.Get(ctx, postPath(slug, postID)+"comments/", nil, &raw); err != nil {
		return fail(err)
	}
	dtos, err := transport.DecodeList[commentDTO](raw)
	if err != nil {
		return fail(err)
	}
	out := make([]Comment, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping comment record", logger.Fields{"post": postID, "err": err})
			continue
		}
		out = append(out, d.toComment())
	}
	return out, nil
}

func (s *Service) CreateComment(ctx context.Context, slug string, postID int64, in CreateCommentInput) (Comment, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(in.Content) == "" {
		return Comment{}, ErrContentRequired
	}
	var dto commentDTO
	if err := s.api.Post(ctx, postPath(slug, postID)+"comments/", in, &dto); err != nil {
		return apierr.Handle(s.log, err, "Post", apierr.Options[Comment]{
			DefaultMessage: "Failed to add comment.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Comment{}, apierr.New(0, err.Error())
	}
	return dto.toComment(), nil
}

func (s *Service) UpvoteComment(ctx context.Context, slug string, postID, commentID int64) (string, error) {
	slug, err := cleanSlug(slug)
	if err != nil {
		return "", err
	}
	path := postPath(slug, postID) + "comments/" + strconv.FormatInt(commentID, 10) + "/upvote/"
	var out detailDTO
	if err := s.api.Post(ctx, path, nil, &out); err != nil {
		return apierr.Handle(s.log, err, "Comment", apierr.Options[string]{
			DefaultMessage: "Failed to upvote. Please try again.",
			Rethrow:        true,
		})
	}
	return out.Detail, nil
}
