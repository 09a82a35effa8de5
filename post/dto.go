package post

import (
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/unihub/user"
)

type postDTO struct {
	ID                    int64      `json:"id"`
	Title                 string     `json:"title"`
	Content               string     `json:"content"`
	Community             int64      `json:"community"`
	Author                *user.Ref  `json:"author"`
	PostType              string     `json:"post_type"`
	EventDate             *time.Time `json:"event_date"`
	EventLocation         string     `json:"event_location"`
	Image                 *string    `json:"image"`
	File                  *string    `json:"file"`
	IsPinned              bool       `json:"is_pinned"`
	UpvoteCount           int        `json:"upvote_count"`
	HasUpvoted            bool       `json:"has_upvoted"`
	CommentCount          int        `json:"comment_count"`
	EventParticipantLimit *int       `json:"event_participant_limit"`
	ParticipantCount      int        `json:"participant_count"`
	HasJoined             bool       `json:"has_joined"`
	IsFull                bool       `json:"is_full"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (d postDTO) validate() error {
	if d.ID == 0 {
		return errors.New("post record has no id")
	}
	if d.PostType != "" && !Type(d.PostType).valid() {
		return fmt.Errorf("post %d: unknown type %q", d.ID, d.PostType)
	}
	if d.UpvoteCount < 0 {
		return fmt.Errorf("post %d: negative upvote count", d.ID)
	}
	return nil
}

func (d postDTO) toPost() Post {
	p := Post{
		ID:           d.ID,
		Title:        d.Title,
		Content:      d.Content,
		Type:         Type(d.PostType),
		CommunityID:  d.Community,
		IsPinned:     d.IsPinned,
		UpvoteCount:  d.UpvoteCount,
		HasUpvoted:   d.HasUpvoted,
		CommentCount: d.CommentCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if p.Type == "" {
		p.Type = TypeDiscussion
	}
	if d.Author != nil {
		p.Author = *d.Author
	}
	if d.Image != nil {
		p.Image = *d.Image
	}
	if d.File != nil {
		p.File = *d.File
	}
	if p.Type == TypeEvent {
		p.Event = &Event{
			Date:             d.EventDate,
			Location:         d.EventLocation,
			ParticipantLimit: d.EventParticipantLimit,
			ParticipantCount: d.ParticipantCount,
			HasJoined:        d.HasJoined,
			IsFull:           d.IsFull,
		}
	}
	return p
}

type commentDTO struct {
	ID          int64     `json:"id"`
	Content     string    `json:"content"`
	Author      *user.Ref `json:"author"`
	Post        int64     `json:"post"`
	Parent      *int64    `json:"parent"`
	UpvoteCount int       `json:"upvote_count"`
	HasUpvoted  bool      `json:"has_upvoted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d commentDTO) validate() error {
	if d.ID == 0 {
		return errors.New("comment record has no id")
	}
	return nil
}

func (d commentDTO) toComment() Comment {
	c := Comment{
		ID:          d.ID,
		Content:     d.Content,
		PostID:      d.Post,
		ParentID:    d.Parent,
		UpvoteCount: d.UpvoteCount,
		HasUpvoted:  d.HasUpvoted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Author != nil {
		c.Author = *d.Author
	}
	return c
}

type detailDTO struct {
	Detail string `json:"detail"`
}
