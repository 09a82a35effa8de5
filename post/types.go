package post

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/unkn0wn-root/unihub/user"
)

type Type string

const (
	TypeDiscussion   Type = "discussion"
	TypeQuestion     Type = "question"
	TypeEvent        Type = "event"
	TypeAnnouncement Type = "announcement"
	TypeResource     Type = "resource"
	TypeOther        Type = "other"
)

func (t Type) valid() bool {
	switch t {
	case TypeDiscussion, TypeQuestion, TypeEvent, TypeAnnouncement, TypeResource, TypeOther:
		return true
	}
	return false
}

// Event holds the event-only fields of a post.
type Event struct {
	Date             *time.Time
	Location         string
	ParticipantLimit *int
	ParticipantCount int
	HasJoined        bool
	IsFull           bool
}

type Post struct {
	ID           int64
	Title        string
	Content      string
	Type         Type
	CommunityID  int64
	Author       user.Ref
	Event        *Event // nil unless Type is TypeEvent
	Image        string
	File         string
	IsPinned     bool
	UpvoteCount  int
	HasUpvoted   bool
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Comment struct {
	ID          int64
	Content     string
	Author      user.Ref
	PostID      int64
	ParentID    *int64
	UpvoteCount int
	HasUpvoted  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filters narrow a post listing.
type Filters struct {
	Type     Type
	Search   string
	Ordering string
	Page     int
}

func (f *Filters) values() url.Values {
	if f == nil {
		return nil
	}
	v := url.Values{}
	if f.Type != "" {
		v.Set("post_type", string(f.Type))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Ordering != "" {
		v.Set("ordering", f.Ordering)
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	return v
}

// Page is one page of posts.
type Page struct {
	Count    int
	Next     string
	Previous string
	Results  []Post
}

type CreatePostInput struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Type          Type       `json:"post_type"`
	EventDate     *time.Time `json:"event_date,omitempty"`
	EventLocation string     `json:"event_location,omitempty"`
}

func (in CreatePostInput) validate() error {
	if in.Title == "" || in.Content == "" {
		return errors.New("post title and content are required")
	}
	if in.Type != "" && !in.Type.valid() {
		return fmt.Errorf("unknown post type %q", in.Type)
	}
	return nil
}

type CreateCommentInput struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parent,omitempty"`
}
