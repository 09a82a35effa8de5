// Package testimonial reads the public testimonials shown on the landing
// page. The list is kept in the memory tier when one is supplied.
package testimonial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

const (
	KeyTestimonials = "testimonials"
	basePath        = "/api/testimonials"
)

var ErrInvalidID = errors.New("testimonial: id must be positive")

type Testimonial struct {
	ID        int64
	Name      string
	Role      string
	Content   string
	Rating    int
	CreatedAt time.Time
}

type testimonialDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func (d testimonialDTO) validate() error {
	if d.ID == 0 {
		return errors.New("testimonial record has no id")
	}
	return nil
}

func (d testimonialDTO) toTestimonial() Testimonial {
	return Testimonial(d)
}

type Service struct {
	api *transport.Client
	mem *cache.Memory
	ttl time.Duration
	log logger.Logger
}

// NewService builds the service. mem may be nil; ttl <= 0 uses the memory
// tier's default.
func NewService(api *transport.Client, mem *cache.Memory, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		api: api,
		mem: mem,
		ttl: ttl,
		log: logger.With(log, logger.Fields{"component": "testimonial"}),
	}
}

// List returns all testimonials. Failures degrade to an empty list and are
// not cached.
func (s *Service) List(ctx context.Context) ([]Testimonial, error) {
	if s.mem != nil {
		if list, ok := cache.Lookup[[]Testimonial](s.mem, KeyTestimonials); ok {
			return slices.Clone(list), nil
		}
	}
	var obs uint64
	if s.mem != nil {
		obs = s.mem.Snapshot(KeyTestimonials)
	}

	empty := []Testimonial{}
	var raw json.RawMessage
	if err := s.api.Get(ctx, basePath, nil, &raw); err != nil {
		return apierr.Handle(s.log, err, "testimonials", apierr.Options[[]Testimonial]{
			DefaultMessage: "Failed to load testimonials.",
			Fallback:       &empty,
		})
	}
	dtos, err := transport.DecodeList[testimonialDTO](raw)
	if err != nil {
		return apierr.Handle(s.log, err, "testimonials", apierr.Options[[]Testimonial]{Fallback: &empty})
	}
	out := make([]Testimonial, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping testimonial record", logger.Fields{"err": err})
			continue
		}
		out = append(out, d.toTestimonial())
	}
	if s.mem != nil {
		s.mem.SetWithGen(KeyTestimonials, out, obs, s.ttl)
	}
	return slices.Clone(out), nil
}

// Get returns one testimonial. A 404 becomes `Testimonial N not found`.
func (s *Service) Get(ctx context.Context, id int64) (Testimonial, error) {
	if id <= 0 {
		return Testimonial{}, ErrInvalidID
	}
	var dto testimonialDTO
	if err := s.api.Get(ctx, basePath+"/"+strconv.FormatInt(id, 10), nil, &dto); err != nil {
		if apierr.IsNotFound(err) {
			return Testimonial{}, apierr.New(http.StatusNotFound, fmt.Sprintf("Testimonial %d not found", id))
		}
		return apierr.Handle(s.log, err, fmt.Sprintf("testimonial %d", id), apierr.Options[Testimonial]{
			DefaultMessage: "Failed to load testimonial.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Testimonial{}, apierr.New(0, err.Error())
	}
	return dto.toTestimonial(), nil
}
