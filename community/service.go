// Package community reads communities through the two cache tiers and runs
// the membership-mutating join and leave calls.
package community

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/unihub/apierr"
	"github.com/unkn0wn-root/unihub/cache"
	"github.com/unkn0wn-root/unihub/logger"
	"github.com/unkn0wn-root/unihub/transport"
)

// KeyCommunities is the memory-tier key of the unfiltered community list.
const KeyCommunities = "communities"

// Key returns the per-community cache key used in both tiers.
func Key(slug string) string { return "community_" + slug }

var (
	ErrSlugRequired     = errors.New("community slug is required")
	ErrUsernameRequired = errors.New("username is required to fetch user communities")
	ErrNameRequired     = errors.New("community name is required")
)

// Options wire a Service. API, Memory and Persisted are required.
type Options struct {
	API       *transport.Client
	Memory    *cache.Memory
	Persisted *cache.Persistent[Community]
	Logger    logger.Logger
	ListTTL   time.Duration // 0 => memory default
	DetailTTL time.Duration // 0 => persisted default
}

type Service struct {
	api       *transport.Client
	mem       *cache.Memory
	store     *cache.Persistent[Community]
	log       logger.Logger
	listTTL   time.Duration
	detailTTL time.Duration
	lists     singleflight.Group
}

func NewService(opts Options) *Service {
	return &Service{
		api:       opts.API,
		mem:       opts.Memory,
		store:     opts.Persisted,
		log:       logger.With(opts.Logger, logger.Fields{"component": "community"}),
		listTTL:   opts.ListTTL,
		detailTTL: opts.DetailTTL,
	}
}

// Communities lists communities. Unfiltered calls are served from the memory
// tier while it is valid, and concurrent unfiltered fetches share one request.
// Failures degrade to an empty list.
func (s *Service) Communities(ctx context.Context, f *Filters) ([]Community, error) {
	if f != nil {
		list, err := s.fetchList(ctx, f)
		if err != nil {
			return s.emptyList(err, "fetching communities", "")
		}
		return list, nil
	}

	if list, ok := cache.Lookup[[]Community](s.mem, KeyCommunities); ok {
		s.log.Debug("using cached communities", logger.Fields{"count": len(list)})
		return slices.Clone(list), nil
	}
	v, err, _ := s.lists.Do(KeyCommunities, func() (any, error) {
		obs := s.mem.Snapshot(KeyCommunities)
		list, err := s.fetchList(ctx, nil)
		if err != nil {
			return nil, err
		}
		s.mem.SetWithGen(KeyCommunities, list, obs, s.listTTL)
		return list, nil
	})
	if err != nil {
		return s.emptyList(err, "fetching communities", "")
	}
	return slices.Clone(v.([]Community)), nil
}

// UserCommunities lists the communities username belongs to.
func (s *Service) UserCommunities(ctx context.Context, username string) ([]Community, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	list, err := s.fetchList(ctx, &Filters{MemberOf: true, Username: username})
	if err != nil {
		return s.emptyList(err, "communities for user "+username, "Failed to load user communities.")
	}
	return list, nil
}

// Community returns one community, trying in order: the cached list, the
// memory and persisted detail entries, a fresh list, and finally the detail
// endpoint. A 404 becomes `Community "slug" not found`.
func (s *Service) Community(ctx context.Context, slug string) (Community, error) {
	slug = CleanSlug(slug)
	if slug == "" {
		return Community{}, ErrSlugRequired
	}
	key := Key(slug)

	if list, ok := cache.Lookup[[]Community](s.mem, KeyCommunities); ok {
		if c, ok := find(list, slug); ok {
			return c, nil
		}
	}
	if c, ok := cache.Lookup[Community](s.mem, key); ok {
		return c, nil
	}
	if c, ok := s.store.GetWithExpiry(ctx, key); ok {
		s.log.Debug("using persisted community", logger.Fields{"slug": slug})
		return c, nil
	}

	memGen, storeGen := s.mem.Snapshot(key), s.store.Snapshot(key)
	c, err := s.resolve(ctx, slug)
	if err != nil {
		if apierr.IsNotFound(err) {
			return Community{}, apierr.New(http.StatusNotFound, fmt.Sprintf("Community %q not found", slug))
		}
		return apierr.Handle(s.log, err, fmt.Sprintf("community %q", slug), apierr.Options[Community]{
			DefaultMessage: "Failed to load community data. Please try again later.",
			Rethrow:        true,
		})
	}
	s.mem.SetWithGen(key, c, memGen, s.detailTTL)
	if _, err := s.store.SetWithGen(ctx, key, c, storeGen, s.detailTTL); err != nil {
		s.log.Warn("persist community failed", logger.Fields{"slug": slug, "err": err})
	}
	return c, nil
}

func (s *Service) resolve(ctx context.Context, slug string) (Community, error) {
	list, _ := s.Communities(ctx, nil)
	if c, ok := find(list, slug); ok {
		return c, nil
	}

	s.log.Debug("community not in list, fetching directly", logger.Fields{"slug": slug})
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/api/communities/"+slug+"/", nil, &raw); err != nil {
		return Community{}, err
	}
	dto, err := decodeDetail(raw)
	if err != nil {
		return Community{}, err
	}
	if err := dto.validate(); err != nil {
		return Community{}, err
	}
	return dto.toCommunity(), nil
}

// decodeDetail accepts a bare record or a paginated envelope holding it.
func decodeDetail(raw json.RawMessage) (communityDTO, error) {
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) && json.Unmarshal(raw, &envelope) == nil && envelope.Results != nil {
		items, err := transport.DecodeList[communityDTO](envelope.Results)
		if err != nil {
			return communityDTO{}, err
		}
		if len(items) == 0 {
			return communityDTO{}, errors.New("community not found in API response")
		}
		return items[0], nil
	}
	var d communityDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return communityDTO{}, fmt.Errorf("decode community: %w", err)
	}
	return d, nil
}

// CreateCommunity creates a community and drops any cached view that could
// now be stale.
func (s *Service) CreateCommunity(ctx context.Context, in CreateInput) (Community, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Community{}, ErrNameRequired
	}
	var dto communityDTO
	body := createDTO{CreateInput: in, Tags: strings.Join(in.Tags, ",")}
	if err := s.api.Post(ctx, "/api/communities/", body, &dto); err != nil {
		return apierr.Handle(s.log, err, "create community", apierr.Options[Community]{
			DefaultMessage: "Failed to create community.",
			Rethrow:        true,
		})
	}
	if err := dto.validate(); err != nil {
		return Community{}, apierr.New(0, err.Error())
	}
	c := dto.toCommunity()
	s.mem.Clear(KeyCommunities)
	if err := s.invalidate(ctx, c.Slug); err != nil {
		s.log.Warn("invalidate after create failed", logger.Fields{"slug": c.Slug, "err": err})
	}
	s.log.Info("community created", logger.Fields{"slug": c.Slug})
	return c, nil
}

// Members lists a community's members, optionally filtered by role.
// Failures degrade to an empty list.
func (s *Service) Members(ctx context.Context, slug string, role Role) ([]Member, error) {
	slug = CleanSlug(slug)
	if slug == "" {
		return nil, ErrSlugRequired
	}
	empty := []Member{}
	handle := func(err error) ([]Member, error) {
		return apierr.Handle(s.log, err, fmt.Sprintf("members for community %q", slug), apierr.Options[[]Member]{Fallback: &empty})
	}

	q := map[string][]string{}
	if role != "" {
		q["role"] = []string{string(role)}
	}
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/api/communities/"+slug+"/members/", q, &raw); err != nil {
		return handle(err)
	}
	dtos, err := transport.DecodeList[memberDTO](raw)
	if err != nil {
		return handle(err)
	}
	out := make([]Member, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping member record", logger.Fields{"slug": slug, "err": err})
			continue
		}
		out = append(out, d.toMember())
	}
	return out, nil
}

func (s *Service) fetchList(ctx context.Context, f *Filters) ([]Community, error) {
	var raw json.RawMessage
	if err := s.api.Get(ctx, "/api/communities/", f.values(), &raw); err != nil {
		return nil, err
	}
	dtos, err := transport.DecodeList[communityDTO](raw)
	if err != nil {
		return nil, err
	}
	out := make([]Community, 0, len(dtos))
	for _, d := range dtos {
		if err := d.validate(); err != nil {
			s.log.Warn("skipping community record", logger.Fields{"err": err})
			continue
		}
		out = append(out, d.toCommunity())
	}
	return out, nil
}

func (s *Service) emptyList(err error, where, msg string) ([]Community, error) {
	empty := []Community{}
	return apierr.Handle(s.log, err, where, apierr.Options[[]Community]{
		DefaultMessage: msg,
		Fallback:       &empty,
	})
}

func find(list []Community, slug string) (Community, bool) {
	for _, c := range list {
		if c.Slug == slug || c.Slug == slug+"/" {
			return c, true
		}
	}
	return Community{}, false
}

// CleanSlug trims whitespace and surrounding slashes.
func CleanSlug(slug string) string {
	return strings.Trim(strings.TrimSpace(slug), "/")
}
