package store

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/vedsharma/adminkit/internal/entity"
	"github.com/vedsharma/adminkit/internal/logging"
)

// ListState is a snapshot of a ListStore.
type ListState struct {
	Loading bool
	Items   []entity.Item
	Total   int
	PerPage int
	Offset  int
	Page    int
}

// ListOptions select the page to load. Zero PerPage means the view default.
type ListOptions struct {
	Page    int
	PerPage int
	Filters map[string]any
}

// ListStore loads pages of one entity view. Only the most recently started
// Reload may change the state.
type ListStore struct {
	adapters AdapterResolver

	mu    sync.Mutex
	meta  *entity.Meta
	view  entity.View
	seq   uint64
	state ListState
}

// NewListStore creates a store with no entity selected.
func NewListStore(adapters AdapterResolver) *ListStore {
	return &ListStore{adapters: adapters, state: ListState{Page: 1}}
}

// SetEntity selects the entity and view, resetting state. An empty view
// name selects the entity's default view.
func (s *ListStore) SetEntity(meta entity.Meta, viewName string) error {
	view, ok := meta.View(viewName)
	if !ok {
		return fmt.Errorf("entity has no view %q", viewName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &meta
	s.view = view
	s.seq++
	s.state = ListState{Page: 1}
	return nil
}

// Reload fetches the requested page. It returns ErrSuperseded when a later
// Reload or SetEntity happened before the response arrived.
func (s *ListStore) Reload(ctx context.Context, opts ListOptions) error {
	s.mu.Lock()
	if s.meta == nil {
		s.mu.Unlock()
		return ErrNoEntity
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = s.view.PerPage
	}

	s.seq++
	seq := s.seq
	meta := *s.meta
	filters := mergeFilters(s.view.StaticFilters, opts.Filters)
	s.state.Loading = true
	s.state.Page = page
	s.state.PerPage = perPage
	s.mu.Unlock()

	log := logging.Ctx(ctx).With().Str("endpoint", meta.APIEndpoint).Uint64("seq", seq).Logger()

	var res *entity.ListData
	adapter, err := s.adapters(meta.APIType)
	if err == nil {
		res, err = adapter.GetList(ctx, meta.APIEndpoint, entity.ListParams{
			Offset:  perPage * (page - 1),
			Limit:   perPage,
			Filters: filters,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		log.Debug().Msg("Discarding superseded list response")
		return ErrSuperseded
	}
	s.state.Loading = false
	if err != nil {
		return err
	}

	s.state.Items = res.Items
	s.state.Offset = res.Offset
	s.state.PerPage = res.Limit
	if s.state.PerPage > 0 {
		s.state.Page = int(math.Ceil(float64(s.state.Offset)/float64(s.state.PerPage))) + 1
	} else {
		s.state.Page = 1
	}
	s.state.Total = res.Total
	if s.state.Total == 0 {
		s.state.Total = len(res.Items)
	}
	return nil
}

// DeleteItem deletes item using the entity id key.
func (s *ListStore) DeleteItem(ctx context.Context, item entity.Item) error {
	s.mu.Lock()
	if s.meta == nil {
		s.mu.Unlock()
		return ErrNoEntity
	}
	meta := *s.meta
	s.mu.Unlock()

	id := item.ID(meta.IDKey)
	if id == "" {
		return fmt.Errorf("item has no %q value", meta.IDKey)
	}

	adapter, err := s.adapters(meta.APIType)
	if err != nil {
		return err
	}
	return adapter.DeleteItem(ctx, meta.APIEndpoint, id)
}

// State returns a snapshot.
func (s *ListStore) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Items = append([]entity.Item(nil), s.state.Items...)
	return st
}

// HasPagination reports whether the backend pages results.
func (s *ListStore) HasPagination() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.PerPage > 0
}

// LastPage is the last page number, at least 1.
func (s *ListStore) LastPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.PerPage <= 0 {
		return 1
	}
	last := int(math.Ceil(float64(s.state.Total) / float64(s.state.PerPage)))
	if last < 1 {
		return 1
	}
	return last
}

// Abilities of the current entity.
func (s *ListStore) Abilities() entity.Abilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.meta == nil {
		return entity.Abilities{}
	}
	return s.meta.Abilities()
}

// mergeFilters returns static overlaid with user filters.
func mergeFilters(static, user map[string]any) map[string]any {
	if len(static) == 0 && len(user) == 0 {
		return nil
	}
	out := make(map[string]any, len(static)+len(user))
	for k, v := range static {
		out[k] = v
	}
	for k, v := range user {
		out[k] = v
	}
	return out
}
