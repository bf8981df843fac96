package store

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"github.com/vedsharma/adminkit/internal/entity"
	"github.com/vedsharma/adminkit/internal/logging"
)

// ItemState is a snapshot of an ItemStore.
type ItemState struct {
	Loading     bool
	ID          string
	Original    entity.Item
	Form        entity.Item
	Related     entity.RelatedItems
	FieldErrors map[string][]string
}

// ItemStore edits a single entity item: Original is what the server last
// returned, Form is the working copy.
type ItemStore struct {
	adapters AdapterResolver

	mu    sync.Mutex
	meta  *entity.Meta
	seq   uint64
	state ItemState
	rels  entity.Relationships
}

// NewItemStore creates an empty store.
func NewItemStore(adapters AdapterResolver) *ItemStore {
	return &ItemStore{adapters: adapters}
}

// Load fetches item id of meta. An empty id starts a new item from the
// defaults of fields visible on create.
func (s *ItemStore) Load(ctx context.Context, meta entity.Meta, id string) error {
	s.mu.Lock()
	s.meta = &meta
	s.seq++
	seq := s.seq
	s.state = ItemState{ID: id}
	s.rels = nil

	if id == "" {
		blank := blankItem(meta)
		s.state.Original = blank
		s.state.Form = copyItem(blank)
		s.state.Related = entity.RelatedItems{}
		s.mu.Unlock()
		return nil
	}
	s.state.Loading = true
	s.mu.Unlock()

	var data *entity.ItemData
	adapter, err := s.adapters(meta.APIType)
	if err == nil {
		data, err = adapter.GetItem(ctx, meta.APIEndpoint, entity.ItemParams{
			ID:      id,
			Include: meta.Form.InlineRelated,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.state.Loading = false
	if err != nil {
		return err
	}
	s.applyLocked(data)
	return nil
}

// Save creates or updates the item from the form. Validation failures are
// kept in FieldErrors and returned as *entity.ValidationError.
func (s *ItemStore) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.meta == nil {
		s.mu.Unlock()
		return ErrNoEntity
	}
	meta := *s.meta
	s.seq++
	seq := s.seq
	id := s.state.ID
	form := copyItem(s.state.Form)
	rels := s.rels
	s.state.Loading = true
	s.state.FieldErrors = nil
	s.mu.Unlock()

	var data *entity.ItemData
	adapter, err := s.adapters(meta.APIType)
	if err == nil {
		data, err = adapter.SaveItem(ctx, meta.APIEndpoint, form, id, rels)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.state.Loading = false
	if err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			s.state.FieldErrors = verr.FieldErrors
			logging.Ctx(ctx).Debug().Int("fields", len(verr.FieldErrors)).Msg("Item rejected by validation")
		}
		return err
	}

	s.applyLocked(data)
	if s.state.ID == "" {
		s.state.ID = data.Item.ID(meta.IDKey)
	}
	return nil
}

func (s *ItemStore) applyLocked(data *entity.ItemData) {
	item := data.Item
	if item == nil {
		item = entity.Item{}
	}
	related := data.RelatedItems
	if related == nil {
		related = entity.RelatedItems{}
	}
	inlineRelated(item, s.meta.Form.InlineRelated, related)

	s.state.Original = item
	s.state.Form = copyItem(item)
	s.state.Related = related
	if len(data.Relationships) > 0 {
		s.rels = data.Relationships
	}
}

// SetField sets a dotted path on the form.
func (s *ItemStore) SetField(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Form == nil {
		s.state.Form = entity.Item{}
	}
	setPath(s.state.Form, path, value)
}

// Field reads a dotted path from the form.
func (s *ItemStore) Field(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getPath(s.state.Form, path)
}

// IsDirty reports whether the form differs from the original.
func (s *ItemStore) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !reflect.DeepEqual(s.state.Original, s.state.Form)
}

// Reset discards form changes and field errors.
func (s *ItemStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Form = copyItem(s.state.Original)
	s.state.FieldErrors = nil
}

// State returns a snapshot with copied items.
func (s *ItemStore) State() ItemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Original = copyItem(s.state.Original)
	st.Form = copyItem(s.state.Form)
	return st
}

func blankItem(meta entity.Meta) entity.Item {
	item := entity.Item{}
	for _, f := range meta.CreateFields() {
		setPath(item, f.Key, deepCopy(f.Default))
	}
	return item
}
