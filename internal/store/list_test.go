package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/adminkit/internal/entity"
)

// fakeAdapter answers from funcs set per test.
type fakeAdapter struct {
	mu      sync.Mutex
	lists   []entity.ListParams
	deleted []string
	rels    []entity.Relationships

	getList  func(ctx context.Context, p entity.ListParams) (*entity.ListData, error)
	getItem  func(ctx context.Context, p entity.ItemParams) (*entity.ItemData, error)
	saveItem func(ctx context.Context, item entity.Item, id string) (*entity.ItemData, error)
}

func (f *fakeAdapter) GetList(ctx context.Context, endpoint string, p entity.ListParams) (*entity.ListData, error) {
	f.mu.Lock()
	f.lists = append(f.lists, p)
	f.mu.Unlock()
	return f.getList(ctx, p)
}

func (f *fakeAdapter) GetItem(ctx context.Context, endpoint string, p entity.ItemParams) (*entity.ItemData, error) {
	return f.getItem(ctx, p)
}

func (f *fakeAdapter) SaveItem(ctx context.Context, endpoint string, item entity.Item, id string, rels entity.Relationships) (*entity.ItemData, error) {
	f.mu.Lock()
	f.rels = append(f.rels, rels)
	f.mu.Unlock()
	return f.saveItem(ctx, item, id)
}

func (f *fakeAdapter) DeleteItem(ctx context.Context, endpoint, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint+"/"+id)
	return nil
}

func (f *fakeAdapter) resolver() AdapterResolver {
	return func(string) (entity.Adapter, error) { return f, nil }
}

func testMeta(t *testing.T, meta entity.Meta) entity.Meta {
	t.Helper()
	m := entity.NewManager()
	require.NoError(t, m.Register("things", meta))
	out, err := m.Get("things")
	require.NoError(t, err)
	return out
}

func TestListReloadAppliesResponse(t *testing.T) {
	fa := &fakeAdapter{getList: func(ctx context.Context, p entity.ListParams) (*entity.ListData, error) {
		return &entity.ListData{
			Items:  []entity.Item{{"id": "21"}, {"id": "22"}},
			Offset: p.Offset,
			Limit:  p.Limit,
			Total:  45,
		}, nil
	}}
	s := NewListStore(fa.resolver())
	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{
		APIEndpoint: "/api/things",
		Views: map[string]entity.View{"default": {
			StaticFilters: map[string]any{"archived": false, "kind": "a"},
		}},
	}), ""))

	require.NoError(t, s.Reload(context.Background(), ListOptions{Page: 3, PerPage: 10, Filters: map[string]any{"kind": "b"}}))

	st := s.State()
	assert.False(t, st.Loading)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, 20, st.Offset)
	assert.Equal(t, 10, st.PerPage)
	assert.Equal(t, 3, st.Page)
	assert.Equal(t, 45, st.Total)
	assert.Equal(t, 5, s.LastPage())
	assert.True(t, s.HasPagination())

	require.Len(t, fa.lists, 1)
	assert.Equal(t, 20, fa.lists[0].Offset)
	assert.Equal(t, map[string]any{"archived": false, "kind": "b"}, fa.lists[0].Filters)
}

func TestListReloadDefaultsAndNoPagination(t *testing.T) {
	fa := &fakeAdapter{getList: func(ctx context.Context, p entity.ListParams) (*entity.ListData, error) {
		return &entity.ListData{Items: []entity.Item{{"id": "1"}, {"id": "2"}, {"id": "3"}}}, nil
	}}
	s := NewListStore(fa.resolver())
	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/x"}), ""))

	require.NoError(t, s.Reload(context.Background(), ListOptions{}))
	assert.Equal(t, 25, fa.lists[0].Limit)
	assert.Equal(t, 0, fa.lists[0].Offset)

	st := s.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, 3, st.Total)
	assert.False(t, s.HasPagination())
	assert.Equal(t, 1, s.LastPage())
}

func TestListStaleResponseIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	fa := &fakeAdapter{getList: func(ctx context.Context, p entity.ListParams) (*entity.ListData, error) {
		if p.Offset == 0 {
			close(startedA)
			<-releaseA
			return &entity.ListData{Items: []entity.Item{{"id": "A"}}, Limit: p.Limit}, nil
		}
		return &entity.ListData{Items: []entity.Item{{"id": "B"}}, Offset: p.Offset, Limit: p.Limit}, nil
	}}
	s := NewListStore(fa.resolver())
	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/x"}), ""))

	errA := make(chan error, 1)
	go func() { errA <- s.Reload(context.Background(), ListOptions{Page: 1, PerPage: 10}) }()
	<-startedA

	require.NoError(t, s.Reload(context.Background(), ListOptions{Page: 2, PerPage: 10}))
	close(releaseA)

	assert.ErrorIs(t, <-errA, ErrSuperseded)
	st := s.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "B", st.Items[0]["id"])
	assert.Equal(t, 2, st.Page)
}

func TestListStaleErrorIsDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	fa := &fakeAdapter{getList: func(ctx context.Context, p entity.ListParams) (*entity.ListData, error) {
		if p.Offset == 0 {
			close(startedA)
			<-releaseA
			return nil, errors.New("timeout")
		}
		return &entity.ListData{Items: []entity.Item{{"id": "B"}}, Offset: p.Offset, Limit: p.Limit}, nil
	}}
	s := NewListStore(fa.resolver())
	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/x"}), ""))

	errA := make(chan error, 1)
	go func() { errA <- s.Reload(context.Background(), ListOptions{Page: 1, PerPage: 5}) }()
	<-startedA
	require.NoError(t, s.Reload(context.Background(), ListOptions{Page: 2, PerPage: 5}))
	close(releaseA)

	assert.ErrorIs(t, <-errA, ErrSuperseded)
	assert.Len(t, s.State().Items, 1)
}

func TestListReloadError(t *testing.T) {
	boom := errors.New("boom")
	fa := &fakeAdapter{getList: func(ctx context.Context, p entity.ListParams) (*entity.ListData, error) {
		return nil, boom
	}}
	s := NewListStore(fa.resolver())

	assert.ErrorIs(t, s.Reload(context.Background(), ListOptions{}), ErrNoEntity)

	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/x"}), ""))
	assert.ErrorIs(t, s.Reload(context.Background(), ListOptions{}), boom)
	assert.False(t, s.State().Loading)
}

func TestListSetEntityUnknownView(t *testing.T) {
	s := NewListStore((&fakeAdapter{}).resolver())
	assert.Error(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/x"}), "tree"))
}

func TestListDeleteItem(t *testing.T) {
	fa := &fakeAdapter{}
	s := NewListStore(fa.resolver())
	require.NoError(t, s.SetEntity(testMeta(t, entity.Meta{APIEndpoint: "/api/users", IDKey: "uuid"}), ""))

	require.NoError(t, s.DeleteItem(context.Background(), entity.Item{"uuid": "u-1", "id": "9"}))
	assert.Equal(t, []string{"/api/users/u-1"}, fa.deleted)

	assert.Error(t, s.DeleteItem(context.Background(), entity.Item{"id": "9"}))
}
