package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/live"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/rating"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/repository"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func setupService(t *testing.T, policy rating.UnratedPolicy) (*CatalogService, *recorder) {
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.ItemRecord{}, &database.CommentRecord{}))
	t.Cleanup(func() { _ = database.Close(db) })

	bus := events.NewEventBus(events.DefaultEventBusConfig(), hclog.NewNullLogger())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	rec := &recorder{}
	_, err = bus.Subscribe(context.Background(), "test", events.EventFilter{}, rec.handle)
	require.NoError(t, err)

	items := repository.NewItemRepository(db)
	svc := NewCatalogService(Options{
		Items:    items,
		Comments: repository.NewCommentRepository(db),
		Feed:     live.NewBusFeed(items, bus, nil),
		Bus:      bus,
		Policy:   policy,
	})
	return svc, rec
}

func TestItemWritesPublishEvents(t *testing.T) {
	svc, rec := setupService(t, rating.UnratedExclude)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, models.ItemTypeMovie, models.ItemFields{Title: strPtr("Dune")})
	require.NoError(t, err)
	_, err = svc.UpdateItem(ctx, item.ID, models.ItemFields{Year: intPtr(2021)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	assert.Eventually(t, func() bool { return len(rec.types()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []events.EventType{
		events.EventItemCreated, events.EventItemUpdated, events.EventItemDeleted,
	}, rec.types())
}

func TestFailedWritePublishesNothing(t *testing.T) {
	svc, rec := setupService(t, rating.UnratedExclude)

	_, err := svc.UpdateItem(context.Background(), "missing", models.ItemFields{})
	assert.True(t, catalogerrors.IsNotFound(err))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.types())
}

func TestListItemsByType(t *testing.T) {
	svc, _ := setupService(t, rating.UnratedExclude)
	ctx := context.Background()

	for _, it := range []models.ItemType{models.ItemTypeMovie, models.ItemTypeVideogame, models.ItemTypeMovie} {
		_, err := svc.CreateItem(ctx, it, models.ItemFields{})
		require.NoError(t, err)
	}

	all, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	games, err := svc.ListItems(ctx, models.ItemTypeVideogame)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestAddCommentValidation(t *testing.T) {
	svc, _ := setupService(t, rating.UnratedExclude)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewComment
	}{
		{"missing user", NewComment{Text: "hi"}},
		{"blank text", NewComment{UserName: "ana", Text: "   "}},
		{"rating too high", NewComment{UserName: "ana", Text: "hi", Rating: intPtr(6)}},
		{"rating too low", NewComment{UserName: "ana", Text: "hi", Rating: intPtr(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddComment(ctx, "item-1", tt.in)
			assert.ErrorIs(t, err, catalogerrors.ErrInvalidInput)
		})
	}
}

func TestCommentsAndRating(t *testing.T) {
	svc, rec := setupService(t, rating.UnratedExclude)
	ctx := context.Background()

	for _, r := range []int{3, 4, 5} {
		_, err := svc.AddComment(ctx, "item-1", NewComment{UserName: "u", Text: "t", Rating: intPtr(r)})
		require.NoError(t, err)
	}
	unrated, err := svc.AddComment(ctx, "item-1", NewComment{UserName: " bo ", Text: " no score "})
	require.NoError(t, err)
	assert.Equal(t, "bo", unrated.UserName)
	assert.Equal(t, "no score", unrated.Text)

	summary, err := svc.Rating(ctx, "item-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, summary.Average, 1e-9)
	assert.Equal(t, "★★★★☆", summary.Stars)
	assert.Equal(t, 4, summary.Count)
	assert.Equal(t, 3, summary.Rated)

	require.NoError(t, svc.DeleteComment(ctx, unrated.ID))
	comments, err := svc.ListComments(ctx, "item-1")
	require.NoError(t, err)
	assert.Len(t, comments, 3)

	assert.Eventually(t, func() bool { return len(rec.types()) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, events.EventCommentDeleted, rec.types()[4])
}

func TestRatingZeroPolicy(t *testing.T) {
	svc, _ := setupService(t, rating.UnratedZero)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, "x", NewComment{UserName: "a", Text: "b", Rating: intPtr(4)})
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "x", NewComment{UserName: "a", Text: "b"})
	require.NoError(t, err)

	summary, err := svc.Rating(ctx, "x")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, summary.Average, 1e-9)
}

func TestLiveViewSeesWrites(t *testing.T) {
	svc, _ := setupService(t, rating.UnratedExclude)
	ctx := context.Background()

	view := svc.NewLiveView()
	require.NoError(t, view.Activate(ctx))
	defer view.Deactivate()

	require.Eventually(t, func() bool { return view.State().Loaded }, time.Second, 5*time.Millisecond)

	_, err := svc.CreateItem(ctx, models.ItemTypeSeries, models.ItemFields{Title: strPtr("Dark")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := view.State()
		return len(s.Items) == 1 && s.Counts[models.ItemTypeSeries] == 1
	}, time.Second, 5*time.Millisecond)

	snap := svc.NewSnapshotView()
	state, err := snap.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Items, 1)
}

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) ListItems(ctx context.Context) ([]*models.Item, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockItemRepository) ListItemsByType(ctx context.Context, t models.ItemType) ([]*models.Item, error) {
	args := m.Called(ctx, t)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockItemRepository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) CreateItem(ctx context.Context, t models.ItemType, f models.ItemFields) (*models.Item, error) {
	args := m.Called(ctx, t, f)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) UpdateItem(ctx context.Context, id string, f models.ItemFields) (*models.Item, error) {
	args := m.Called(ctx, id, f)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) DeleteItem(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestStoreErrorsPassThrough(t *testing.T) {
	repo := &MockItemRepository{}
	storeErr := catalogerrors.StoreError("delete_item", errors.New("permission denied"))
	repo.On("DeleteItem", mock.Anything, "abc").Return(storeErr)

	svc := NewCatalogService(Options{Items: repo})
	err := svc.DeleteItem(context.Background(), "abc")
	assert.True(t, catalogerrors.IsStoreError(err))
	repo.AssertExpectations(t)
}
