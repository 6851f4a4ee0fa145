package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/entity"
	menurepo "github.com/Additional-Code/kusina/internal/repository/menu"
	orderrepo "github.com/Additional-Code/kusina/internal/repository/order"
	"github.com/Additional-Code/kusina/internal/store"
	"github.com/Additional-Code/kusina/internal/testutil"
)

var opening = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	conns := testutil.OpenSQLite(t)
	clock := testutil.NewClock(opening)
	return store.New(menurepo.NewRepository(conns), orderrepo.NewRepository(conns), zaptest.NewLogger(t), store.WithClock(clock.Now))
}

func rice(n int) []entity.LineItem {
	return []entity.LineItem{{Name: "Rice", Qty: n}}
}

// flakyBackend fails status updates while failing is set.
type flakyBackend struct {
	Backend
	failing bool
}

func (f *flakyBackend) SetOrderStatus(ctx context.Context, id int64, status entity.OrderStatus) (time.Time, error) {
	if f.failing {
		return time.Time{}, errors.New("disk full")
	}
	return f.Backend.SetOrderStatus(ctx, id, status)
}

func TestEnqueueDequeueIsFIFO(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	q := New(st, zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	a, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, "B", rice(2), 50)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Size())

	served, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, served.ID)
	assert.Equal(t, entity.StatusCompleted, served.Status)
	assert.False(t, served.CompletedAt.IsZero())
	assert.Equal(t, 1, q.Size())

	pending, err := st.ListPendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	completed, err := st.ListCompletedOrders(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, a.ID, completed[0].ID)
}

func TestDequeueEmpty(t *testing.T) {
	ctx := context.Background()
	q := New(newStore(t), zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	_, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, q.Size())
}

func TestLoadPicksUpPendingOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	for _, name := range []string{"first", "second", "third"} {
		_, err := st.CreateOrder(ctx, entity.OrderDraft{CustomerName: name, Items: rice(1), TotalPrice: 25})
		require.NoError(t, err)
	}

	q := New(st, zaptest.NewLogger(t))
	assert.False(t, q.Loaded())
	require.NoError(t, q.Load(ctx))
	assert.True(t, q.Loaded())

	all := q.All()
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].CustomerName)
	assert.Equal(t, "third", all[2].CustomerName)
	assert.Equal(t, rice(1), all[0].Items)

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, all[0].ID, head.ID)
}

func TestAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	q := New(newStore(t), zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))
	_, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)

	all := q.All()
	all[0].CustomerName = "mutated"

	head, _ := q.Peek()
	assert.Equal(t, "A", head.CustomerName)
}

func TestRefreshSeesOutOfBandOrders(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	q := New(st, zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	_, err := st.CreateOrder(ctx, entity.OrderDraft{CustomerName: "Walk-in", Items: rice(1), TotalPrice: 25})
	require.NoError(t, err)
	assert.Zero(t, q.Size())

	require.NoError(t, q.Refresh(ctx))
	assert.Equal(t, 1, q.Size())
}

func TestDequeueKeepsHeadWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{Backend: newStore(t)}
	q := New(backend, zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	a, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)

	backend.failing = true
	_, ok, err := q.Dequeue(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, q.Size())

	backend.failing = false
	served, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, served.ID)
}

func TestDequeueSkipsOrdersCompletedElsewhere(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	q := New(st, zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	a, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, "B", rice(1), 25)
	require.NoError(t, err)

	_, err = st.SetOrderStatus(ctx, a.ID, entity.StatusCompleted)
	require.NoError(t, err)

	served, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.ID, served.ID)
	assert.Zero(t, q.Size())
}

func TestEnqueueRejectsInvalidItems(t *testing.T) {
	ctx := context.Background()
	q := New(newStore(t), zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	_, err := q.Enqueue(ctx, "A", []entity.LineItem{{Name: "", Qty: 1}}, 10)
	require.Error(t, err)
	assert.Zero(t, q.Size())
}

func TestTwoOrdersServedInPlacementOrder(t *testing.T) {
	ctx := context.Background()
	q := New(newStore(t), zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	a, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, "B", rice(1), 25)
	require.NoError(t, err)

	first, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, first.ID)

	second, ok, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.ID, second.ID)

	_, ok, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshDropsOrdersCompletedOutOfBand(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	q := New(st, zaptest.NewLogger(t))
	require.NoError(t, q.Load(ctx))

	a, err := q.Enqueue(ctx, "A", rice(1), 25)
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, "B", rice(1), 25)
	require.NoError(t, err)

	_, err = st.SetOrderStatus(ctx, a.ID, entity.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Size())

	require.NoError(t, q.Refresh(ctx))
	all := q.All()
	require.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].ID)
}

// interleavingBackend starts an enqueue after reading the pending orders but
// before handing them back to the queue.
type interleavingBackend struct {
	Backend
	queue   *Queue
	once    sync.Once
	started chan struct{}
	done    chan error
}

func (b *interleavingBackend) ListPendingOrders(ctx context.Context) ([]entity.Order, error) {
	pending, err := b.Backend.ListPendingOrders(ctx)
	b.once.Do(func() {
		close(b.started)
		go func() {
			_, err := b.queue.Enqueue(ctx, "A", rice(1), 25)
			b.done <- err
		}()
		select {
		case err := <-b.done:
			b.done <- err
		case <-time.After(100 * time.Millisecond):
		}
	})
	return pending, err
}

func TestRefreshDoesNotLoseConcurrentEnqueue(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	backend := &interleavingBackend{Backend: st, started: make(chan struct{}), done: make(chan error, 1)}
	q := New(backend, zaptest.NewLogger(t))
	backend.queue = q

	require.NoError(t, q.Refresh(ctx))
	<-backend.started
	require.NoError(t, <-backend.done)

	pending, err := st.ListPendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, pending[0].ID, q.All()[0].ID)
}
