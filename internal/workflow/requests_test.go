package workflow

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var tokenPattern = regexp.MustCompile(`^TKN-\d{6}$`)

func testOutlet(managerID primitive.ObjectID, capacity, stock int) *models.Outlet {
	return &models.Outlet{
		ID:           primitive.NewObjectID(),
		Name:         "Colombo Central",
		District:     "Colombo",
		Manager:      managerID,
		Capacity:     capacity,
		CurrentStock: stock,
	}
}

func testConsumer() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Nimal Perera",
		Email: "nimal@example.com",
		Role:  models.RoleConsumer,
	}
}

func testManager() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Kamal Silva",
		Email: "kamal@example.com",
		Role:  models.RoleOutletManager,
	}
}

func TestRequestsCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects invalid quantity", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 5)
		outlets := newStubOutlets(outlet)
		requests := newStubRequests()
		wf := NewRequests(outlets, requests, newStubUsers(consumer), nil, testLogger())

		for _, quantity := range []int{0, -1, 3} {
			_, _, err := wf.Create(ctx, consumer.ID, outlet.ID, quantity, "12 Galle Rd")
			assert.ErrorIs(t, err, ErrValidation, "quantity %d", quantity)
		}
		assert.Equal(t, 0, outlets.reserveCalls)
		assert.Equal(t, 0, requests.inserts)
	})

	t.Run("rejects blank address", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 5)
		wf := NewRequests(newStubOutlets(outlet), newStubRequests(), newStubUsers(consumer), nil, testLogger())

		_, _, err := wf.Create(ctx, consumer.ID, outlet.ID, 1, "   ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown outlet", func(t *testing.T) {
		consumer := testConsumer()
		wf := NewRequests(newStubOutlets(), newStubRequests(), newStubUsers(consumer), nil, testLogger())

		_, _, err := wf.Create(ctx, consumer.ID, primitive.NewObjectID(), 1, "12 Galle Rd")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("insufficient stock leaves nothing behind", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 1)
		outlets := newStubOutlets(outlet)
		requests := newStubRequests()
		wf := NewRequests(outlets, requests, newStubUsers(consumer), nil, testLogger())

		_, _, err := wf.Create(ctx, consumer.ID, outlet.ID, 2, "12 Galle Rd")
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 1, outlets.stock(outlet.ID))
		assert.Equal(t, 0, requests.inserts)
	})

	t.Run("success reserves stock and issues token", func(t *testing.T) {
		consumer := testConsumer()
		manager := testManager()
		outlet := testOutlet(manager.ID, 10, 5)
		outlets := newStubOutlets(outlet)
		dispatcher := &stubDispatcher{}
		wf := NewRequests(outlets, newStubRequests(), newStubUsers(consumer, manager), dispatcher, testLogger())

		request, warn, err := wf.Create(ctx, consumer.ID, outlet.ID, 2, "12 Galle Rd")
		require.NoError(t, err)
		assert.Empty(t, warn)
		assert.False(t, request.ID.IsZero())
		assert.Equal(t, models.RequestPending, request.Status)
		assert.Regexp(t, tokenPattern, request.Token)
		assert.Equal(t, 3, outlets.stock(outlet.ID))

		require.Len(t, dispatcher.events, 1)
		event := dispatcher.events[0]
		assert.Equal(t, notify.KindRequestCreated, event.Kind)
		require.NotNil(t, event.Consumer)
		assert.Equal(t, consumer.Email, event.Consumer.Email)
		require.NotNil(t, event.Manager)
		assert.Equal(t, manager.Email, event.Manager.Email)
	})

	t.Run("stock drains to zero then rejects", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 2)
		outlets := newStubOutlets(outlet)
		wf := NewRequests(outlets, newStubRequests(), newStubUsers(consumer), nil, testLogger())

		_, _, err := wf.Create(ctx, consumer.ID, outlet.ID, 2, "12 Galle Rd")
		require.NoError(t, err)
		assert.Equal(t, 0, outlets.stock(outlet.ID))

		_, _, err = wf.Create(ctx, consumer.ID, outlet.ID, 1, "12 Galle Rd")
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("retries on token collision", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 5)
		requests := newStubRequests()
		requests.duplicateFirst = 2
		wf := NewRequests(newStubOutlets(outlet), requests, newStubUsers(consumer), nil, testLogger())

		request, _, err := wf.Create(ctx, consumer.ID, outlet.ID, 1, "12 Galle Rd")
		require.NoError(t, err)
		assert.Regexp(t, tokenPattern, request.Token)
		assert.Equal(t, 3, requests.inserts)
	})

	t.Run("insert failure releases the reservation", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 5)
		outlets := newStubOutlets(outlet)
		requests := newStubRequests()
		requests.insertErr = errors.New("write concern failure")
		wf := NewRequests(outlets, requests, newStubUsers(consumer), nil, testLogger())

		_, _, err := wf.Create(ctx, consumer.ID, outlet.ID, 2, "12 Galle Rd")
		require.Error(t, err)
		assert.Equal(t, 5, outlets.stock(outlet.ID))
		assert.Equal(t, 1, outlets.releaseCalls)
	})

	t.Run("notification failure is a soft warning", func(t *testing.T) {
		consumer := testConsumer()
		outlet := testOutlet(primitive.NilObjectID, 10, 5)
		dispatcher := &stubDispatcher{err: errors.New("webhook down")}
		wf := NewRequests(newStubOutlets(outlet), newStubRequests(), newStubUsers(consumer), dispatcher, testLogger())

		request, warn, err := wf.Create(ctx, consumer.ID, outlet.ID, 1, "12 Galle Rd")
		require.NoError(t, err)
		require.NotNil(t, request)
		assert.NotEmpty(t, warn)
	})
}

func TestRequestsCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	consumer := testConsumer()
	outlet := testOutlet(primitive.NilObjectID, 50, 10)
	outlets := newStubOutlets(outlet)
	wf := NewRequests(outlets, newStubRequests(), newStubUsers(consumer), nil, testLogger())

	const attempts = 30
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = wf.Create(ctx, consumer.ID, outlet.ID, 1, "12 Galle Rd")
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, attempts-10, insufficient)
	assert.Equal(t, 0, outlets.stock(outlet.ID))
}

func TestRequestsTransition(t *testing.T) {
	ctx := context.Background()

	setup := func(status string) (*Requests, *stubOutlets, *models.Request, *models.Outlet, Actor, *stubDispatcher) {
		consumer := testConsumer()
		manager := testManager()
		outlet := testOutlet(manager.ID, 10, 5)
		request := &models.Request{
			ID:         primitive.NewObjectID(),
			ConsumerID: consumer.ID,
			OutletID:   outlet.ID,
			Token:      "TKN-123456",
			Quantity:   2,
			Status:     status,
		}
		outlets := newStubOutlets(outlet)
		dispatcher := &stubDispatcher{}
		wf := NewRequests(outlets, newStubRequests(request), newStubUsers(consumer, manager), dispatcher, testLogger())
		actor := Actor{ID: manager.ID, Role: models.RoleOutletManager}
		return wf, outlets, request, outlet, actor, dispatcher
	}

	t.Run("pending to processing", func(t *testing.T) {
		wf, _, request, _, actor, dispatcher := setup(models.RequestPending)

		updated, _, err := wf.Transition(ctx, actor, request.ID, models.RequestProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.RequestProcessing, updated.Status)
		assert.Equal(t, []notify.Kind{notify.KindRequestStatusChanged}, dispatcher.kinds())
	})

	t.Run("pending cannot jump to delivered", func(t *testing.T) {
		wf, _, request, _, actor, _ := setup(models.RequestPending)

		_, _, err := wf.Transition(ctx, actor, request.ID, models.RequestDelivered)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("terminal states are frozen", func(t *testing.T) {
		for _, status := range []string{models.RequestDelivered, models.RequestCancelled} {
			wf, _, request, _, actor, _ := setup(status)
			_, _, err := wf.Transition(ctx, actor, request.ID, models.RequestProcessing)
			assert.ErrorIs(t, err, ErrInvalidTransition, "from %s", status)
		}
	})

	t.Run("pending is never a target", func(t *testing.T) {
		wf, _, request, _, actor, _ := setup(models.RequestProcessing)

		_, _, err := wf.Transition(ctx, actor, request.ID, models.RequestPending)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown status", func(t *testing.T) {
		wf, _, request, _, actor, _ := setup(models.RequestPending)

		_, _, err := wf.Transition(ctx, actor, request.ID, "shipped")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("cancellation releases stock", func(t *testing.T) {
		wf, outlets, request, outlet, actor, _ := setup(models.RequestProcessing)

		updated, _, err := wf.Transition(ctx, actor, request.ID, models.RequestCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.RequestCancelled, updated.Status)
		assert.Equal(t, 7, outlets.stock(outlet.ID))
	})

	t.Run("delivery keeps the reservation consumed", func(t *testing.T) {
		wf, outlets, request, outlet, actor, _ := setup(models.RequestProcessing)

		_, _, err := wf.Transition(ctx, actor, request.ID, models.RequestDelivered)
		require.NoError(t, err)
		assert.Equal(t, 5, outlets.stock(outlet.ID))
	})

	t.Run("manager of another outlet is forbidden", func(t *testing.T) {
		wf, _, request, _, _, _ := setup(models.RequestPending)
		stranger := Actor{ID: primitive.NewObjectID(), Role: models.RoleOutletManager}

		_, _, err := wf.Transition(ctx, stranger, request.ID, models.RequestProcessing)
		assert.ErrorIs(t, err, ErrForbidden)

		got, gerr := wf.requests.GetByID(ctx, request.ID)
		require.NoError(t, gerr)
		assert.Equal(t, models.RequestPending, got.Status)
	})

	t.Run("consumer is forbidden", func(t *testing.T) {
		wf, _, request, _, _, _ := setup(models.RequestPending)
		consumer := Actor{ID: request.ConsumerID, Role: models.RoleConsumer}

		_, _, err := wf.Transition(ctx, consumer, request.ID, models.RequestProcessing)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin can act on any outlet", func(t *testing.T) {
		wf, _, request, _, _, _ := setup(models.RequestPending)
		admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

		updated, _, err := wf.Transition(ctx, admin, request.ID, models.RequestProcessing)
		require.NoError(t, err)
		assert.Equal(t, models.RequestProcessing, updated.Status)
	})

	t.Run("unknown request", func(t *testing.T) {
		wf, _, _, _, actor, _ := setup(models.RequestPending)

		_, _, err := wf.Transition(ctx, actor, primitive.NewObjectID(), models.RequestProcessing)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRequestsLookupByToken(t *testing.T) {
	ctx := context.Background()
	consumer := testConsumer()
	other := testConsumer()
	outlet := testOutlet(primitive.NilObjectID, 10, 5)
	request := &models.Request{
		ID:         primitive.NewObjectID(),
		ConsumerID: consumer.ID,
		OutletID:   outlet.ID,
		Token:      "TKN-654321",
		Quantity:   1,
		Status:     models.RequestPending,
	}
	wf := NewRequests(newStubOutlets(outlet), newStubRequests(request), newStubUsers(consumer, other), nil, testLogger())

	got, err := wf.LookupByToken(ctx, consumer.ID, "TKN-654321")
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)

	_, err = wf.LookupByToken(ctx, other.ID, "TKN-654321")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = wf.LookupByToken(ctx, consumer.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)
}
