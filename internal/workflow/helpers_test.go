package workflow

import (
	"context"
	"sync"

	"gasbygas-api-server/internal/models"
	"gasbygas-api-server/internal/notify"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory stubs honoring the storage contracts, including the atomicity the
// workflow relies on (conditional decrement, CAS status updates).

type stubOutlets struct {
	mu      sync.Mutex
	outlets map[primitive.ObjectID]*models.Outlet

	reserveCalls int
	releaseCalls int
}

func newStubOutlets(outlets ...*models.Outlet) *stubOutlets {
	s := &stubOutlets{outlets: make(map[primitive.ObjectID]*models.Outlet)}
	for _, o := range outlets {
		s.outlets[o.ID] = o
	}
	return s
}

func (s *stubOutlets) GetByID(_ context.Context, id primitive.ObjectID) (*models.Outlet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outlets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOutlets) Reserve(_ context.Context, id primitive.ObjectID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outlets[id]
	if !ok {
		return ErrNotFound
	}
	if o.CurrentStock < quantity {
		return ErrInsufficientStock
	}
	o.CurrentStock -= quantity
	s.reserveCalls++
	return nil
}

func (s *stubOutlets) Release(_ context.Context, id primitive.ObjectID, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outlets[id]
	if !ok {
		return ErrNotFound
	}
	o.CurrentStock += quantity
	if o.CurrentStock > o.Capacity {
		o.CurrentStock = o.Capacity
	}
	s.releaseCalls++
	return nil
}

func (s *stubOutlets) SetStock(_ context.Context, id primitive.ObjectID, newStock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outlets[id]
	if !ok {
		return ErrNotFound
	}
	if newStock > o.Capacity {
		return ErrValidation
	}
	o.CurrentStock = newStock
	return nil
}

func (s *stubOutlets) stock(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outlets[id].CurrentStock
}

type stubRequests struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.Request
	tokens map[string]bool

	insertErr      error
	duplicateFirst int
	inserts        int
}

func newStubRequests(requests ...*models.Request) *stubRequests {
	s := &stubRequests{
		byID:   make(map[primitive.ObjectID]*models.Request),
		tokens: make(map[string]bool),
	}
	for _, r := range requests {
		s.byID[r.ID] = r
		s.tokens[r.Token] = true
	}
	return s
}

func (s *stubRequests) Insert(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.duplicateFirst > 0 {
		s.duplicateFirst--
		return ErrDuplicateToken
	}
	if s.tokens[request.Token] {
		return ErrDuplicateToken
	}
	request.ID = primitive.NewObjectID()
	cp := *request
	s.byID[request.ID] = &cp
	s.tokens[request.Token] = true
	return nil
}

func (s *stubRequests) GetByID(_ context.Context, id primitive.ObjectID) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *stubRequests) GetByToken(_ context.Context, consumerID primitive.ObjectID, token string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byID {
		if r.ConsumerID == consumerID && r.Token == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRequests) UpdateStatus(_ context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, from := range allowedFrom {
		if r.Status == from {
			r.Status = newStatus
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrInvalidTransition
}

type stubDeliveries struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]*models.Delivery
	pairs map[[2]primitive.ObjectID]bool
}

func newStubDeliveries(deliveries ...*models.Delivery) *stubDeliveries {
	s := &stubDeliveries{
		byID:  make(map[primitive.ObjectID]*models.Delivery),
		pairs: make(map[[2]primitive.ObjectID]bool),
	}
	for _, d := range deliveries {
		s.byID[d.ID] = d
		s.pairs[[2]primitive.ObjectID{d.OutletID, d.RequestID}] = true
	}
	return s
}

func (s *stubDeliveries) Insert(_ context.Context, delivery *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := [2]primitive.ObjectID{delivery.OutletID, delivery.RequestID}
	if s.pairs[pair] {
		return ErrDuplicateDelivery
	}
	delivery.ID = primitive.NewObjectID()
	cp := *delivery
	s.byID[delivery.ID] = &cp
	s.pairs[pair] = true
	return nil
}

func (s *stubDeliveries) GetByID(_ context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *stubDeliveries) UpdateStatus(_ context.Context, id primitive.ObjectID, allowedFrom []string, newStatus string, confirmedBy primitive.ObjectID) (*models.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, from := range allowedFrom {
		if d.Status == from {
			d.Status = newStatus
			if !confirmedBy.IsZero() {
				d.ConfirmedBy = confirmedBy
			}
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrInvalidTransition
}

type stubUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func newStubUsers(users ...*models.User) *stubUsers {
	s := &stubUsers{byID: make(map[primitive.ObjectID]*models.User)}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return s
}

func (s *stubUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type stubDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (s *stubDispatcher) Dispatch(_ context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *stubDispatcher) kinds() []notify.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
