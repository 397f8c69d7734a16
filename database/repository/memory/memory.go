// Package memory provides in-process implementations of the repository
// interfaces. Documents are copied on every read and write so callers see
// the same isolation they get from MongoDB, including version checks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wellbe/database/repository"
	"wellbe/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Store holds every collection behind one lock.
type Store struct {
	mu            sync.Mutex
	bookings      map[string]models.Booking
	orders        map[string]models.Order
	products      map[string]models.Product
	sessions      map[string]models.Session
	professionals map[string]models.Professional
	users         map[string]models.User
	messages      map[string]models.Message
	notifications []models.Notification
	counters      map[string]int64

	// FailNextOrderCreate, when set, is returned once by the next order insert.
	FailNextOrderCreate error
	// FailNextBookingCreate, when set, is returned once by the next booking insert.
	FailNextBookingCreate error
}

func NewStore() *Store {
	return &Store{
		bookings:      map[string]models.Booking{},
		orders:        map[string]models.Order{},
		products:      map[string]models.Product{},
		sessions:      map[string]models.Session{},
		professionals: map[string]models.Professional{},
		users:         map[string]models.User{},
		messages:      map[string]models.Message{},
		counters:      map[string]int64{},
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
}

// ---- seeding and inspection helpers ----

func (s *Store) PutProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
}

func (s *Store) Product(id string) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProduct(s.products[id])
}

func (s *Store) PutSession(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = cloneSession(sess)
}

func (s *Store) Session(id string) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.sessions[id])
}

func (s *Store) PutProfessional(p models.Professional) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.professionals[p.ID] = p
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutMessage(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ID] = cloneMessage(m)
}

func (s *Store) Message(id string) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessage(s.messages[id])
}

func (s *Store) PutBooking(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = cloneBooking(b)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Notifications returns a copy of every stored notification in insert order.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// ---- clones ----

func cloneProduct(p models.Product) models.Product {
	if p.Sizes != nil {
		p.Sizes = append([]models.SizeStock(nil), p.Sizes...)
	}
	return p
}

func cloneSession(s models.Session) models.Session {
	if s.Participants != nil {
		s.Participants = append([]models.Participant(nil), s.Participants...)
	}
	if s.Reviews != nil {
		s.Reviews = append([]models.Review(nil), s.Reviews...)
	}
	return s
}

func cloneBooking(b models.Booking) models.Booking {
	if b.Cancellation != nil {
		c := *b.Cancellation
		b.Cancellation = &c
	}
	return b
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}

func cloneMessage(m models.Message) models.Message {
	if m.PurchaseIntent != nil {
		pi := *m.PurchaseIntent
		m.PurchaseIntent = &pi
	}
	return m
}

// ---- bookings ----

type BookingRepo struct{ s *Store }

func (s *Store) Bookings() *BookingRepo { return &BookingRepo{s} }

func (r *BookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailNextBookingCreate; err != nil {
		r.s.FailNextBookingCreate = nil
		return err
	}
	for _, existing := range r.s.bookings {
		if existing.BookingNumber == b.BookingNumber {
			return repository.ErrDuplicate
		}
		live := existing.Status == models.BookingPending || existing.Status == models.BookingConfirmed
		if live && existing.ClientID == b.ClientID && b.Service.SessionID != "" && existing.Service.SessionID == b.Service.SessionID {
			return repository.ErrDuplicate
		}
	}
	r.s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, notFound("booking", id)
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *BookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[b.ID]; !ok {
		return notFound("booking", b.ID)
	}
	r.s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (r *BookingRepo) FindActiveForSession(_ context.Context, clientID, sessionID string) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ClientID == clientID && b.Service.SessionID == sessionID && b.Status != models.BookingCancelled {
			out := cloneBooking(b)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *BookingRepo) ListByClient(_ context.Context, clientID string) ([]models.Booking, error) {
	return r.list(func(b models.Booking) bool { return b.ClientID == clientID }), nil
}

func (r *BookingRepo) ListByProfessional(_ context.Context, professionalID string) ([]models.Booking, error) {
	return r.list(func(b models.Booking) bool { return b.ProfessionalID == professionalID }), nil
}

func (r *BookingRepo) list(match func(models.Booking) bool) []models.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range r.s.bookings {
		if match(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ---- counters ----

type CounterRepo struct{ s *Store }

func (s *Store) Counters() *CounterRepo { return &CounterRepo{s} }

func (r *CounterRepo) Next(_ context.Context, key string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counters[key]++
	return r.s.counters[key], nil
}

// ---- orders ----

type OrderRepo struct{ s *Store }

func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }

func (r *OrderRepo) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailNextOrderCreate; err != nil {
		r.s.FailNextOrderCreate = nil
		return err
	}
	for _, existing := range r.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *OrderRepo) Update(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[o.ID]; !ok {
		return notFound("order", o.ID)
	}
	r.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r *OrderRepo) ListByClient(_ context.Context, clientID string) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.ClientID == clientID }), nil
}

func (r *OrderRepo) ListByProfessional(_ context.Context, professionalID string) ([]models.Order, error) {
	return r.list(func(o models.Order) bool { return o.ProfessionalID() == professionalID }), nil
}

func (r *OrderRepo) list(match func(models.Order) bool) []models.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.s.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ---- products ----

type ProductRepo struct{ s *Store }

func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, notFound("product", id)
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *ProductRepo) FindByTitle(_ context.Context, professionalID, name string) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	name = strings.ToLower(strings.TrimSpace(name))

	var exact, partial []models.Product
	for _, p := range r.s.products {
		if p.ProfessionalID != professionalID {
			continue
		}
		title := strings.ToLower(p.Title)
		switch {
		case title == name:
			exact = append(exact, cloneProduct(p))
		case strings.Contains(title, name):
			partial = append(partial, cloneProduct(p))
		}
	}
	byCreated := func(ps []models.Product) {
		sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.Before(ps[j].CreatedAt) })
	}
	if len(exact) > 0 {
		byCreated(exact)
		return exact, nil
	}
	byCreated(partial)
	return partial, nil
}

func (r *ProductRepo) SaveInventory(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[p.ID]
	if !ok || stored.Version != p.Version {
		return fmt.Errorf("product %s: %w", p.ID, repository.ErrVersionConflict)
	}
	stored.Stock = p.Stock
	stored.Sizes = append([]models.SizeStock(nil), p.Sizes...)
	stored.Version++
	stored.UpdatedAt = time.Now()
	r.s.products[p.ID] = stored
	p.Version = stored.Version
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

// ---- sessions ----

type SessionRepo struct{ s *Store }

func (s *Store) Sessions() *SessionRepo { return &SessionRepo{s} }

func (r *SessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, notFound("session", id)
	}
	out := cloneSession(sess)
	return &out, nil
}

func (r *SessionRepo) SaveParticipants(_ context.Context, sess *models.Session) error {
	return r.save(sess, func(stored *models.Session) {
		stored.Participants = append([]models.Participant(nil), sess.Participants...)
	})
}

func (r *SessionRepo) SaveReviews(_ context.Context, sess *models.Session) error {
	return r.save(sess, func(stored *models.Session) {
		stored.Reviews = append([]models.Review(nil), sess.Reviews...)
		stored.RatingStats = sess.RatingStats
	})
}

func (r *SessionRepo) save(sess *models.Session, apply func(*models.Session)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sessions[sess.ID]
	if !ok || stored.Version != sess.Version {
		return fmt.Errorf("session %s: %w", sess.ID, repository.ErrVersionConflict)
	}
	apply(&stored)
	stored.Version++
	r.s.sessions[sess.ID] = stored
	sess.Version = stored.Version
	return nil
}

func (r *SessionRepo) ListEndedBetween(_ context.Context, from, to time.Time) ([]models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Session
	for _, sess := range r.s.sessions {
		if !sess.EndsAt.Before(from) && sess.EndsAt.Before(to) {
			out = append(out, cloneSession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

// ---- professionals ----

type ProfessionalRepo struct{ s *Store }

func (s *Store) Professionals() *ProfessionalRepo { return &ProfessionalRepo{s} }

func (r *ProfessionalRepo) GetByID(_ context.Context, id string) (*models.Professional, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.professionals[id]
	if !ok {
		return nil, notFound("professional", id)
	}
	return &p, nil
}

func (r *ProfessionalRepo) GetByUserID(_ context.Context, userID string) (*models.Professional, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.professionals {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, notFound("professional for user", userID)
}

// ---- users ----

type UserRepo struct{ s *Store }

func (s *Store) Users() *UserRepo { return &UserRepo{s} }

func (r *UserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

// GetByIDWithProjection ignores the projection and returns the whole user.
func (r *UserRepo) GetByIDWithProjection(ctx context.Context, id string, _ bson.M) (*models.User, error) {
	return r.GetByID(ctx, id)
}

// ---- messages ----

type MessageRepo struct{ s *Store }

func (s *Store) Messages() *MessageRepo { return &MessageRepo{s} }

func (r *MessageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return nil, notFound("message", id)
	}
	out := cloneMessage(m)
	return &out, nil
}

func (r *MessageRepo) MarkProcessed(_ context.Context, id, orderID string) error {
	return r.flip(id, func(m *models.Message) {
		m.Processed = true
		m.OrderID = orderID
	})
}

func (r *MessageRepo) MarkRejected(_ context.Context, id, reason string) error {
	return r.flip(id, func(m *models.Message) {
		m.Processed = true
		m.Rejected = true
		m.RejectionReason = reason
	})
}

func (r *MessageRepo) Reopen(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok {
		return notFound("message", id)
	}
	m.Processed = false
	m.OrderID = ""
	r.s.messages[id] = m
	return nil
}

func (r *MessageRepo) flip(id string, apply func(*models.Message)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.messages[id]
	if !ok || m.Processed {
		return fmt.Errorf("message %s: %w", id, repository.ErrAlreadyProcessed)
	}
	apply(&m)
	m.UpdatedAt = time.Now()
	r.s.messages[id] = m
	return nil
}

// ---- notifications ----

type NotificationRepo struct{ s *Store }

func (s *Store) NotificationStore() *NotificationRepo { return &NotificationRepo{s} }

func (r *NotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].Read = true
			return nil
		}
	}
	return notFound("notification", id)
}

func (r *NotificationRepo) Exists(_ context.Context, userID string, t models.NotificationType, dataKey, dataValue string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.UserID == userID && n.Type == t && fmt.Sprint(n.Data[dataKey]) == dataValue {
			return true, nil
		}
	}
	return false, nil
}
