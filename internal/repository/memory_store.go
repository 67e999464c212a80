package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careportal/complaint-service/internal/domain"
)

// MemoryStore is a Store kept entirely in process memory. It backs the test
// suites and the server when no Postgres DSN is configured. WithinTx runs the
// callback against a deep copy of the data and swaps it in on success, so a
// failed multi-record write leaves no partial state, matching the Postgres
// store's transaction semantics.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	// tx-bound child stores operate on their own copy without locking
	inTx bool
}

type memoryData struct {
	tickets         map[string]domain.Ticket
	responses       map[string][]domain.TicketResponse
	escalations     map[string][]domain.TicketEscalation
	escalationUnits map[string]domain.EscalationUnit
	slaSettings     []domain.SLASetting
	units           map[string]domain.Unit
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

func newMemoryData() *memoryData {
	return &memoryData{
		tickets:         make(map[string]domain.Ticket),
		responses:       make(map[string][]domain.TicketResponse),
		escalations:     make(map[string][]domain.TicketEscalation),
		escalationUnits: make(map[string]domain.EscalationUnit),
		units:           make(map[string]domain.Unit),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for id, t := range d.tickets {
		c.tickets[id] = t
	}
	for id, list := range d.responses {
		c.responses[id] = append([]domain.TicketResponse(nil), list...)
	}
	for id, list := range d.escalations {
		c.escalations[id] = append([]domain.TicketEscalation(nil), list...)
	}
	for id, u := range d.escalationUnits {
		c.escalationUnits[id] = u
	}
	c.slaSettings = append([]domain.SLASetting(nil), d.slaSettings...)
	for id, u := range d.units {
		c.units[id] = u
	}
	return c
}

// SeedUnit registers reference data for tests and DSN-less runs.
func (s *MemoryStore) SeedUnit(unit domain.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now()
	}
	unit.UpdatedAt = unit.CreatedAt
	s.data.units[unit.ID] = unit
}

// SeedSLASetting registers an SLA rule for tests and DSN-less runs.
func (s *MemoryStore) SeedSLASetting(setting domain.SLASetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if setting.ID == "" {
		setting.ID = uuid.NewString()
	}
	if setting.CreatedAt.IsZero() {
		setting.CreatedAt = time.Now()
	}
	s.data.slaSettings = append(s.data.slaSettings, setting)
}

func (s *MemoryStore) Tickets() TicketRepository                 { return &memoryTickets{store: s} }
func (s *MemoryStore) Responses() ResponseRepository             { return &memoryResponses{store: s} }
func (s *MemoryStore) Escalations() EscalationRepository         { return &memoryEscalations{store: s} }
func (s *MemoryStore) EscalationUnits() EscalationUnitRepository { return &memoryEscalationUnits{store: s} }
func (s *MemoryStore) SLASettings() SLASettingRepository         { return &memorySLASettings{store: s} }
func (s *MemoryStore) Units() UnitRepository                     { return &memoryUnits{store: s} }

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	child := &MemoryStore{data: s.data.clone(), inTx: true}
	if err := fn(child); err != nil {
		return err
	}
	s.data = child.data
	return nil
}

// locked runs fn under the store mutex unless the store is transaction-bound,
// in which case WithinTx already serialized access.
func (s *MemoryStore) locked(fn func(*memoryData) error) error {
	if s.inTx {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// nextVersion returns a timestamp strictly after prev so the updated_at
// version token always moves forward.
func nextVersion(prev time.Time) time.Time {
	now := time.Now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

type memoryTickets struct {
	store *MemoryStore
}

func (r *memoryTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.locked(func(d *memoryData) error {
		if ticket.ID == "" {
			ticket.ID = uuid.NewString()
		}
		if ticket.CreatedAt.IsZero() {
			ticket.CreatedAt = time.Now()
		}
		ticket.UpdatedAt = ticket.CreatedAt
		d.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *memoryTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.locked(func(d *memoryData) error {
		current, ok := d.tickets[ticket.ID]
		if !ok {
			return ErrNotFound
		}
		if !current.UpdatedAt.Equal(ticket.UpdatedAt) {
			return ErrVersionConflict
		}
		ticket.UpdatedAt = nextVersion(current.UpdatedAt)
		d.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var found *domain.Ticket
	err := r.store.locked(func(d *memoryData) error {
		ticket, ok := d.tickets[id]
		if !ok {
			return ErrNotFound
		}
		found = &ticket
		return nil
	})
	return found, err
}

func (r *memoryTickets) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	var found *domain.Ticket
	err := r.store.locked(func(d *memoryData) error {
		for _, ticket := range d.tickets {
			if ticket.TicketNumber == number {
				match := ticket
				found = &match
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r *memoryTickets) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	err := r.store.locked(func(d *memoryData) error {
		for _, ticket := range d.tickets {
			if !matchesFilter(&ticket, filter) {
				continue
			}
			result = append(result, ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.UnitID != nil && ticket.UnitID != *filter.UnitID {
		return false
	}
	if filter.IsFlagged != nil && ticket.IsFlagged != *filter.IsFlagged {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.Overdue != nil {
		overdue := ticket.SLADueAt != nil && time.Now().After(*ticket.SLADueAt) && !ticket.IsTerminal()
		if overdue != *filter.Overdue {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

type memoryResponses struct {
	store *MemoryStore
}

func (r *memoryResponses) Create(ctx context.Context, response *domain.TicketResponse) error {
	return r.store.locked(func(d *memoryData) error {
		if response.ID == "" {
			response.ID = uuid.NewString()
		}
		if response.CreatedAt.IsZero() {
			response.CreatedAt = time.Now()
		}
		d.responses[response.TicketID] = append(d.responses[response.TicketID], *response)
		return nil
	})
}

func (r *memoryResponses) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketResponse, error) {
	var result []domain.TicketResponse
	err := r.store.locked(func(d *memoryData) error {
		result = append(result, d.responses[ticketID]...)
		return nil
	})
	return result, err
}

type memoryEscalations struct {
	store *MemoryStore
}

func (r *memoryEscalations) Create(ctx context.Context, escalation *domain.TicketEscalation) error {
	return r.store.locked(func(d *memoryData) error {
		if escalation.ID == "" {
			escalation.ID = uuid.NewString()
		}
		if escalation.EscalatedAt.IsZero() {
			escalation.EscalatedAt = time.Now()
		}
		d.escalations[escalation.TicketID] = append(d.escalations[escalation.TicketID], *escalation)
		return nil
	})
}

func (r *memoryEscalations) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error) {
	var result []domain.TicketEscalation
	err := r.store.locked(func(d *memoryData) error {
		result = append(result, d.escalations[ticketID]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EscalatedAt.After(result[j].EscalatedAt)
	})
	return result, nil
}

type memoryEscalationUnits struct {
	store *MemoryStore
}

func (r *memoryEscalationUnits) Create(ctx context.Context, unit *domain.EscalationUnit) error {
	return r.store.locked(func(d *memoryData) error {
		if unit.ID == "" {
			unit.ID = uuid.NewString()
		}
		if unit.CreatedAt.IsZero() {
			unit.CreatedAt = time.Now()
		}
		unit.UpdatedAt = unit.CreatedAt
		d.escalationUnits[unit.ID] = *unit
		return nil
	})
}

func (r *memoryEscalationUnits) Update(ctx context.Context, unit *domain.EscalationUnit) error {
	return r.store.locked(func(d *memoryData) error {
		current, ok := d.escalationUnits[unit.ID]
		if !ok {
			return ErrNotFound
		}
		if !current.UpdatedAt.Equal(unit.UpdatedAt) {
			return ErrVersionConflict
		}
		unit.UpdatedAt = nextVersion(current.UpdatedAt)
		d.escalationUnits[unit.ID] = *unit
		return nil
	})
}

func (r *memoryEscalationUnits) GetByID(ctx context.Context, id string) (*domain.EscalationUnit, error) {
	var found *domain.EscalationUnit
	err := r.store.locked(func(d *memoryData) error {
		unit, ok := d.escalationUnits[id]
		if !ok {
			return ErrNotFound
		}
		found = &unit
		return nil
	})
	return found, err
}

func (r *memoryEscalationUnits) ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationUnit, error) {
	var result []domain.EscalationUnit
	err := r.store.locked(func(d *memoryData) error {
		for _, unit := range d.escalationUnits {
			if unit.TicketID == ticketID {
				result = append(result, unit)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memorySLASettings struct {
	store *MemoryStore
}

func (r *memorySLASettings) ListActive(ctx context.Context) ([]domain.SLASetting, error) {
	var result []domain.SLASetting
	err := r.store.locked(func(d *memoryData) error {
		for _, setting := range d.slaSettings {
			if setting.IsActive {
				result = append(result, setting)
			}
		}
		return nil
	})
	return result, err
}

type memoryUnits struct {
	store *MemoryStore
}

func (r *memoryUnits) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	var found *domain.Unit
	err := r.store.locked(func(d *memoryData) error {
		unit, ok := d.units[id]
		if !ok {
			return ErrNotFound
		}
		found = &unit
		return nil
	})
	return found, err
}
