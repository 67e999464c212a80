package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore binds the repositories to one DB handle. The pool-backed
// store opens a transaction in WithinTx and hands the callback a store bound
// to it; a tx-bound store reuses its transaction for nested calls.
type postgresStore struct {
	pool *pgxpool.Pool
	db   DB
	sla  SLASettingRepository
}

// NewPostgresStore builds a Store over a pgx pool. An optional SLA settings
// repository override lets the caller substitute the Redis-cached variant.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, db: pool}
}

// WithSLASettings returns a copy of the store using the given SLA settings
// repository for reads. SLA settings are read-only within this service, so
// the cached repository is safe to share across transactions.
func WithSLASettings(store Store, sla SLASettingRepository) Store {
	if pg, ok := store.(*postgresStore); ok {
		clone := *pg
		clone.sla = sla
		return &clone
	}
	return store
}

func (s *postgresStore) Tickets() TicketRepository                 { return &ticketRepository{db: s.db} }
func (s *postgresStore) Responses() ResponseRepository             { return &responseRepository{db: s.db} }
func (s *postgresStore) Escalations() EscalationRepository         { return &escalationRepository{db: s.db} }
func (s *postgresStore) EscalationUnits() EscalationUnitRepository { return &escalationUnitRepository{db: s.db} }
func (s *postgresStore) Units() UnitRepository                     { return &unitRepository{db: s.db} }

func (s *postgresStore) SLASettings() SLASettingRepository {
	if s.sla != nil {
		return s.sla
	}
	return &slaSettingRepository{db: s.db}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already transaction-bound
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &postgresStore{db: tx, sla: s.sla}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
