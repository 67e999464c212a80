package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
	"github.com/careportal/complaint-service/internal/repository"
)

// SLACalculator derives resolution deadlines from SLA reference data.
type SLACalculator struct {
	settings        repository.SLASettingRepository
	defaultDuration time.Duration
	logger          *zap.Logger
}

// NewSLACalculator constructs the calculator. defaultDuration applies when no
// setting matches a ticket's classification.
func NewSLACalculator(settings repository.SLASettingRepository, defaultDuration time.Duration, logger *zap.Logger) *SLACalculator {
	return &SLACalculator{
		settings:        settings,
		defaultDuration: defaultDuration,
		logger:          logger,
	}
}

// ComputeDeadline picks the most specific active SLA setting for the
// classification and returns createdAt plus its duration. A nil setting id
// means no rule matched and the system default was applied; that is not an
// error to the caller, only a visible flag on the ticket.
func (c *SLACalculator) ComputeDeadline(ctx context.Context, priority domain.TicketPriority, categoryID, patientTypeID string, createdAt time.Time) (time.Time, *string, error) {
	settings, err := c.settings.ListActive(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}

	var best *domain.SLASetting
	bestSpecificity := -1
	for i := range settings {
		setting := &settings[i]
		ok, specificity := setting.Matches(priority, categoryID, patientTypeID)
		if !ok {
			continue
		}
		if best == nil || specificity > bestSpecificity ||
			(specificity == bestSpecificity && moreRecent(setting, best)) {
			best = setting
			bestSpecificity = specificity
		}
	}

	if best == nil {
		c.logger.Warn("no SLA setting configured, applying default duration",
			zap.String("priority", string(priority)),
			zap.String("category_id", categoryID),
			zap.String("patient_type_id", patientTypeID),
			zap.Duration("default_duration", c.defaultDuration),
		)
		return createdAt.Add(c.defaultDuration), nil, nil
	}

	settingID := best.ID
	return createdAt.Add(time.Duration(best.DurationHours) * time.Hour), &settingID, nil
}

// moreRecent orders equally specific settings: later created_at wins, with
// the id as a final tie-break so selection is independent of iteration order.
func moreRecent(a, b *domain.SLASetting) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// IsOverdue derives the overdue state at read time. It is never persisted:
// a stored flag would go stale the moment the deadline passes or the ticket
// resolves.
func IsOverdue(ticket *domain.Ticket, now time.Time) bool {
	if ticket.SLADueAt == nil {
		return false
	}
	if ticket.IsTerminal() {
		return false
	}
	return now.After(*ticket.SLADueAt)
}
