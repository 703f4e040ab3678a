package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitalora/staffgate/internal/data/pgxutil"
	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	apperrors "github.com/vitalora/staffgate/internal/errors"
	"github.com/vitalora/staffgate/internal/ports"
)

var (
	_ ports.AuditRecorder = (*LoginAuditRepo)(nil)
	_ ports.AuditReader   = (*LoginAuditRepo)(nil)
	_ ports.AuditPruner   = (*LoginAuditRepo)(nil)
)

// MaxAuditListLimit caps a single ListRecent page.
const MaxAuditListLimit = 200

const loginAuditColumns = `id, event_type, subject, auth_mode, client_ip, user_agent, reason, occurred_at`

// pruneBatchSize bounds how many rows a single DELETE statement removes.
const pruneBatchSize = 5000

// LoginAuditRepo stores the staff login audit trail in PostgreSQL.
type LoginAuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewLoginAuditRepo creates a LoginAuditRepo backed by db.
func NewLoginAuditRepo(db *sql.DB) *LoginAuditRepo {
	return &LoginAuditRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewLoginAuditRepoWithTimeProvider creates a LoginAuditRepo with a custom TimeProvider (useful for testing).
func NewLoginAuditRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *LoginAuditRepo {
	return &LoginAuditRepo{DB: db, timeProvider: timeProvider}
}

type loginAuditRow struct {
	ID         uuid.UUID `db:"id"`
	EventType  string    `db:"event_type"`
	Subject    string    `db:"subject"`
	AuthMode   string    `db:"auth_mode"`
	ClientIP   string    `db:"client_ip"`
	UserAgent  string    `db:"user_agent"`
	Reason     string    `db:"reason"`
	OccurredAt time.Time `db:"occurred_at"`
}

func (r loginAuditRow) toDomain() domainauth.AuditEvent {
	return domainauth.AuditEvent{
		ID:         r.ID.String(),
		Type:       domainauth.AuditEventType(r.EventType),
		Subject:    r.Subject,
		Mode:       domainauth.Mode(r.AuthMode),
		ClientIP:   r.ClientIP,
		UserAgent:  r.UserAgent,
		Reason:     r.Reason,
		OccurredAt: r.OccurredAt.UTC(),
	}
}

// Record inserts ev. A missing ID or OccurredAt is filled in.
func (r *LoginAuditRepo) Record(ctx context.Context, ev domainauth.AuditEvent) error {
	if ev.Type == "" {
		return ErrAuditEventTypeRequired
	}

	id := uuid.New()
	if ev.ID != "" {
		parsed, err := uuid.Parse(ev.ID)
		if err != nil {
			return apperrors.ValidationField("id", "audit event id must be a UUID")
		}
		id = parsed
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = r.timeProvider.Now()
	}

	_, err := pgxutil.Exec(ctx, r.DB, `
		INSERT INTO staff_login_audit (`+loginAuditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, string(ev.Type), ev.Subject, string(ev.Mode), ev.ClientIP, truncate(ev.UserAgent, 512), ev.Reason, occurred.UTC())
	if err != nil {
		return fmt.Errorf("record login audit event: %w", apperrors.MapDBError(err))
	}
	return nil
}

// ListRecent returns up to limit events, newest first. limit is clamped to [1, MaxAuditListLimit].
func (r *LoginAuditRepo) ListRecent(ctx context.Context, limit int) ([]domainauth.AuditEvent, error) {
	limit = max(1, min(limit, MaxAuditListLimit))

	rows, err := pgxutil.QueryStructs[loginAuditRow](ctx, r.DB,
		`SELECT `+loginAuditColumns+` FROM staff_login_audit ORDER BY occurred_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list login audit events: %w", apperrors.MapDBError(err))
	}

	out := make([]domainauth.AuditEvent, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// DeleteOlderThan removes events that occurred before cutoff, in batches, and reports how many were removed.
func (r *LoginAuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, ErrAuditCutoffRequired
	}

	var total int64
	for {
		n, err := pgxutil.Exec(ctx, r.DB, `
			DELETE FROM staff_login_audit
			WHERE id IN (
				SELECT id FROM staff_login_audit WHERE occurred_at < $1 LIMIT $2
			)
		`, cutoff.UTC(), pruneBatchSize)
		if err != nil {
			return total, fmt.Errorf("prune login audit events: %w", apperrors.MapDBError(err))
		}
		total += n
		if n < pruneBatchSize {
			return total, nil
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
