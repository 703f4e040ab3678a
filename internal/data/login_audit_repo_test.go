package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
	apperrors "github.com/vitalora/staffgate/internal/errors"
	"github.com/vitalora/staffgate/internal/testutil"
)

func TestLoginAuditRepo_RecordAndListRecent(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		clock := NewFixedTimeProvider(base)
		repo := NewLoginAuditRepoWithTimeProvider(db, clock)
		ctx := context.Background()

		require.NoError(t, repo.Record(ctx, domainauth.AuditEvent{
			Type:     domainauth.AuditLoginFailed,
			Mode:     domainauth.ModeSharedCode,
			ClientIP: "203.0.113.7",
			Reason:   "invalid_credentials",
		}))
		clock.AddTime(time.Minute)
		require.NoError(t, repo.Record(ctx, domainauth.AuditEvent{
			Type:      domainauth.AuditLoginSucceeded,
			Subject:   "code:1",
			Mode:      domainauth.ModeSharedCode,
			ClientIP:  "203.0.113.7",
			UserAgent: "Mozilla/5.0",
		}))

		events, err := repo.ListRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, domainauth.AuditLoginSucceeded, events[0].Type)
		assert.Equal(t, "code:1", events[0].Subject)
		assert.Equal(t, base.Add(time.Minute), events[0].OccurredAt)
		assert.NotEmpty(t, events[0].ID)

		assert.Equal(t, domainauth.AuditLoginFailed, events[1].Type)
		assert.Equal(t, "invalid_credentials", events[1].Reason)

		limited, err := repo.ListRecent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}

func TestLoginAuditRepo_RecordKeepsExplicitID(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewLoginAuditRepo(db)
		ctx := context.Background()
		id := uuid.NewString()

		require.NoError(t, repo.Record(ctx, domainauth.AuditEvent{ID: id, Type: domainauth.AuditLogout, Subject: "vitalora"}))

		events, err := repo.ListRecent(ctx, 5)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, id, events[0].ID)
	})
}

func TestLoginAuditRepo_DeleteOlderThan(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewLoginAuditRepo(db)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		for _, age := range []time.Duration{100 * 24 * time.Hour, 95 * 24 * time.Hour, time.Hour} {
			require.NoError(t, repo.Record(ctx, domainauth.AuditEvent{
				Type:       domainauth.AuditLoginFailed,
				OccurredAt: now.Add(-age),
			}))
		}

		deleted, err := repo.DeleteOlderThan(ctx, now.Add(-90*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := repo.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}

func TestLoginAuditRepo_ValidationWithoutDB(t *testing.T) {
	repo := NewLoginAuditRepo(nil)
	ctx := context.Background()

	require.ErrorIs(t, repo.Record(ctx, domainauth.AuditEvent{}), ErrAuditEventTypeRequired)

	err := repo.Record(ctx, domainauth.AuditEvent{ID: "not-a-uuid", Type: domainauth.AuditLogout})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	assert.Equal(t, "id", apperrors.GetField(err))

	_, err = repo.DeleteOlderThan(ctx, time.Time{})
	require.ErrorIs(t, err, ErrAuditCutoffRequired)
}
