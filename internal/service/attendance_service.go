package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errLedgerChanged = errors.New("ledger changed under a locked read")

// EventPublisher receives attendance events after their transaction has
// committed.
type EventPublisher interface {
	Publish(event domain.AttendanceEvent)
}

type AttendanceService struct {
	repos  *repository.Repositories
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewAttendanceService(repos *repository.Repositories, events EventPublisher, log *zap.Logger) *AttendanceService {
	return &AttendanceService{
		repos:  repos,
		events: events,
		log:    log,
		now:    now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// SignIn starts a session. No record is written until the matching sign-out.
func (s *AttendanceService) SignIn(ctx context.Context, lookup domain.UserLookup) (*domain.User, error) {
	if lookup.IsEmpty() {
		return nil, domain.ErrMissingIdentifier
	}

	var signedIn *domain.User
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		user, err := findUser(ctx, tx.User, lookup, true)
		if err != nil {
			return err
		}
		if user.LoggedIn {
			return domain.ErrAlreadySignedIn
		}

		at := s.now()
		if err := tx.User.MarkSignedIn(ctx, user.UserID, at); err != nil {
			return domain.StoreError("mark signed in", err)
		}

		user.LoggedIn = true
		user.LastLogin = &at
		signedIn = user
		return nil
	})
	if err != nil {
		return nil, classify("sign in", err)
	}

	s.log.Info("user signed in",
		zap.String("user_id", signedIn.UserID.String()),
		zap.String("name", signedIn.Name),
	)
	s.publish(domain.AttendanceEvent{
		Type:   domain.EventSignedIn,
		UserID: &signedIn.UserID,
		Name:   signedIn.Name,
		At:     *signedIn.LastLogin,
	})
	return signedIn, nil
}

// SignOut ends the open session of a user: it clears the flag, credits the
// elapsed time and appends the record, all in one transaction.
func (s *AttendanceService) SignOut(ctx context.Context, lookup domain.UserLookup) (*domain.User, *domain.Record, error) {
	if lookup.IsEmpty() {
		return nil, nil, domain.ErrMissingIdentifier
	}

	var (
		signedOut *domain.User
		record    *domain.Record
	)
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		user, err := findUser(ctx, tx.User, lookup, true)
		if err != nil {
			return err
		}
		if !user.LoggedIn {
			return domain.ErrNotSignedIn
		}

		changed, err := tx.User.MarkSignedOut(ctx, []uuid.UUID{user.UserID}, s.now())
		if err != nil {
			return domain.StoreError("mark signed out", err)
		}
		if changed != 1 {
			return domain.ErrNotSignedIn
		}

		// The stored timestamps are authoritative for the session bounds.
		stored, err := tx.User.GetByID(ctx, user.UserID)
		if err != nil {
			return domain.StoreError("read back session", err)
		}
		if stored.LastLogout == nil {
			return domain.StoreError("read back session", errLedgerChanged)
		}
		end := *stored.LastLogout
		start := end
		if stored.LastLogin != nil {
			start = *stored.LastLogin
		}

		hours := domain.HoursBetween(start, end)
		if err := tx.User.AddHours(ctx, user.UserID, hours); err != nil {
			return domain.StoreError("accrue hours", err)
		}

		rec := &domain.Record{
			UserID:    user.UserID,
			StartTime: start,
			EndTime:   end,
		}
		if err := tx.Record.Create(ctx, rec); err != nil {
			return domain.StoreError("create record", err)
		}

		stored.Hours += hours
		signedOut = stored
		record = rec
		return nil
	})
	if err != nil {
		return nil, nil, classify("sign out", err)
	}

	s.log.Info("user signed out",
		zap.String("user_id", signedOut.UserID.String()),
		zap.String("name", signedOut.Name),
		zap.Duration("session", record.Duration()),
	)
	s.publish(domain.AttendanceEvent{
		Type:   domain.EventSignedOut,
		UserID: &signedOut.UserID,
		Name:   signedOut.Name,
		At:     record.EndTime,
	})
	return signedOut, record, nil
}

// SignOutAll closes every open session at one shared instant. The set of
// signed-in users is read with row locks and only those rows are written,
// so a user who signs in after the read is left signed in.
func (s *AttendanceService) SignOutAll(ctx context.Context) (int, error) {
	var (
		count int
		at    time.Time
	)
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		users, err := tx.User.ListLoggedInForUpdate(ctx)
		if err != nil {
			return domain.StoreError("list signed-in users", err)
		}
		if len(users) == 0 {
			return nil
		}

		at = s.now()
		ids := make([]uuid.UUID, len(users))
		for i, u := range users {
			ids[i] = u.UserID
		}

		changed, err := tx.User.MarkSignedOut(ctx, ids, at)
		if err != nil {
			return domain.StoreError("mark signed out", err)
		}
		if changed != int64(len(ids)) {
			return domain.StoreError("mark signed out", errLedgerChanged)
		}

		records := make([]*domain.Record, len(users))
		for i, u := range users {
			start := at
			if u.LastLogin != nil {
				start = *u.LastLogin
			}
			if err := tx.User.AddHours(ctx, u.UserID, domain.HoursBetween(start, at)); err != nil {
				return domain.StoreError("accrue hours", err)
			}
			records[i] = &domain.Record{
				UserID:    u.UserID,
				StartTime: start,
				EndTime:   at,
			}
		}
		if err := tx.Record.CreateMany(ctx, records); err != nil {
			return domain.StoreError("create records", err)
		}

		count = len(users)
		return nil
	})
	if err != nil {
		return 0, classify("sign out all", err)
	}

	if count > 0 {
		s.log.Info("signed out all users", zap.Int("count", count))
		s.publish(domain.AttendanceEvent{
			Type:  domain.EventSignedOutAll,
			Count: count,
			At:    at,
		})
	}
	return count, nil
}

func (s *AttendanceService) publish(event domain.AttendanceEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
