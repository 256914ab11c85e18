package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository"
	"github.com/dom/rfid-attendance/internal/repository/gormstore"
	"github.com/dom/rfid-attendance/internal/service"
	"github.com/dom/rfid-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)

// fakeClock hands out preset instants in order and repeats the last one.
type fakeClock struct {
	mu    sync.Mutex
	times []time.Time
}

func newFakeClock(times ...time.Time) *fakeClock {
	return &fakeClock{times: times}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.AttendanceEvent
}

func (p *recordingPublisher) Publish(event domain.AttendanceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []domain.AttendanceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.AttendanceEvent(nil), p.events...)
}

type attendanceFixture struct {
	db     *gorm.DB
	repos  *repository.Repositories
	events *recordingPublisher
	svc    *service.AttendanceService
}

func newAttendanceFixture(t *testing.T, clock *fakeClock) *attendanceFixture {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	repos := gormstore.NewRepositories(db)
	events := &recordingPublisher{}
	svc := service.NewAttendanceService(repos, events, zap.NewNop())
	if clock != nil {
		svc.WithClock(clock.Now)
	}
	return &attendanceFixture{db: db, repos: repos, events: events, svc: svc}
}

func TestAttendanceService_SignIn(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(t *testing.T, f *attendanceFixture) domain.UserLookup
		wantErr error
	}{
		{
			name: "by rfid key",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				testutil.NewUserBuilder().WithRFIDKey("CARD-1").Build(t, f.db)
				return domain.UserLookup{RFIDKey: "CARD-1"}
			},
		},
		{
			name: "by user id",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				u := testutil.NewUserBuilder().Build(t, f.db)
				return domain.UserLookup{UserID: u.UserID.String()}
			},
		},
		{
			name: "rfid key wins over user id",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				testutil.NewUserBuilder().WithRFIDKey("CARD-2").Build(t, f.db)
				return domain.UserLookup{RFIDKey: "CARD-2", UserID: "not-a-uuid"}
			},
		},
		{
			name: "missing identifier",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				return domain.UserLookup{}
			},
			wantErr: domain.ErrMissingIdentifier,
		},
		{
			name: "unknown rfid key",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				return domain.UserLookup{RFIDKey: "NOPE"}
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "malformed user id",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				return domain.UserLookup{UserID: "12345"}
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "already signed in",
			setup: func(t *testing.T, f *attendanceFixture) domain.UserLookup {
				u := testutil.NewUserBuilder().SignedInAt(baseTime.Add(-time.Hour)).Build(t, f.db)
				return domain.UserLookup{UserID: u.UserID.String()}
			},
			wantErr: domain.ErrAlreadySignedIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendanceFixture(t, newFakeClock(baseTime))
			lookup := tt.setup(t, f)

			user, err := f.svc.SignIn(ctx, lookup)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Empty(t, f.events.Events())
				return
			}

			require.NoError(t, err)
			assert.True(t, user.LoggedIn)
			require.NotNil(t, user.LastLogin)
			assert.True(t, baseTime.Equal(*user.LastLogin))

			stored := testutil.ReloadUser(t, f.db, user.UserID)
			assert.True(t, stored.LoggedIn)
			require.NotNil(t, stored.LastLogin)
			assert.True(t, baseTime.Equal(*stored.LastLogin))
			assert.Zero(t, testutil.CountRecords(t, f.db, user.UserID), "sign-in must not write a record")

			events := f.events.Events()
			require.Len(t, events, 1)
			assert.Equal(t, domain.EventSignedIn, events[0].Type)
			assert.Equal(t, user.UserID, *events[0].UserID)
		})
	}
}

func TestAttendanceService_SignIn_AlreadySignedInLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime))
	started := baseTime.Add(-2 * time.Hour)
	u := testutil.NewUserBuilder().WithHours(3).SignedInAt(started).Build(t, f.db)

	_, err := f.svc.SignIn(ctx, domain.UserLookup{RFIDKey: u.RFIDKey})
	require.ErrorIs(t, err, domain.ErrAlreadySignedIn)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	stored := testutil.ReloadUser(t, f.db, u.UserID)
	assert.True(t, stored.LoggedIn)
	assert.True(t, started.Equal(*stored.LastLogin))
	testutil.AssertHours(t, 3, stored.Hours)
}

func TestAttendanceService_SignOut_AccruesHoursAndRecordsSession(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime, baseTime.Add(time.Hour)))
	u := testutil.NewUserBuilder().WithName("A").WithRFIDKey("A-CARD").WithHours(10).Build(t, f.db)

	_, err := f.svc.SignIn(ctx, domain.UserLookup{RFIDKey: "A-CARD"})
	require.NoError(t, err)

	user, record, err := f.svc.SignOut(ctx, domain.UserLookup{RFIDKey: "A-CARD"})
	require.NoError(t, err)

	assert.False(t, user.LoggedIn)
	testutil.AssertHours(t, 11.0, user.Hours)
	assert.True(t, baseTime.Equal(record.StartTime))
	assert.True(t, baseTime.Add(time.Hour).Equal(record.EndTime))
	assert.Equal(t, time.Hour, record.Duration())

	stored := testutil.ReloadUser(t, f.db, u.UserID)
	assert.False(t, stored.LoggedIn)
	testutil.AssertHours(t, 11.0, stored.Hours)
	require.NotNil(t, stored.LastLogout)
	assert.True(t, baseTime.Add(time.Hour).Equal(*stored.LastLogout))
	assert.Equal(t, int64(1), testutil.CountRecords(t, f.db, u.UserID))

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventSignedIn, events[0].Type)
	assert.Equal(t, domain.EventSignedOut, events[1].Type)
}

func TestAttendanceService_SignOut_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		lookup  func(u *domain.User) domain.UserLookup
		wantErr error
	}{
		{
			name:    "not signed in",
			lookup:  func(u *domain.User) domain.UserLookup { return domain.UserLookup{UserID: u.UserID.String()} },
			wantErr: domain.ErrNotSignedIn,
		},
		{
			name:    "unknown user",
			lookup:  func(u *domain.User) domain.UserLookup { return domain.UserLookup{RFIDKey: "missing"} },
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "missing identifier",
			lookup:  func(u *domain.User) domain.UserLookup { return domain.UserLookup{} },
			wantErr: domain.ErrMissingIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttendanceFixture(t, newFakeClock(baseTime))
			u := testutil.NewUserBuilder().WithHours(4).Build(t, f.db)

			_, _, err := f.svc.SignOut(ctx, tt.lookup(u))
			require.ErrorIs(t, err, tt.wantErr)

			stored := testutil.ReloadUser(t, f.db, u.UserID)
			testutil.AssertHours(t, 4, stored.Hours)
			assert.Nil(t, stored.LastLogout)
			assert.Zero(t, testutil.CountRecords(t, f.db, u.UserID))
			assert.Empty(t, f.events.Events())
		})
	}
}

func TestAttendanceService_AlternationProducesOneRecordPerSession(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(
		baseTime,
		baseTime.Add(30*time.Minute),
		baseTime.Add(time.Hour),
		baseTime.Add(2*time.Hour),
	)
	f := newAttendanceFixture(t, clock)
	u := testutil.NewUserBuilder().Build(t, f.db)
	lookup := domain.UserLookup{UserID: u.UserID.String()}

	_, err := f.svc.SignIn(ctx, lookup)
	require.NoError(t, err)
	_, err = f.svc.SignIn(ctx, lookup)
	require.ErrorIs(t, err, domain.ErrAlreadySignedIn)

	_, _, err = f.svc.SignOut(ctx, lookup)
	require.NoError(t, err)
	_, _, err = f.svc.SignOut(ctx, lookup)
	require.ErrorIs(t, err, domain.ErrNotSignedIn)

	_, err = f.svc.SignIn(ctx, lookup)
	require.NoError(t, err)
	_, _, err = f.svc.SignOut(ctx, lookup)
	require.NoError(t, err)

	assert.Equal(t, int64(2), testutil.CountRecords(t, f.db, u.UserID))
	stored := testutil.ReloadUser(t, f.db, u.UserID)
	testutil.AssertHours(t, 1.5, stored.Hours)
}

func TestAttendanceService_SignOut_ClockBehindStartAccruesNothing(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime.Add(-time.Hour)))
	u := testutil.NewUserBuilder().WithHours(2).SignedInAt(baseTime).Build(t, f.db)

	user, record, err := f.svc.SignOut(ctx, domain.UserLookup{RFIDKey: u.RFIDKey})
	require.NoError(t, err)

	testutil.AssertHours(t, 2, user.Hours)
	assert.Equal(t, time.Duration(0), record.Duration())
}

func TestAttendanceService_SignOut_RollsBackWhenRecordInsertFails(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime))
	started := baseTime.Add(-time.Hour)
	u := testutil.NewUserBuilder().WithHours(5).SignedInAt(started).Build(t, f.db)

	require.NoError(t, f.db.Migrator().DropTable(&domain.Record{}))

	_, _, err := f.svc.SignOut(ctx, domain.UserLookup{RFIDKey: u.RFIDKey})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)

	stored := testutil.ReloadUser(t, f.db, u.UserID)
	assert.True(t, stored.LoggedIn, "sign-out must roll back")
	assert.Nil(t, stored.LastLogout)
	testutil.AssertHours(t, 5, stored.Hours)
	assert.Empty(t, f.events.Events())
}

func TestAttendanceService_SignOutAll(t *testing.T) {
	ctx := context.Background()
	end := baseTime.Add(3 * time.Hour)
	f := newAttendanceFixture(t, newFakeClock(end))

	a := testutil.NewUserBuilder().WithHours(1).SignedInAt(baseTime).Build(t, f.db)
	b := testutil.NewUserBuilder().SignedInAt(baseTime.Add(time.Hour)).Build(t, f.db)
	c := testutil.NewUserBuilder().WithHours(7).Build(t, f.db)

	count, err := f.svc.SignOutAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	storedA := testutil.ReloadUser(t, f.db, a.UserID)
	storedB := testutil.ReloadUser(t, f.db, b.UserID)
	storedC := testutil.ReloadUser(t, f.db, c.UserID)

	assert.False(t, storedA.LoggedIn)
	assert.False(t, storedB.LoggedIn)
	testutil.AssertHours(t, 4, storedA.Hours)
	testutil.AssertHours(t, 2, storedB.Hours)
	testutil.AssertHours(t, 7, storedC.Hours)
	assert.True(t, end.Equal(*storedA.LastLogout))
	assert.True(t, end.Equal(*storedB.LastLogout))
	assert.Nil(t, storedC.LastLogout)

	assert.Equal(t, int64(1), testutil.CountRecords(t, f.db, a.UserID))
	assert.Equal(t, int64(1), testutil.CountRecords(t, f.db, b.UserID))
	assert.Zero(t, testutil.CountRecords(t, f.db, c.UserID))

	records, err := f.repos.Record.List(ctx, domain.RecordFilter{})
	require.NoError(t, err)
	for _, r := range records {
		assert.True(t, end.Equal(r.EndTime), "bulk sign-out shares one end time")
	}

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventSignedOutAll, events[0].Type)
	assert.Equal(t, 2, events[0].Count)

	// nobody is left signed in
	count, err = f.svc.SignOutAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, f.events.Events(), 1)
}

func TestAttendanceService_SignOutAll_EmptyLedger(t *testing.T) {
	f := newAttendanceFixture(t, nil)

	count, err := f.svc.SignOutAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	records, err := f.repos.Record.List(context.Background(), domain.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAttendanceService_SignOutAll_RollsBackAsAUnit(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime.Add(time.Hour)))
	a := testutil.NewUserBuilder().SignedInAt(baseTime).Build(t, f.db)
	b := testutil.NewUserBuilder().SignedInAt(baseTime).Build(t, f.db)

	require.NoError(t, f.db.Migrator().DropTable(&domain.Record{}))

	_, err := f.svc.SignOutAll(ctx)
	require.ErrorIs(t, err, domain.ErrStoreFailure)

	for _, id := range []*domain.User{a, b} {
		stored := testutil.ReloadUser(t, f.db, id.UserID)
		assert.True(t, stored.LoggedIn)
		testutil.AssertHours(t, 0, stored.Hours)
	}
}

func TestAttendanceService_ConcurrentSignOutAccruesOnce(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(t, newFakeClock(baseTime.Add(time.Hour)))
	u := testutil.NewUserBuilder().SignedInAt(baseTime).Build(t, f.db)

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.SignOut(ctx, domain.UserLookup{UserID: u.UserID.String()})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrNotSignedIn)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), testutil.CountRecords(t, f.db, u.UserID))
	testutil.AssertHours(t, 1, testutil.ReloadUser(t, f.db, u.UserID).Hours)
}
