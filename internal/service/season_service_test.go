package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/rfid-attendance/internal/domain"
	"github.com/dom/rfid-attendance/internal/repository/gormstore"
	"github.com/dom/rfid-attendance/internal/service"
	"github.com/dom/rfid-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSeasonService(t *testing.T) (*service.SeasonService, *gorm.DB, *recordingPublisher) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := &recordingPublisher{}
	return service.NewSeasonService(gormstore.NewRepositories(db), events, zap.NewNop()), db, events
}

func TestSeasonService_CreateSeason(t *testing.T) {
	ctx := context.Background()
	svc, db, events := newSeasonService(t)

	a := testutil.NewUserBuilder().WithName("A").WithHours(11).Build(t, db)
	b := testutil.NewUserBuilder().WithName("B").WithHours(5).SignedInAt(baseTime).Build(t, db)

	result, err := svc.CreateSeason(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", result.SeasonStartDate)
	assert.Equal(t, 2, result.Users)

	rows, err := svc.GetSeason(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, a.UserID, rows[0].UserID)
	assert.Equal(t, "A", rows[0].Name)
	testutil.AssertHours(t, 11, rows[0].Hours)
	assert.Equal(t, b.UserID, rows[1].UserID)
	testutil.AssertHours(t, 5, rows[1].Hours)

	storedA := testutil.ReloadUser(t, db, a.UserID)
	storedB := testutil.ReloadUser(t, db, b.UserID)
	testutil.AssertHours(t, 0, storedA.Hours)
	testutil.AssertHours(t, 0, storedB.Hours)
	assert.True(t, storedB.LoggedIn, "archiving leaves sessions alone")
	assert.True(t, baseTime.Equal(*storedB.LastLogin))

	require.Len(t, events.Events(), 1)
	assert.Equal(t, domain.EventSeasonCreated, events.Events()[0].Type)
	assert.Equal(t, "2024-01-01", events.Events()[0].SeasonStartDate)
}

func TestSeasonService_CreateSeason_DuplicateDateIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newSeasonService(t)
	u := testutil.NewUserBuilder().WithHours(8).Build(t, db)

	_, err := svc.CreateSeason(ctx, "2024-01-01")
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.User{}).Where("user_id = ?", u.UserID).Update("hours", 3).Error)

	_, err = svc.CreateSeason(ctx, "2024-01-01")
	require.ErrorIs(t, err, domain.ErrSeasonExists)

	rows, err := svc.GetSeason(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	testutil.AssertHours(t, 8, rows[0].Hours)
	testutil.AssertHours(t, 3, testutil.ReloadUser(t, db, u.UserID).Hours)
}

func TestSeasonService_CreateSeason_Validation(t *testing.T) {
	svc, db, events := newSeasonService(t)
	u := testutil.NewUserBuilder().WithHours(2).Build(t, db)

	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{name: "missing date", date: "", wantErr: domain.ErrMissingSeasonDate},
		{name: "wrong layout", date: "01/02/2024", wantErr: domain.ErrInvalidSeasonDate},
		{name: "impossible date", date: "2024-02-30", wantErr: domain.ErrInvalidSeasonDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSeason(context.Background(), tt.date)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	testutil.AssertHours(t, 2, testutil.ReloadUser(t, db, u.UserID).Hours)
	assert.Empty(t, events.Events())
}

func TestSeasonService_CreateSeason_NoUsers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newSeasonService(t)

	result, err := svc.CreateSeason(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Zero(t, result.Users)

	seasons, err := svc.ListSeasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}

func TestSeasonService_CreateSeason_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newSeasonService(t)
	u := testutil.NewUserBuilder().WithHours(6).Build(t, db)

	require.NoError(t, db.Migrator().DropTable(&domain.PastSeason{}))

	_, err := svc.CreateSeason(ctx, "2024-01-01")
	require.ErrorIs(t, err, domain.ErrStoreFailure)
	testutil.AssertHours(t, 6, testutil.ReloadUser(t, db, u.UserID).Hours)
}

func TestSeasonService_ListSeasons(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newSeasonService(t)
	testutil.NewUserBuilder().WithHours(1).Build(t, db)
	testutil.NewUserBuilder().WithHours(2).Build(t, db)

	for _, date := range []string{"2023-09-01", "2024-09-01", "2024-01-15"} {
		_, err := svc.CreateSeason(ctx, date)
		require.NoError(t, err)
	}

	seasons, err := svc.ListSeasons(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-09-01", "2024-01-15", "2023-09-01"}, seasons)
}

func TestSeasonService_GetSeason_UnknownDateIsEmpty(t *testing.T) {
	svc, _, _ := newSeasonService(t)

	rows, err := svc.GetSeason(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = svc.GetSeason(context.Background(), "yesterday")
	assert.ErrorIs(t, err, domain.ErrInvalidSeasonDate)
}

func TestSeasonService_CreateSeason_AfterSignOutArchivesAccruedHours(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repos := gormstore.NewRepositories(db)
	attendance := service.NewAttendanceService(repos, nil, zap.NewNop()).
		WithClock(newFakeClock(baseTime, baseTime.Add(90*time.Minute)).Now)
	seasons := service.NewSeasonService(repos, nil, zap.NewNop())

	u := testutil.NewUserBuilder().WithHours(1).Build(t, db)
	lookup := domain.UserLookup{RFIDKey: u.RFIDKey}
	_, err := attendance.SignIn(ctx, lookup)
	require.NoError(t, err)
	_, _, err = attendance.SignOut(ctx, lookup)
	require.NoError(t, err)

	_, err = seasons.CreateSeason(ctx, "2024-03-02")
	require.NoError(t, err)

	rows, err := seasons.GetSeason(ctx, "2024-03-02")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	testutil.AssertHours(t, 2.5, rows[0].Hours)
	testutil.AssertHours(t, 0, testutil.ReloadUser(t, db, u.UserID).Hours)
}
