package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/fca/internal/database"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/builder"
)

func newMock(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return database.Wrap(sqlx.NewDb(raw, "sqlmock"), 0), mock
}

func day(s string) time.Time {
	d, _ := model.ParseDate(s)
	return d
}

func TestPairingRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPairingRepository(db)

	start := day("2024-03-01").Add(14 * time.Hour)
	rows := sqlmock.NewRows([]string{"idx", "d1", "d2", "mult", "dtime", "mlegs", "nlayovers", "base_start", "charter", "pstart", "pend", "shour"}).
		AddRow("P1", day("2024-03-01"), day("2024-03-02"), 2, 36000, 4, 1, "BUR", false, start, start.Add(30*time.Hour), 6.5).
		AddRow("R1", day("2024-03-03"), nil, 1, 10000, 1, 0, "BUR", false, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pairings WHERE seat = $1 AND base_start = ANY($2) AND d1 >= $3 AND d1 <= $4 ORDER BY d1, idx")).
		WithArgs("CA", sqlmock.AnyArg(), "2024-03-01", "2024-03-31").
		WillReturnRows(rows)

	filter := ListFilter{}.WithSeat("CA").WithBases("BUR").WithDateRange("2024-03-01", "2024-03-31")
	pairings, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	assert.Equal(t, "P1", pairings[0].ID)
	assert.Equal(t, 2, pairings[0].Span())
	assert.Equal(t, 6.5, pairings[0].StartHour)
	assert.Equal(t, start, pairings[0].Start)

	assert.True(t, pairings[1].IsReserve())
	assert.True(t, pairings[1].D2.IsZero())
	assert.Equal(t, 1, pairings[1].Span())
	assert.Equal(t, -1.0, pairings[1].StartHour)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPairingRepository_ListNoFilter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pairings ORDER BY d1, idx")).
		WillReturnError(assert.AnError)

	_, err := NewPairingRepository(db).List(context.Background(), ListFilter{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrewRepository_ListRecords(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"name", "base", "to_base", "non_tdy_days_worked", "five_day_tdy", "six_day_tdy"}).
		AddRow("A", "BUR", "", 12, false, false).
		AddRow("B", "DAL", "BUR", 0, true, false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM crew_records WHERE seat = $1 AND (base = ANY($2) OR to_base = ANY($2)) ORDER BY name")).
		WithArgs("CA", sqlmock.AnyArg()).
		WillReturnRows(rows)

	recs, err := NewCrewRepository(db).ListRecords(context.Background(), ListFilter{}.WithSeat("CA").WithBases("BUR"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 12, recs[0].NonTDYDaysWorked)

	days, tdy := model.RequiredDaysFor(recs[1], "BUR", model.DefaultTDYRule())
	assert.Equal(t, 5, days)
	assert.True(t, tdy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrewRepository_ListPreferences(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{
		"user_name", "user_email", "user_base", "user_role", "user_seniority",
		"overnight_preference", "time_period_preference", "reserve_preference",
		"preferred_days_off", "vacation_days", "work_restriction_days", "training_days",
	}).AddRow("A", "", "BUR", "CA", 3, "Some", "Early", "Prefer", "['2024-03-02']", "", "", "")
	mock.ExpectQuery("FROM bid_preferences ORDER BY user_seniority DESC").WillReturnRows(rows)

	prefs, err := NewCrewRepository(db).ListPreferences(context.Background())
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "Prefer", prefs[0].ReservePreference)
	assert.Equal(t, 3, prefs[0].UserSeniority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func testResult() *builder.Result {
	return &builder.Result{
		RunID:     "run-1",
		Base:      "BUR",
		Seat:      "CA",
		Objective: 12.5,
		Crew:      []*model.CrewMember{{Name: "A"}, {Name: "B"}},
		Pairings:  []*model.Pairing{{ID: "P1"}, {ID: "P2"}, {ID: "P3"}},
		Assignment: [][]bool{
			{true, false, true},
			{false, true, false},
		},
	}
}

func TestRunRepository_WriteStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRunRepository(db)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec("INSERT INTO fca_runs").
		WithArgs("BUR", "CA", "running", fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.WriteStatus("BUR", "CA", "running"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_WriteResult(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM fca_assignments").WithArgs("BUR", "CA").WillReturnResult(sqlmock.NewResult(0, 3))
	for _, a := range [][2]string{{"A", "P1"}, {"A", "P3"}, {"B", "P2"}} {
		mock.ExpectExec("INSERT INTO fca_assignments").
			WithArgs("run-1", "BUR", "CA", a[0], a[1]).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("UPDATE fca_runs").
		WithArgs("BUR", "CA", "run-1", 12.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.WriteResult(testResult()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_WriteResultRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM fca_assignments").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := NewRunRepository(db).WriteResult(testResult())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_Latest(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fca_runs WHERE base = $1 AND seat = $2")).
		WithArgs("BUR", "CA").
		WillReturnRows(sqlmock.NewRows([]string{"base", "seat", "run_id", "status", "objective", "updated_at"}).
			AddRow("BUR", "CA", "run-1", "optimal", 12.5, now))

	rec, err := NewRunRepository(db).Latest(context.Background(), "BUR", "CA")
	require.NoError(t, err)
	assert.Equal(t, "optimal", rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
