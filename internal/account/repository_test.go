// AngelaMos | 2026
// repository_test.go

package account

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/subscription"
)

func newRepoWithMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var accountCols = []string{
	"id", "email", "full_name", "phone_number", "country_code", "password_hash", "role",
	"login_attempts", "last_login_attempt", "last_login_date", "last_login_ip",
	"last_login_country", "account_locked", "lock_until", "password_reset_token",
	"password_reset_expires", "plan", "subscription_status", "questions_remaining",
	"is_free_trial_user", "subscription_start", "subscription_end", "payment_method",
	"created_at", "updated_at",
}

func accountRow(id, email string, locked bool, lockUntil *time.Time) []driver.Value {
	var until driver.Value
	if lockUntil != nil {
		until = *lockUntil
	}
	return []driver.Value{
		id, email, "Ada Lovelace", "", "+1", "hash", RoleUser,
		0, nil, nil, "",
		"", locked, until, nil,
		nil, subscription.PlanBasic, subscription.StatusActive, 50,
		false, fixedNow, fixedNow.AddDate(0, 0, 30), "credit",
		fixedNow, fixedNow,
	}
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.Create(context.Background(), &Account{ID: "acc-1", Email: "ada@example.com"})
	require.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts.*RETURNING created_at, updated_at`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedNow, fixedNow))

	a := &Account{ID: "acc-1", Email: "ada@example.com"}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, fixedNow, a.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByEmailCaseInsensitive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+accounts\s+WHERE\s+lower\(email\) = lower\(\$1\)`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(accountRow("acc-1", "ada@example.com", false, nil)...))

	a, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", a.ID)
	assert.Equal(t, 50, a.QuestionsRemaining)
	assert.Equal(t, LockActive, a.LockState(fixedNow))
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM\s+accounts\s+WHERE\s+id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(accountCols))

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositorySetSuspension(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)UPDATE\s+accounts\s+SET\s+account_locked = \$2,\s+lock_until = NULL`).
		WithArgs("acc-1", true).
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(accountRow("acc-1", "ada@example.com", true, nil)...))

	a, err := repo.SetSuspension(context.Background(), "acc-1", true)
	require.NoError(t, err)
	assert.Equal(t, LockSuspended, a.LockState(fixedNow))
}

func TestRepositoryListWithTimeframe(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := fixedNow.AddDate(0, 0, -7)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE \(created_at >= \$1 AND plan = \$2\)`).
		WithArgs(since, subscription.PlanBasic).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT id, email.*FROM accounts WHERE \(created_at >= \$1 AND plan = \$2\) ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(since, subscription.PlanBasic).
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(accountRow("acc-1", "ada@example.com", false, nil)...))

	accounts, total, err := repo.List(context.Background(), ListFilter{
		Since: since,
		Plan:  subscription.PlanBasic,
		Limit: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, accounts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySummary(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "free_trial", "locked"}).AddRow(5, 2, 1))
	mock.ExpectQuery(`(?s)SELECT plan, COUNT\(\*\) AS count\s+FROM accounts\s+GROUP BY plan`).
		WillReturnRows(sqlmock.NewRows([]string{"plan", "count"}).
			AddRow(subscription.PlanBasic, 3).
			AddRow(subscription.PlanPremium, 2))

	s, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.FreeTrialUsers)
	assert.Equal(t, 1, s.LockedAccounts)
	assert.Equal(t, map[string]int{subscription.PlanBasic: 3, subscription.PlanPremium: 2}, s.PlanDistribution)
}
