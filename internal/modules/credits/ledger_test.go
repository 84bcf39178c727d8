package credits

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/summate/core/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// SQLite serializes writers; a single connection avoids busy errors
	// under the concurrent reserve test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.UserModel{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM users")
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, credits int) *models.UserModel {
	t.Helper()
	user := &models.UserModel{
		UserName: "tester-" + t.Name(),
		Email:    t.Name() + "@example.com",
		Password: "irrelevant",
		Credits:  credits,
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestReserveDecrementsBalance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 5)
	ledger := NewLedger(db, zap.NewNop())

	remaining, err := ledger.Reserve(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)

	balance, err := ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, balance)
}

func TestReserveAtZero(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 0)
	ledger := NewLedger(db, zap.NewNop())

	_, err := ledger.Reserve(user.ID)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// Balance must be untouched.
	balance, err := ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestReserveUnknownUser(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db, zap.NewNop())

	_, err := ledger.Reserve("no-such-id")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefundRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 3)
	ledger := NewLedger(db, zap.NewNop())

	_, err := ledger.Reserve(user.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.Refund(user.ID))

	balance, err := ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestSettleFailureRefunds(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 2)
	ledger := NewLedger(db, zap.NewNop())

	_, err := ledger.Reserve(user.ID)
	require.NoError(t, err)

	ledger.Settle(user.ID, false)
	balance, err := ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, balance)

	_, err = ledger.Reserve(user.ID)
	require.NoError(t, err)
	ledger.Settle(user.ID, true)
	balance, err = ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}

func TestReserveNeverOverdraws(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 3)
	ledger := NewLedger(db, zap.NewNop())

	const workers = 10
	var wg sync.WaitGroup
	granted := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Reserve(user.ID); err == nil {
				granted <- 1
			}
		}()
	}
	wg.Wait()
	close(granted)

	total := 0
	for n := range granted {
		total += n
	}
	assert.Equal(t, 3, total, "exactly the available credits may be granted")

	balance, err := ledger.Balance(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
