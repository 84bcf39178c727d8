package credits

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
)

var (
	// ErrInsufficientCredits is returned when the balance is already zero.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrUserNotFound is returned when the user row does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Ledger meters generation credits against the user row.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Reserve deducts one credit and returns the remaining balance. The
// deduction is a single conditional UPDATE so concurrent requests can
// never drive the balance negative.
func (l *Ledger) Reserve(userID string) (int, error) {
	res := l.db.Model(&models.UserModel{}).
		Where("id = ? AND credits > 0", userID).
		Update("credits", gorm.Expr("credits - 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("reserve credit: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var user models.UserModel
		err := l.db.Select("credits").First(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("reserve credit: %w", err)
		}
		return 0, ErrInsufficientCredits
	}

	var user models.UserModel
	if err := l.db.Select("credits").First(&user, "id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("reserve credit: %w", err)
	}
	return user.Credits, nil
}

// Refund returns one previously reserved credit.
func (l *Ledger) Refund(userID string) error {
	res := l.db.Model(&models.UserModel{}).
		Where("id = ?", userID).
		Update("credits", gorm.Expr("credits + 1"))
	if res.Error != nil {
		return fmt.Errorf("refund credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Settle finalizes a reservation. A successful outcome keeps the deduction;
// a failed one refunds it. Refund failures are logged, not propagated, so
// the caller's own error stays the one the client sees.
func (l *Ledger) Settle(userID string, ok bool) {
	if ok {
		return
	}
	if err := l.Refund(userID); err != nil {
		l.logger.Error("credit refund failed",
			zap.String("userId", userID),
			zap.Error(err))
	}
}

// Balance reads the current credit balance.
func (l *Ledger) Balance(userID string) (int, error) {
	var user models.UserModel
	err := l.db.Select("credits").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return user.Credits, nil
}
