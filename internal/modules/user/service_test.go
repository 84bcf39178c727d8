package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/summate/core/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserModel{}))
	return NewService(db, zap.NewNop()), db
}

func seed(t *testing.T, db *gorm.DB, name, role, status string, lastLogin *time.Time) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		UserName:  name,
		Email:     name + "@example.com",
		Password:  "irrelevant",
		Credits:   models.DefaultCredits,
		Role:      role,
		Status:    status,
		LastLogin: lastLogin,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestListExcludesAdmins(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, "alice", models.RoleUser, models.StatusActive, nil)
	seed(t, db, "boss", models.RoleAdmin, models.StatusActive, nil)
	seed(t, db, "carol", models.RoleEditor, models.StatusActive, nil)

	users, err := svc.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, models.RoleAdmin, u.Role)
	}
}

func TestCreateWithExplicitCredits(t *testing.T) {
	svc, _ := newTestService(t)

	credits := 42
	u, err := svc.Create(CreateInput{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "password123",
		Credits:  &credits,
		Role:     models.RoleReviewer,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, u.Credits)
	assert.Equal(t, models.RoleReviewer, u.Role)

	_, err = svc.Create(CreateInput{
		UserName: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.Create(CreateInput{
		UserName: "bob",
		Email:    "bob@example.com",
		Password: "password123",
		Role:     "superuser",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateCreditsAndRole(t *testing.T) {
	svc, db := newTestService(t)
	u := seed(t, db, "alice", models.RoleUser, models.StatusActive, nil)

	credits := 100
	role := models.RoleEditor
	updated, err := svc.Update(u.ID, UpdateInput{Credits: &credits, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Credits)
	assert.Equal(t, models.RoleEditor, updated.Role)

	negative := -1
	_, err = svc.Update(u.ID, UpdateInput{Credits: &negative})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateDuplicateIdentity(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, "alice", models.RoleUser, models.StatusActive, nil)
	bob := seed(t, db, "bob", models.RoleUser, models.StatusActive, nil)

	name := "alice"
	_, err := svc.Update(bob.ID, UpdateInput{UserName: &name})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	email := "alice@example.com"
	_, err = svc.Update(bob.ID, UpdateInput{Email: &email})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestDeleteGuards(t *testing.T) {
	svc, db := newTestService(t)
	admin := seed(t, db, "boss", models.RoleAdmin, models.StatusActive, nil)
	alice := seed(t, db, "alice", models.RoleUser, models.StatusActive, nil)

	assert.ErrorIs(t, svc.Delete(admin.ID, admin.ID), ErrSelfDelete)
	assert.ErrorIs(t, svc.Delete("no-such-id", admin.ID), ErrNotFound)
	require.NoError(t, svc.Delete(alice.ID, admin.ID))

	_, err := svc.Get(alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateInactive(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now()
	stale := now.Add(-45 * 24 * time.Hour)
	fresh := now.Add(-2 * 24 * time.Hour)

	inactive := seed(t, db, "alice", models.RoleUser, models.StatusActive, &stale)
	active := seed(t, db, "bob", models.RoleUser, models.StatusActive, &fresh)
	admin := seed(t, db, "boss", models.RoleAdmin, models.StatusActive, &stale)

	// A never-logged-in account older than the window counts as inactive.
	never := seed(t, db, "carol", models.RoleUser, models.StatusActive, nil)
	require.NoError(t, db.Model(never).Update("created_at", stale).Error)

	count, err := svc.DeactivateInactive(now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for id, want := range map[string]string{
		inactive.ID: models.StatusDeactivated,
		never.ID:    models.StatusDeactivated,
		active.ID:   models.StatusActive,
		admin.ID:    models.StatusActive,
	} {
		u, err := svc.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, u.Status)
	}
}
