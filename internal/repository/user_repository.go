package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ZerkerEOD/appserver/internal/db"
	"github.com/ZerkerEOD/appserver/internal/db/queries"
	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/pkg/debug"
)

// UserRepository handles database operations for users and their
// notification preferences
type UserRepository struct {
	db *db.DB
	// writeMu serializes writers across pooled connections
	writeMu sync.Mutex
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *db.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUser retrieves a user by UUID
func (r *UserRepository) GetUser(ctx context.Context, uuid string) (*models.User, error) {
	return r.getUser(ctx, queries.GetUserByUUID, uuid)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, queries.GetUserByEmail, strings.TrimSpace(email))
}

func (r *UserRepository) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UUID,
		&user.Name,
		&user.Email,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, arg)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetPreference returns the notification preference for a user. Users
// without a stored row get the default preference.
func (r *UserRepository) GetPreference(ctx context.Context, uuid string) (*models.NotificationPreference, error) {
	pref := &models.NotificationPreference{}

	err := r.db.QueryRowContext(ctx, queries.GetNotificationPreference, uuid).Scan(
		&pref.UserUUID,
		&pref.EmailEnabled,
		&pref.HTMLEmail,
		&pref.PushEnabled,
		&pref.Language,
	)

	if err == sql.ErrNoRows {
		debug.Debug("No notification preference stored for %s, using defaults", uuid)
		return models.DefaultNotificationPreference(uuid), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get notification preference: %w", err)
	}

	if strings.TrimSpace(pref.Language) == "" {
		pref.Language = models.DefaultLanguage
	}

	return pref, nil
}

// Upsert inserts or replaces a user and its notification preference in a
// single transaction. Either both rows are written or neither is.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User, pref *models.NotificationPreference) error {
	if user == nil || user.UUID == "" {
		return fmt.Errorf("%w: user uuid is required", ErrPersistence)
	}
	if pref == nil {
		pref = models.DefaultNotificationPreference(user.UUID)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, queries.UpsertUser, user.UUID, user.Name, user.Email); err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}
		return upsertPreference(ctx, tx, user.UUID, pref)
	})
	if err != nil {
		return persistenceError(err)
	}

	debug.Info("Upserted user %s", user.UUID)
	return nil
}

// UpdatePreference stores new notification settings for an existing user
func (r *UserRepository) UpdatePreference(ctx context.Context, pref *models.NotificationPreference) error {
	if pref == nil || pref.UserUUID == "" {
		return fmt.Errorf("%w: user uuid is required", ErrPersistence)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists string
		err := tx.QueryRowContext(ctx, queries.GetUserByUUID, pref.UserUUID).Scan(&exists, new(string), new(string))
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %s", ErrNotFound, pref.UserUUID)
		} else if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		return upsertPreference(ctx, tx, pref.UserUUID, pref)
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return persistenceError(err)
	}

	return nil
}

func upsertPreference(ctx context.Context, tx *sql.Tx, uuid string, pref *models.NotificationPreference) error {
	language := strings.TrimSpace(pref.Language)
	if language == "" {
		language = models.DefaultLanguage
	}

	_, err := tx.ExecContext(ctx, queries.UpsertNotificationPreference,
		uuid,
		pref.EmailEnabled,
		pref.HTMLEmail,
		pref.PushEnabled,
		language,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert notification preference: %w", err)
	}
	return nil
}

func persistenceError(err error) error {
	debug.Error("Write failed: %v", err)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w: %v", ErrPersistence, ErrDuplicateRecord, err)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
