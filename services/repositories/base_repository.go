package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/shared"
)

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}

// wrapDBError translates storage errors into the engine's error taxonomy.
// Duplicate-key detection covers both the gorm sentinel and the raw driver
// strings postgres and sqlite produce.
func wrapDBError(err error, message string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(err, message)
	case isDuplicateKeyError(err):
		return shared.NewConflictError(err, message)
	default:
		return shared.NewUnavailableError(err, message)
	}
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
