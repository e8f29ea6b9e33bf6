package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"autoservice-dashboard/internal/model"
)

// SessionName is the key of the persisted session row.
const SessionName = "auth-storage"

// SessionRepository persists the signed-in session in a single row.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the session row.
func (r *SessionRepository) Save(token string, user *model.User) error {
	rec := model.SessionRecord{Name: SessionName, Token: token}
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		rec.UserJSON = string(raw)
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "user_json", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session. A missing row yields an empty token and no error.
func (r *SessionRepository) Load() (string, *model.User, error) {
	var rec model.SessionRecord
	err := r.db.First(&rec, "name = ?", SessionName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load session: %w", err)
	}

	if rec.UserJSON == "" {
		return rec.Token, nil, nil
	}
	var user model.User
	if err := json.Unmarshal([]byte(rec.UserJSON), &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode persisted user: %w", err)
	}
	return rec.Token, &user, nil
}

// Clear deletes the session row.
func (r *SessionRepository) Clear() error {
	if err := r.db.Delete(&model.SessionRecord{Name: SessionName}).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
