// Package store provides the record-store operations for homework and
// schedule events.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/kosten114/schoolbot/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store wraps a GORM connection with the bot's persistence operations.
// Inserts are single-row writes; GORM either commits the row or returns
// an error, so no partial record is ever visible.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

// HomeworkFilters holds optional filters for listing homework.
type HomeworkFilters struct {
	Done *bool // nil means both done and outstanding
}

// InsertHomework persists a new homework record and returns its id.
func (s *Store) InsertHomework(hw *models.Homework) (uint, error) {
	if err := s.db.Create(hw).Error; err != nil {
		return 0, fmt.Errorf("store: insert homework: %w", err)
	}
	return hw.ID, nil
}

// InsertEvent persists a new schedule event and returns its id.
func (s *Store) InsertEvent(ev *models.ScheduleEvent) (uint, error) {
	if err := s.db.Create(ev).Error; err != nil {
		return 0, fmt.Errorf("store: insert event: %w", err)
	}
	return ev.ID, nil
}

// MarkHomeworkDone flips a homework record to done. Returns false if the
// id does not exist. Marking an already-done record again is a no-op and
// still reports true.
func (s *Store) MarkHomeworkDone(id uint) (bool, error) {
	var hw models.Homework
	if err := s.db.First(&hw, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("store: mark done %d: %w", id, err)
	}
	if hw.Done {
		return true, nil
	}
	if err := s.db.Model(&hw).Update("done", true).Error; err != nil {
		return false, fmt.Errorf("store: mark done %d: %w", id, err)
	}
	return true, nil
}

// QueryHomework returns an owner's homework. Ordering: dated items first
// by deadline ascending, undated items last, ties broken by creation
// time ascending. The listing and completion-selection flows both depend
// on this exact order.
func (s *Store) QueryHomework(ownerID int64, filters HomeworkFilters) ([]models.Homework, error) {
	q := s.db.Where("user_id = ?", ownerID)
	if filters.Done != nil {
		q = q.Where("done = ?", *filters.Done)
	}
	var hws []models.Homework
	if err := q.Order("deadline IS NULL, deadline, created_at").Find(&hws).Error; err != nil {
		return nil, fmt.Errorf("store: query homework: %w", err)
	}
	return hws, nil
}

// QueryEvents returns an owner's schedule events with event dates inside
// [from, to], ordered by event date ascending.
func (s *Store) QueryEvents(ownerID int64, from, to time.Time) ([]models.ScheduleEvent, error) {
	var evs []models.ScheduleEvent
	err := s.db.Where("user_id = ? AND event_date >= ? AND event_date <= ?", ownerID, from, to).
		Order("event_date").Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	return evs, nil
}

// EventsInWindow returns all events (any owner) with event dates inside
// [from, to], ordered by event date ascending. The reminder scheduler
// scans with this.
func (s *Store) EventsInWindow(from, to time.Time) ([]models.ScheduleEvent, error) {
	var evs []models.ScheduleEvent
	err := s.db.Where("event_date >= ? AND event_date <= ?", from, to).
		Order("event_date").Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("store: events in window: %w", err)
	}
	return evs, nil
}

// CountHomework returns how many homework records an owner has.
func (s *Store) CountHomework(ownerID int64) (int64, error) {
	var count int64
	err := s.db.Model(&models.Homework{}).Where("user_id = ?", ownerID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("store: count homework: %w", err)
	}
	return count, nil
}

// CountEvents returns how many schedule events an owner has.
func (s *Store) CountEvents(ownerID int64) (int64, error) {
	var count int64
	err := s.db.Model(&models.ScheduleEvent{}).Where("user_id = ?", ownerID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("store: count events: %w", err)
	}
	return count, nil
}

// RecentHomework returns the n most recently created homework records.
func (s *Store) RecentHomework(ownerID int64, n int) ([]models.Homework, error) {
	var hws []models.Homework
	err := s.db.Where("user_id = ?", ownerID).
		Order("created_at DESC").Limit(n).Find(&hws).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent homework: %w", err)
	}
	return hws, nil
}

// RecentEvents returns the n most recently created schedule events.
func (s *Store) RecentEvents(ownerID int64, n int) ([]models.ScheduleEvent, error) {
	var evs []models.ScheduleEvent
	err := s.db.Where("user_id = ?", ownerID).
		Order("created_at DESC").Limit(n).Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent events: %w", err)
	}
	return evs, nil
}
