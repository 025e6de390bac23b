// Package models defines the persisted entities of the school organizer.
package models

import "time"

// Homework is a homework item captured through the add-homework flow.
// After creation only Done may change, and only false→true.
type Homework struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	UserID    int64      `gorm:"not null;index"`
	Subject   string     `gorm:"size:100;not null"`
	Task      string     `gorm:"size:500;not null"`
	Deadline  *time.Time // nil means no deadline
	Done      bool       `gorm:"default:false;index"`
	CreatedAt time.Time
}

// ScheduleEvent is a dated school event (exam, test, lab, ...).
// All fields are set once at creation; there is no edit operation.
type ScheduleEvent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"not null;index"`
	Subject     string    `gorm:"size:100;not null"`
	EventType   string    `gorm:"size:50;not null"`
	EventDate   time.Time `gorm:"not null;index"`
	Description string    `gorm:"size:300"` // empty means no description was given
	CreatedAt   time.Time
}

// Subjects is the closed list of school subjects. User input is matched
// against it verbatim; it is not extensible at runtime.
var Subjects = []string{
	"Математика",
	"Русский язык",
	"Биология",
	"География",
	"История",
	"Обществознание",
	"Физика",
	"Химия",
}

// EventTypes is the closed list of schedule event types.
var EventTypes = []string{
	"Контрольная работа",
	"Самостоятельная работа",
	"Лабораторная",
	"Экзамен",
}

// ValidSubject reports whether s is one of the enumerated subjects.
func ValidSubject(s string) bool {
	for _, subj := range Subjects {
		if s == subj {
			return true
		}
	}
	return false
}

// ValidEventType reports whether s is one of the enumerated event types.
func ValidEventType(s string) bool {
	for _, et := range EventTypes {
		if s == et {
			return true
		}
	}
	return false
}
