package model

import (
	"strings"
	"time"

	"task-manager.com/task-manager/pkg/constants"
)

// DateLayout is the wire and storage format of Task.DueDate.
const DateLayout = "2006-01-02"

type Task struct {
	ID          uint               `gorm:"primaryKey" json:"id" yaml:"id"`
	Title       string             `gorm:"not null" json:"title" yaml:"title"`
	Description string             `gorm:"type:text" json:"description" yaml:"description"`
	Priority    constants.Priority `gorm:"type:varchar(10);not null" json:"priority" yaml:"priority"`
	Type        string             `gorm:"not null" json:"type" yaml:"type"`
	DueDate     string             `gorm:"column:duedate;size:10;not null" json:"duedate" yaml:"duedate"`
	Entity      string             `json:"entity" yaml:"entity"`
	Staff       string             `json:"staff" yaml:"staff"`
	File        *string            `json:"file" yaml:"file"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" yaml:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) HasFile() bool {
	return t.File != nil && *t.File != ""
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp and returns
// the calendar date in DateLayout.
func ParseDueDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d.Format(DateLayout), true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Format(DateLayout), true
	}
	return "", false
}
