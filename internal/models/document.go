package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Milestone is a planned checkpoint inside a sub-project. The milestone with
// the latest planned date is the final one; completing it closes the
// sub-project.
type Milestone struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"` // planned date, YYYY-MM-DD
	IsCompleted   bool   `json:"is_completed"`
	CompletedDate string `json:"completed_date,omitempty"`
	DiffDays      *int   `json:"diff_days,omitempty"` // completed - planned, negative = early
}

// Event is a work-log entry. Events are append-only; the write path keeps
// them chronologically monotonic.
type Event struct {
	ID                 string  `json:"id"`
	Date               string  `json:"date"` // YYYY-MM-DD
	Hours              float64 `json:"hours"`
	Worker             string  `json:"worker"`
	Description        string  `json:"description"`
	HandoffTo          string  `json:"handoff_to,omitempty"` // set only when handler changed
	MatchedMilestoneID string  `json:"matched_milestone_id,omitempty"`
}

// Comment is a discussion entry on a sub-project
type Comment struct {
	ID      string `json:"id"`
	User    string `json:"user"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

// Link is a resource link attached to a sub-project
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type MilestoneList []Milestone
type EventList []Event
type CommentList []Comment
type LinkList []Link
type StringList []string

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, value interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported column type for JSON list")
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func (l MilestoneList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *MilestoneList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

func (l EventList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *EventList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

func (l CommentList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *CommentList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

func (l LinkList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *LinkList) Scan(value interface{}) error {
	return jsonScan(l, value)
}

func (l StringList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *StringList) Scan(value interface{}) error {
	return jsonScan(l, value)
}
