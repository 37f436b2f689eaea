// Package recognition turns the backend's noisy stream of detection events
// into an ordered, one-at-a-time presentation for the kiosk screen.
package recognition

import (
	"encoding/json"
	"errors"

	"kiosk/internal/render"
)

// CheckIn is one recorded attendance entry, kept in the order received.
type CheckIn struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

// Event is one detection result pushed from the backend. Timestamp orders and
// ages events; it is never displayed.
type Event struct {
	RollNumber           string    `json:"roll_number"`
	Name                 string    `json:"name"`
	Department           string    `json:"department,omitempty"`
	Role                 string    `json:"role,omitempty"`
	AttendancePercentage float64   `json:"attendance_percentage"`
	History              []CheckIn `json:"history"`
	AttendedDates        []string  `json:"attended_dates"`
	UserID               string    `json:"user_id,omitempty"`
	Timestamp            int64     `json:"timestamp,omitempty"`
}

// DecodeEvent parses a user_recognized payload.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, err
	}
	if ev.RollNumber == "" {
		return Event{}, errors.New("recognition: event missing roll number")
	}
	return ev, nil
}

// Detail converts the event into the fields the view displays.
func (e Event) Detail() render.UserDetail {
	rows := make([]render.HistoryRow, 0, len(e.History))
	for _, h := range e.History {
		rows = append(rows, render.HistoryRow{Time: h.Time, Date: h.Date})
	}
	return render.UserDetail{
		Name:                 e.Name,
		RollNumber:           e.RollNumber,
		Department:           e.Department,
		Role:                 e.Role,
		AttendancePercentage: e.AttendancePercentage,
		History:              rows,
	}
}
