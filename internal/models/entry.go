package models

import "time"

const (
	EntryTypeRamp     = "ramp_input"
	EntryTypeLogistic = "logistic_input"
)

// MaxListLimit caps every entry listing.
const MaxListLimit = 200

type Entry struct {
	ID            int64     `json:"id"`
	Type          string    `json:"type"` // ramp_input or logistic_input
	C209Number    string    `json:"c209_number"`
	C208Number    string    `json:"c208_number,omitempty"` // logistic_input only
	MonthYear     string    `json:"month_year"`            // e.g. FEB-26
	ContainerCode string    `json:"container_code"`
	BarNumber     string    `json:"bar_number"` // legacy column, always equal to ContainerCode on write
	Pieces        *int      `json:"pieces"`
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Signature     string    `json:"signature"`
	Notes         string    `json:"notes"`
	Flags         string    `json:"flags"`
	IsNewBuild    bool      `json:"is_new_build"`
	IsRWFlight    bool      `json:"is_rw_flight"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Container returns the physical container id, whichever legacy column holds it.
func (e *Entry) Container() string {
	if e.ContainerCode != "" {
		return e.ContainerCode
	}
	return e.BarNumber
}

// CreateEntryRequest is the body of POST /api/entries
type CreateEntryRequest struct {
	Action        string `json:"action" validate:"required,oneof=ramp_input logistic_input"`
	C209Number    string `json:"c209_number" validate:"required_if=Action logistic_input,max=20"`
	ContainerCode string `json:"container_code" validate:"max=100"`
	BarNumber     string `json:"bar_number" validate:"max=100"`
	Pieces        *int   `json:"pieces" validate:"omitempty,gte=0"`
	FlightNumber  string `json:"flight_number" validate:"max=50"`
	Origin        string `json:"origin" validate:"max=100"`
	Destination   string `json:"destination" validate:"max=100"`
	Signature     string `json:"signature" validate:"max=20"`
	Notes         string `json:"notes"`
	Flags         string `json:"flags" validate:"max=200"`
	IsNewBuild    bool   `json:"is_new_build"`
	DateReceived  string `json:"date_received"` // optional backdate: RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD
}

// CreateEntryResult is returned after a successful create
type CreateEntryResult struct {
	Success bool   `json:"success"`
	C209    string `json:"c209"`
	C208    string `json:"c208,omitempty"`
	Entry   *Entry `json:"entry"`
}

// EntryFilter narrows List and Export
type EntryFilter struct {
	Type   string
	Search string
	Limit  int
}

type DashboardStats struct {
	TotalEntries int `json:"total_entries"`
	TodayEntries int `json:"today_entries"`
	ExpiringSoon int `json:"expiring_soon"` // logistic entries with < 12h of their 48h window left
	TotalFlights int `json:"total_flights"` // distinct flights recorded today
}

type Dashboard struct {
	Stats   DashboardStats `json:"stats"`
	Entries []*Entry       `json:"entries"`
}
