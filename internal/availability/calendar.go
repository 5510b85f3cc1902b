package availability

import "time"

// DayStatus classifies a calendar day. Every day gets exactly one status.
type DayStatus string

const (
	StatusPast      DayStatus = "past"
	StatusToday     DayStatus = "today"
	StatusBooked    DayStatus = "booked"
	StatusAvailable DayStatus = "available"
)

// DayCell is one numbered day of a month grid.
type DayCell struct {
	Day         int       `json:"day"`
	Date        string    `json:"date"`
	Status      DayStatus `json:"status"`
	Interactive bool      `json:"interactive"`
}

// MonthGrid is a rendered month. Month is zero based (0 = January).
type MonthGrid struct {
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	MonthName     string    `json:"month_name"`
	LeadingBlanks int       `json:"leading_blanks"`
	Days          []DayCell `json:"days"`
}

// RenderMonth lays out month (0-11) of year against snap. today is any instant on
// the current local day; its location decides where "today" begins.
func RenderMonth(year, month int, snap Snapshot, today time.Time) MonthGrid {
	loc := today.Location()
	first := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, loc)
	todayKey := dateKey(today)
	days := DaysInMonth(first.Year(), first.Month())

	grid := MonthGrid{
		Year:          first.Year(),
		Month:         int(first.Month()) - 1,
		MonthName:     first.Month().String(),
		LeadingBlanks: int(first.Weekday()),
		Days:          make([]DayCell, 0, days),
	}
	for day := 1; day <= days; day++ {
		date := FormatDate(first.Year(), first.Month(), day)
		status := classify(date, todayKey, snap)
		grid.Days = append(grid.Days, DayCell{
			Day:         day,
			Date:        date,
			Status:      status,
			Interactive: status == StatusAvailable || status == StatusToday,
		})
	}
	return grid
}

// Cell looks up the cell for an ISO date in the grid.
func (g MonthGrid) Cell(date string) (DayCell, bool) {
	for _, c := range g.Days {
		if c.Date == date {
			return c, true
		}
	}
	return DayCell{}, false
}

// classify applies past first, then booked, then today.
func classify(date, todayKey string, snap Snapshot) DayStatus {
	switch {
	case date < todayKey:
		return StatusPast
	case snap.IsDateBooked(date):
		return StatusBooked
	case date == todayKey:
		return StatusToday
	default:
		return StatusAvailable
	}
}

// Selectable reports whether date may be chosen relative to today.
func Selectable(date string, snap Snapshot, today time.Time) bool {
	if !IsISODate(date) {
		return false
	}
	switch classify(date, dateKey(today), snap) {
	case StatusAvailable, StatusToday:
		return true
	}
	return false
}
