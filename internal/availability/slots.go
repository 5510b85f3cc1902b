package availability

// canonicalSlots are the ten two-hour booking windows, in display order.
var canonicalSlots = [...]string{
	"08:00-10:00",
	"09:00-11:00",
	"10:00-12:00",
	"11:00-13:00",
	"12:00-14:00",
	"13:00-15:00",
	"14:00-16:00",
	"15:00-17:00",
	"16:00-18:00",
	"17:00-19:00",
}

// Slot is one canonical window and whether it can still be booked on a date.
type Slot struct {
	Label    string `json:"label"`
	Bookable bool   `json:"bookable"`
}

// CanonicalSlots returns a copy of the canonical slot labels.
func CanonicalSlots() []string {
	out := make([]string, len(canonicalSlots))
	copy(out, canonicalSlots[:])
	return out
}

// IsCanonicalSlot reports whether label is one of the ten canonical windows.
func IsCanonicalSlot(label string) bool {
	for _, s := range canonicalSlots {
		if s == label {
			return true
		}
	}
	return false
}

// ListSlots returns every canonical slot for date. A slot is non-bookable only when
// the snapshot lists it for that specific date.
func ListSlots(date string, snap Snapshot) []Slot {
	out := make([]Slot, 0, len(canonicalSlots))
	for _, label := range canonicalSlots {
		out = append(out, Slot{Label: label, Bookable: !snap.IsSlotBooked(date, label)})
	}
	return out
}
