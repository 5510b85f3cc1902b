// Package forms validates contact and booking submissions field by field, using the
// same copy the site shows next to each input.
package forms

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)
)

const (
	contactMessageMin = 10
	bookingMessageMin = 20

	// GuestsNotSpecified fills an empty guest count.
	GuestsNotSpecified = "Not specified"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors lists field errors in form order.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "forms: invalid submission: " + strings.Join(parts, "; ")
}

// Map returns field -> message.
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ContactForm is the general enquiry form.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Validate returns Errors, or nil when every field passes.
func (f ContactForm) Validate() error {
	var errs Errors
	if blank(f.Name) {
		errs.add("name", "Please enter your full name")
	}
	validateEmail(&errs, f.Email)
	if !blank(f.Phone) && !phonePattern.MatchString(f.Phone) {
		errs.add("phone", "Please enter a valid phone number")
	}
	if blank(f.Service) {
		errs.add("service", "Please select a service type")
	}
	switch {
	case blank(f.Message):
		errs.add("message", "Please enter your message")
	case length(f.Message) < contactMessageMin:
		errs.add("message", "Message must be at least 10 characters long")
	}
	return errs.err()
}

// BookingForm is a session booking request. Date is YYYY-MM-DD and Time a slot label.
type BookingForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Service  string `json:"service"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Duration string `json:"duration"`
	Budget   string `json:"budget"`
	Guests   string `json:"guests"`
	Message  string `json:"message"`
}

// Validate checks every field. today is any instant on the studio's current day; a
// booking for today is allowed.
func (f BookingForm) Validate(today time.Time) error {
	var errs Errors
	if blank(f.Name) {
		errs.add("name", "Please enter your full name")
	}
	validateEmail(&errs, f.Email)
	switch {
	case blank(f.Phone):
		errs.add("phone", "Please enter your phone number")
	case !phonePattern.MatchString(f.Phone):
		errs.add("phone", "Please enter a valid phone number")
	}
	if blank(f.Service) {
		errs.add("service", "Please select a service")
	}
	switch {
	case blank(f.Date):
		errs.add("date", "Please select a date")
	case !futureOrToday(strings.TrimSpace(f.Date), today):
		errs.add("date", "Please select a future date")
	}
	if blank(f.Time) {
		errs.add("time", "Please select a time")
	}
	if blank(f.Location) {
		errs.add("location", "Please enter the location")
	}
	if blank(f.Duration) {
		errs.add("duration", "Please select duration")
	}
	if blank(f.Budget) {
		errs.add("budget", "Please select your budget range")
	}
	switch {
	case blank(f.Message):
		errs.add("message", "Please provide some details about your requirements")
	case length(f.Message) < bookingMessageMin:
		errs.add("message", "Please provide at least 20 characters")
	}
	return errs.err()
}

// GuestCount returns the guest count or "Not specified".
func (f BookingForm) GuestCount() string {
	if blank(f.Guests) {
		return GuestsNotSpecified
	}
	return strings.TrimSpace(f.Guests)
}

func validateEmail(errs *Errors, email string) {
	switch {
	case blank(email):
		errs.add("email", "Please enter your email address")
	case !emailPattern.MatchString(email):
		errs.add("email", "Please enter a valid email address")
	}
}

// futureOrToday rejects malformed dates and dates before today's local day.
func futureOrToday(date string, today time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", date, today.Location())
	if err != nil {
		return false
	}
	y, m, day := today.Date()
	return !d.Before(time.Date(y, m, day, 0, 0, 0, 0, today.Location()))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func length(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
