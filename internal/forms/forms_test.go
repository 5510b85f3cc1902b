package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.March, 15, 14, 0, 0, 0, time.UTC)

func validContact() ContactForm {
	return ContactForm{
		Name:    "Thandi Mokoena",
		Email:   "thandi@example.co.za",
		Phone:   "+27 72 148 0697",
		Service: "Portrait Session",
		Message: "Looking for family portraits.",
	}
}

func validBooking() BookingForm {
	return BookingForm{
		Name:     "Thandi Mokoena",
		Email:    "thandi@example.co.za",
		Phone:    "(072) 148-0697",
		Service:  "Wedding Photography",
		Date:     "2024-03-18",
		Time:     "10:00-12:00",
		Location: "Sandton, Johannesburg",
		Duration: "4 hours",
		Budget:   "R5000-R10000",
		Message:  "Outdoor ceremony with about eighty guests.",
	}
}

func TestContactForm_Valid(t *testing.T) {
	assert.NoError(t, validContact().Validate())

	f := validContact()
	f.Phone = ""
	assert.NoError(t, f.Validate(), "phone is optional")
}

func TestContactForm_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ContactForm)
		field   string
		message string
	}{
		{"missing name", func(f *ContactForm) { f.Name = "  " }, "name", "Please enter your full name"},
		{"missing email", func(f *ContactForm) { f.Email = "" }, "email", "Please enter your email address"},
		{"bad email", func(f *ContactForm) { f.Email = "thandi@example" }, "email", "Please enter a valid email address"},
		{"email with space", func(f *ContactForm) { f.Email = "th andi@example.com" }, "email", "Please enter a valid email address"},
		{"bad phone", func(f *ContactForm) { f.Phone = "call me" }, "phone", "Please enter a valid phone number"},
		{"missing service", func(f *ContactForm) { f.Service = "" }, "service", "Please select a service type"},
		{"missing message", func(f *ContactForm) { f.Message = "" }, "message", "Please enter your message"},
		{"short message", func(f *ContactForm) { f.Message = "  hi there  " }, "message", "Message must be at least 10 characters long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validContact()
			tt.mutate(&f)
			err := f.Validate()
			require.Error(t, err)

			var errs Errors
			require.True(t, errors.As(err, &errs))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs.Map()[tt.field])
		})
	}
}

func TestContactForm_CollectsAllErrorsInOrder(t *testing.T) {
	err := ContactForm{}.Validate()
	var errs Errors
	require.ErrorAs(t, err, &errs)

	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"name", "email", "service", "message"}, fields)
	assert.Contains(t, err.Error(), "name: Please enter your full name")
}

func TestBookingForm_Valid(t *testing.T) {
	assert.NoError(t, validBooking().Validate(today))

	f := validBooking()
	f.Date = "2024-03-15"
	assert.NoError(t, f.Validate(today), "today is bookable")
}

func TestBookingForm_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BookingForm)
		field   string
		message string
	}{
		{"missing phone", func(f *BookingForm) { f.Phone = "" }, "phone", "Please enter your phone number"},
		{"bad phone", func(f *BookingForm) { f.Phone = "072-CALL-ME" }, "phone", "Please enter a valid phone number"},
		{"missing service", func(f *BookingForm) { f.Service = "" }, "service", "Please select a service"},
		{"missing date", func(f *BookingForm) { f.Date = "" }, "date", "Please select a date"},
		{"past date", func(f *BookingForm) { f.Date = "2024-03-14" }, "date", "Please select a future date"},
		{"malformed date", func(f *BookingForm) { f.Date = "next friday" }, "date", "Please select a future date"},
		{"missing time", func(f *BookingForm) { f.Time = "" }, "time", "Please select a time"},
		{"missing location", func(f *BookingForm) { f.Location = " " }, "location", "Please enter the location"},
		{"missing duration", func(f *BookingForm) { f.Duration = "" }, "duration", "Please select duration"},
		{"missing budget", func(f *BookingForm) { f.Budget = "" }, "budget", "Please select your budget range"},
		{"missing message", func(f *BookingForm) { f.Message = "" }, "message", "Please provide some details about your requirements"},
		{"short message", func(f *BookingForm) { f.Message = "Short brief." }, "message", "Please provide at least 20 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validBooking()
			tt.mutate(&f)
			var errs Errors
			require.ErrorAs(t, f.Validate(today), &errs)
			require.Len(t, errs, 1)
			assert.True(t, errs.Has(tt.field))
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestBookingForm_GuestCount(t *testing.T) {
	f := validBooking()
	assert.Equal(t, GuestsNotSpecified, f.GuestCount())
	f.Guests = " 80 "
	assert.Equal(t, "80", f.GuestCount())
}
