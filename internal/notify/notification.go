// Package notify builds the studio's submission notifications and delivers them
// through the notifications API, email, or a queue.
package notify

import (
	"fmt"
	"strings"
	"time"
)

// Priority values understood by the notifications API.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Recipient is one addressee.
type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Notification is the payload posted to the notifications API.
type Notification struct {
	Channels   []string          `json:"channels"`
	Recipients []Recipient       `json:"recipients"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	Priority   string            `json:"priority"`
	Metadata   map[string]string `json:"metadata"`
}

// Business is the studio contact block quoted in notifications.
type Business struct {
	Name  string
	Email string
	Phone string
}

// Contact is the data a contact notice quotes.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

// Booking is the data booking notices quote. Date is YYYY-MM-DD.
type Booking struct {
	Name     string
	Email    string
	Phone    string
	Service  string
	Date     string
	Time     string
	Location string
	Duration string
	Budget   string
	Guests   string
	Message  string
}

// ContactNotice tells the studio about a contact form enquiry.
func ContactNotice(biz Business, c Contact) Notification {
	phone := c.Phone
	if strings.TrimSpace(phone) == "" {
		phone = "Not provided"
	}
	var b strings.Builder
	b.WriteString("New contact form submission received:\n\n")
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\nService: %s\n\n", c.Name, c.Email, phone, c.Service)
	fmt.Fprintf(&b, "Message:\n%s\n\n---\nSent from %s Website Contact Form\n", c.Message, biz.Name)

	return Notification{
		Channels:   []string{"email"},
		Recipients: []Recipient{{Email: biz.Email, Name: biz.Name}},
		Subject:    "New Contact Form Submission - " + c.Service,
		Body:       b.String(),
		Priority:   PriorityNormal,
		Metadata: map[string]string{
			"source":         "contact_form",
			"service_type":   c.Service,
			"customer_name":  c.Name,
			"customer_email": c.Email,
		},
	}
}

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// BookingNotices returns the studio's high-priority notice and the customer's
// confirmation, in that order.
func BookingNotices(biz Business, bk Booking) (business, customer Notification) {
	when := FormatBookingDate(bk.Date)
	guests := bk.Guests
	if strings.TrimSpace(guests) == "" {
		guests = "Not specified"
	}

	var b strings.Builder
	b.WriteString("📸 NEW PHOTOGRAPHY BOOKING REQUEST\n\n")
	fmt.Fprintf(&b, "Client Details:\n%s\nName: %s\nEmail: %s\nPhone: %s\n\n", rule, bk.Name, bk.Email, bk.Phone)
	fmt.Fprintf(&b, "Booking Details:\n%s\nService: %s\nDate: %s\nTime: %s\nLocation: %s\nDuration: %s\nBudget Range: %s\nNumber of Guests: %s\n\n",
		rule, bk.Service, when, bk.Time, bk.Location, bk.Duration, bk.Budget, guests)
	fmt.Fprintf(&b, "Special Requirements:\n%s\n%s\n\n%s\n", rule, bk.Message, rule)
	fmt.Fprintf(&b, "⚡ ACTION REQUIRED: Contact client within 24 hours\n📧 Reply to: %s\n📱 Call: %s\n", bk.Email, bk.Phone)

	business = Notification{
		Channels:   []string{"email"},
		Recipients: []Recipient{{Email: biz.Email, Name: biz.Name}},
		Subject:    "🎉 NEW BOOKING REQUEST - " + bk.Service,
		Body:       b.String(),
		Priority:   PriorityHigh,
		Metadata: map[string]string{
			"source":         "booking_form",
			"service_type":   bk.Service,
			"booking_date":   bk.Date,
			"customer_name":  bk.Name,
			"customer_email": bk.Email,
			"customer_phone": bk.Phone,
		},
	}

	var c strings.Builder
	fmt.Fprintf(&c, "Dear %s,\n\nThank you for choosing %s for your photography needs!\n\n", bk.Name, biz.Name)
	c.WriteString("We've received your booking request with the following details:\n\n")
	fmt.Fprintf(&c, "Booking Information:\n%s\nService: %s\nDate: %s\nTime: %s\nLocation: %s\nDuration: %s\n\n",
		rule, bk.Service, when, bk.Time, bk.Location, bk.Duration)
	fmt.Fprintf(&c, "What Happens Next?\n%s\n", rule)
	c.WriteString("✓ Our team will review your request\n")
	c.WriteString("✓ We'll contact you within 24 hours via email or phone\n")
	c.WriteString("✓ We'll discuss your vision and finalize the details\n")
	c.WriteString("✓ Once confirmed, you'll receive a booking confirmation\n\n")
	fmt.Fprintf(&c, "Have Questions?\n%s\nEmail: %s\nPhone: %s\n\n", rule, biz.Email, biz.Phone)
	fmt.Fprintf(&c, "We're excited to capture your special moments!\n\nBest regards,\n%s Team\n\n", biz.Name)
	fmt.Fprintf(&c, "%s\nThis is an automated confirmation. Please do not reply to this email.\n", rule)

	customer = Notification{
		Channels:   []string{"email"},
		Recipients: []Recipient{{Email: bk.Email, Name: bk.Name}},
		Subject:    "✅ Booking Request Received - " + biz.Name,
		Body:       c.String(),
		Priority:   PriorityNormal,
		Metadata: map[string]string{
			"source":        "booking_confirmation",
			"service_type":  bk.Service,
			"booking_date":  bk.Date,
			"customer_name": bk.Name,
		},
	}
	return business, customer
}

// FormatBookingDate renders YYYY-MM-DD as "Monday, January 2, 2006". Anything else
// is returned unchanged.
func FormatBookingDate(date string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
