package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studio = Business{Name: "3rdEye Visualz", Email: "studio@example.com", Phone: "+27721480697"}

func TestContactNotice(t *testing.T) {
	n := ContactNotice(studio, Contact{
		Name:    "Thandi",
		Email:   "thandi@example.com",
		Service: "Portrait Session",
		Message: "Family portraits please",
	})

	assert.Equal(t, []string{"email"}, n.Channels)
	assert.Equal(t, []Recipient{{Email: "studio@example.com", Name: "3rdEye Visualz"}}, n.Recipients)
	assert.Equal(t, "New Contact Form Submission - Portrait Session", n.Subject)
	assert.Equal(t, PriorityNormal, n.Priority)
	assert.Contains(t, n.Body, "Phone: Not provided")
	assert.Contains(t, n.Body, "Sent from 3rdEye Visualz Website Contact Form")
	assert.Equal(t, map[string]string{
		"source":         "contact_form",
		"service_type":   "Portrait Session",
		"customer_name":  "Thandi",
		"customer_email": "thandi@example.com",
	}, n.Metadata)
}

func TestBookingNotices(t *testing.T) {
	biz, cust := BookingNotices(studio, Booking{
		Name:     "Thandi",
		Email:    "thandi@example.com",
		Phone:    "0721480697",
		Service:  "Wedding Photography",
		Date:     "2024-03-18",
		Time:     "10:00-12:00",
		Location: "Sandton",
		Duration: "4 hours",
		Budget:   "R5000-R10000",
		Message:  "Outdoor ceremony, eighty guests",
	})

	assert.Equal(t, "🎉 NEW BOOKING REQUEST - Wedding Photography", biz.Subject)
	assert.Equal(t, PriorityHigh, biz.Priority)
	assert.Equal(t, "studio@example.com", biz.Recipients[0].Email)
	assert.Contains(t, biz.Body, "Date: Monday, March 18, 2024")
	assert.Contains(t, biz.Body, "Number of Guests: Not specified")
	assert.Contains(t, biz.Body, "📱 Call: 0721480697")
	assert.Equal(t, "booking_form", biz.Metadata["source"])
	assert.Equal(t, "2024-03-18", biz.Metadata["booking_date"])
	assert.Equal(t, "0721480697", biz.Metadata["customer_phone"])

	assert.Equal(t, "✅ Booking Request Received - 3rdEye Visualz", cust.Subject)
	assert.Equal(t, PriorityNormal, cust.Priority)
	assert.Equal(t, []Recipient{{Email: "thandi@example.com", Name: "Thandi"}}, cust.Recipients)
	assert.Contains(t, cust.Body, "Dear Thandi,")
	assert.Contains(t, cust.Body, "Phone: +27721480697")
	assert.Equal(t, "booking_confirmation", cust.Metadata["source"])
	_, hasEmail := cust.Metadata["customer_email"]
	assert.False(t, hasEmail)
}

func TestNotification_JSONShape(t *testing.T) {
	raw, err := json.Marshal(ContactNotice(studio, Contact{Name: "A", Email: "a@example.com", Service: "S"}))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"channels", "recipients", "subject", "body", "priority", "metadata"} {
		assert.Contains(t, m, k)
	}
}

func TestFormatBookingDate(t *testing.T) {
	assert.Equal(t, "Friday, March 15, 2024", FormatBookingDate("2024-03-15"))
	assert.Equal(t, "soon", FormatBookingDate("soon"))
}

func TestDispatchAll(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	d := DispatcherFunc(func(_ context.Context, n Notification) error {
		mu.Lock()
		seen = append(seen, n.Subject)
		mu.Unlock()
		return nil
	})
	require.NoError(t, DispatchAll(context.Background(), d, Notification{Subject: "a"}, Notification{Subject: "b"}))
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestDispatchAll_AnyFailureFails(t *testing.T) {
	var calls atomic.Int32
	d := DispatcherFunc(func(_ context.Context, n Notification) error {
		calls.Add(1)
		if n.Subject == "bad" {
			return errors.New("boom")
		}
		return nil
	})
	err := DispatchAll(context.Background(), d, Notification{Subject: "ok"}, Notification{Subject: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(2), calls.Load())
}

type fakeSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = in
	return &sqs.SendMessageOutput{}, f.err
}

func TestQueueDispatcher(t *testing.T) {
	fake := &fakeSQS{}
	q := newQueueDispatcher(fake, "http://localhost:4566/000000000000/studio-notifications")

	n := ContactNotice(studio, Contact{Name: "A", Email: "a@example.com", Service: "S"})
	require.NoError(t, q.Dispatch(context.Background(), n))

	assert.Equal(t, "http://localhost:4566/000000000000/studio-notifications", aws.ToString(fake.input.QueueUrl))
	var decoded Notification
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.input.MessageBody)), &decoded))
	assert.Equal(t, n.Subject, decoded.Subject)
	assert.Equal(t, "contact_form", aws.ToString(fake.input.MessageAttributes["source"].StringValue))

	fake.err = errors.New("queue gone")
	assert.Error(t, q.Dispatch(context.Background(), Notification{}))
	_, hasSource := fake.input.MessageAttributes["source"]
	assert.False(t, hasSource)
}
