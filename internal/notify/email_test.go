package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "bookings@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "bookings@example.com",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "3rdEye Visualz" {
		t.Errorf("expected default from name, got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "client@example.com", Subject: "Test"})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestEmailDispatcher_OneEmailPerRecipient(t *testing.T) {
	sender := &recordingSender{}
	d := NewEmailDispatcher(sender, nil)

	n := Notification{
		Recipients: []Recipient{{Email: "a@example.com", Name: "A"}, {Email: "b@example.com", Name: "B"}},
		Subject:    "Hello",
		Body:       "Body",
	}
	if err := d.Dispatch(context.Background(), n); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[1].To != "b@example.com" || sender.sent[1].ToName != "B" || sender.sent[1].Subject != "Hello" {
		t.Errorf("unexpected message: %+v", sender.sent[1])
	}
}

func TestEmailDispatcher_Errors(t *testing.T) {
	d := NewEmailDispatcher(&recordingSender{err: errors.New("smtp down")}, nil)
	if err := d.Dispatch(context.Background(), Notification{Recipients: []Recipient{{Email: "a@example.com"}}}); err == nil {
		t.Error("expected sender error")
	}
	if err := d.Dispatch(context.Background(), Notification{Subject: "nobody"}); err == nil {
		t.Error("expected error for empty recipients")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "client@example.com"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newSESSender(fake, SESConfig{FromEmail: "studio@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "client@example.com", Subject: "Booked", Body: "See you"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := aws.ToString(fake.input.FromEmailAddress); got != "3rdEye Visualz <studio@example.com>" {
		t.Errorf("unexpected from: %q", got)
	}
	if got := aws.ToString(fake.input.Content.Simple.Body.Text.Data); got != "See you" {
		t.Errorf("unexpected body: %q", got)
	}
	if fake.input.Content.Simple.Body.Html != nil {
		t.Error("expected no html part")
	}

	fake.err = errors.New("throttled")
	if err := sender.Send(context.Background(), EmailMessage{To: "client@example.com"}); err == nil {
		t.Error("expected SES error")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}
