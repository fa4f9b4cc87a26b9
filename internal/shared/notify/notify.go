package notify

import (
	"context"
	"io"
	"sync"

	"gopkg.in/gomail.v2"
)

// Message is one outbound customer/technician notification. Attachment is
// optional (the repair ticket PDF when present).
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Notifier sends messages best-effort. Implementations must be safe for
// concurrent use; callers never rely on delivery for correctness.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPNotifier delivers messages by email.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier creates an email notifier.
func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers one email, with the attachment when set.
func (n *SMTPNotifier) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if msg.Attachment != nil {
		m.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(msg.Attachment)
			return err
		}))
	}
	return n.dialer.DialAndSend(m)
}

// Recorder captures messages instead of sending them. Used in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send stores the message.
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
