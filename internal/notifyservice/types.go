package notifyservice

import (
	"bytes"
	"context"
	"sync"

	"github.com/go-mail/mail/v2"

	"github.com/calliope-press/inkstone/internal/common"
)

// NotifyService emails the site owner about new comments awaiting
// moderation. It consumes comment events from the broker; the content core
// never talks to SMTP directly.
type NotifyService struct {
	mb        common.MessageConsumer
	m         Mailer
	recipient string
	logger    NotifyLogger
	ctx       context.Context
	cancel    context.CancelFunc
}

type NotifyLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}
