package notification

import (
	"context"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/logger"
	"github.com/danbi-garden/danbi/internal/reminder"
)

// Sender presents a fired reminder to the user.
type Sender interface {
	Name() string
	Send(ctx context.Context, r reminder.Reminder) error
}

// LogSender writes fired reminders to the log. It is the delivery used when
// no push service is configured.
type LogSender struct {
	log logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log logger.Logger) *LogSender {
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	return &LogSender{log: log}
}

// Name implements Sender.
func (s *LogSender) Name() string { return "log" }

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, r reminder.Reminder) error {
	s.log.Info(r.Title,
		logger.String("body", r.Body),
		logger.String("key", r.Key),
		logger.Int("badge", r.Badge))
	return nil
}

// PushSender sends via nicholas-fedor/shoutrrr.
// One router serves every configured URL.
type PushSender struct {
	urls   []string
	sender *router.ServiceRouter
}

// NewPushSender builds a shoutrrr router for urls. Invalid URLs fail here
// rather than when a reminder fires.
func NewPushSender(urls []string, timeout time.Duration) (*PushSender, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one push URL is required").
			Category(errors.CategoryConfiguration).
			Component("notification").
			Build()
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// shoutrrr errors may echo tokens from the URL
		return nil, errors.Newf("invalid push URL configuration").
			Category(errors.CategoryConfiguration).
			Context("url_count", len(urls)).
			Component("notification").
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &PushSender{urls: slices.Clone(urls), sender: sender}, nil
}

// Name implements Sender.
func (s *PushSender) Name() string { return "shoutrrr" }

// Send implements Sender.
func (s *PushSender) Send(ctx context.Context, r reminder.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if r.Title != "" {
		params.SetTitle(r.Title)
	}
	for _, e := range s.sender.Send(r.Body, &params) {
		if e != nil {
			return errors.Newf("push delivery failed").
				Category(errors.CategoryNotification).
				Context("key", r.Key).
				Component("notification").
				Build()
		}
	}
	return nil
}
