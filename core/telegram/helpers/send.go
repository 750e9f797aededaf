package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText and SendSequence through d; nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// SendFailures is the number of queued sends that gave up, or 0 without a
// dispatcher.
func SendFailures() uint64 {
	if d := dispatcher.Load(); d != nil {
		return d.Failures()
	}
	return 0
}

// Outgoing is one message of an ordered batch.
type Outgoing struct {
	Text string
	Opts *tele.SendOptions
}

func (o Outgoing) hasKeyboard() bool {
	return o.Opts != nil && o.Opts.ReplyMarkup != nil
}

// SendText sends raw text to the current chat.
func SendText(c tele.Context, text string) error {
	return SendSequence(c, []Outgoing{{Text: text}})
}

// SendSequence delivers msgs in order as a single dispatcher job. A retried
// job resumes after the last message that went out.
func SendSequence(c tele.Context, msgs []Outgoing) error {
	if len(msgs) == 0 {
		return nil
	}
	kb := false
	for _, m := range msgs {
		kb = kb || m.hasKeyboard()
	}
	track(c, len(msgs), kb)

	sent := 0
	run := func() error {
		for ; sent < len(msgs); sent++ {
			m := msgs[sent]
			var err error
			if m.Opts != nil {
				err = c.Send(m.Text, m.Opts)
			} else {
				err = c.Send(m.Text)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, "send.sequence", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, sender.ComponentSender, "queue.fallback",
			slog.Int("messages", len(msgs)),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}
