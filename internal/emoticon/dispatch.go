package emoticon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/haytac/emoticon-bot/internal/database"
	"github.com/haytac/emoticon-bot/internal/metrics"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// URLPlatform is the platform that always gets URL delivery when a URL can be built.
const URLPlatform = "aiocqhttp"

// Policy selects which resolved matches of a model response are delivered.
type Policy int

const (
	PolicyFirst Policy = iota // only the first resolved match
	PolicyAll                 // every resolved match, in order
)

// ParsePolicy maps "first" and "all" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "first":
		return PolicyFirst, nil
	case "all":
		return PolicyAll, nil
	default:
		return PolicyFirst, fmt.Errorf("unknown response policy %q (want first or all)", s)
	}
}

func (p Policy) String() string {
	if p == PolicyAll {
		return "all"
	}
	return "first"
}

// ImagePart picks URL or local path delivery for m. URL delivery needs a URL-preferring
// platform or use_url, plus a configured prefix and a computed URL.
func ImagePart(m MarkerMatch, dest interfaces.Destination, settings Settings) interfaces.MessagePart {
	wantURL := dest.Platform == URLPlatform || settings.UseURL
	if wantURL && settings.URLPrefix != "" && m.URL != "" {
		return interfaces.MessagePart{Kind: interfaces.PartImageURL, URL: m.URL, Emoticon: m.Name}
	}
	return interfaces.MessagePart{Kind: interfaces.PartImagePath, Path: m.Path, Emoticon: m.Name}
}

// ReplyParts builds the combined reply for an inbound message: one local-path image per
// resolved match, then the remaining text when non-empty.
func ReplyParts(res Resolution) []interfaces.MessagePart {
	parts := make([]interfaces.MessagePart, 0, len(res.Matches)+1)
	for _, m := range res.Matches {
		parts = append(parts, interfaces.MessagePart{Kind: interfaces.PartImagePath, Path: m.Path, Emoticon: m.Name})
	}
	if res.Text != "" {
		parts = append(parts, interfaces.TextPart(res.Text))
	}
	return parts
}

// Dispatcher sends the parts derived from a resolved model response. Each send is
// independent: a failed image does not stop the text that follows.
type Dispatcher struct {
	sender   interfaces.Sender
	recorder interfaces.DeliveryRecorder
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(sender interfaces.Sender, recorder interfaces.DeliveryRecorder, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, recorder: recorder, logger: logger}
}

// Deliver sends the selected images and then the remaining text. It returns the number
// of parts that failed to send.
func (d *Dispatcher) Deliver(ctx context.Context, dest interfaces.Destination, res Resolution, settings Settings, policy Policy) int {
	matches := res.Matches
	if policy == PolicyFirst && len(matches) > 1 {
		d.logger.Debug().Int("discarded", len(matches)-1).Msg("Sending only the first emoticon")
		matches = matches[:1]
	}

	failed := 0
	for _, m := range matches {
		if !d.send(ctx, dest, ImagePart(m, dest, settings)) {
			failed++
		}
	}
	if res.Text != "" {
		if !d.send(ctx, dest, interfaces.TextPart(res.Text)) {
			failed++
		}
	}
	return failed
}

func (d *Dispatcher) send(ctx context.Context, dest interfaces.Destination, part interfaces.MessagePart) bool {
	l := d.logger.With().
		Str("platform", dest.Platform).
		Str("conversation_id", dest.ConversationID).
		Str("part", part.Kind.String()).
		Logger()

	err := d.sender.SendMessage(ctx, dest, []interfaces.MessagePart{part})
	status := database.StatusSent
	if err != nil {
		status = database.StatusFailed
		l.Error().Err(err).Str("emoticon", part.Emoticon).Msg("Failed to send message part")
	} else {
		l.Debug().Str("emoticon", part.Emoticon).Msg("Message part sent")
	}
	metrics.PartsSent.WithLabelValues(part.Kind.String(), status).Inc()
	d.record(ctx, dest, part, status, err)
	return err == nil
}

func (d *Dispatcher) record(ctx context.Context, dest interfaces.Destination, part interfaces.MessagePart, status string, sendErr error) {
	if d.recorder == nil {
		return
	}
	delivery := &database.Delivery{
		Platform:       dest.Platform,
		ConversationID: dest.ConversationID,
		Status:         status,
	}
	switch part.Kind {
	case interfaces.PartImagePath:
		delivery.Mode, delivery.Target = database.ModePath, part.Path
	case interfaces.PartImageURL:
		delivery.Mode, delivery.Target = database.ModeURL, part.URL
	default:
		delivery.Mode, delivery.Target = database.ModeText, part.Text
	}
	if part.Emoticon != "" {
		name := part.Emoticon
		delivery.Emoticon = &name
	}
	if sendErr != nil {
		msg := sendErr.Error()
		delivery.Error = &msg
	}
	if _, err := d.recorder.RecordDelivery(ctx, delivery); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to record delivery")
	}
}
