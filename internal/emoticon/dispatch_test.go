package emoticon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emoticon-bot/internal/database"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []interfaces.MessagePart
	failFor interfaces.PartKind
	fail    bool
}

func (f *fakeSender) SendMessage(_ context.Context, _ interfaces.Destination, parts []interfaces.MessagePart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range parts {
		if f.fail && p.Kind == f.failFor {
			return errors.New("upload rejected")
		}
		f.sent = append(f.sent, p)
	}
	return nil
}

func (f *fakeSender) Name() string { return "fake" }

type fakeRecorder struct {
	deliveries []*database.Delivery
}

func (f *fakeRecorder) RecordDelivery(_ context.Context, d *database.Delivery) (int64, error) {
	f.deliveries = append(f.deliveries, d)
	return int64(len(f.deliveries)), nil
}

func resolved(text string, settings Settings) Resolution {
	return Resolve(text, testCatalog(), settings, SyntaxPercent, zerolog.Nop())
}

func TestImagePart(t *testing.T) {
	m := MarkerMatch{Name: "cry", File: "cry.gif", Path: "/imgs/cry.gif", URL: "http://h/e/cry.gif"}

	tests := []struct {
		name     string
		platform string
		settings Settings
		want     interfaces.PartKind
	}{
		{"url platform with prefix", URLPlatform, Settings{URLPrefix: "http://h/e"}, interfaces.PartImageURL},
		{"use_url with prefix", "telegram", Settings{URLPrefix: "http://h/e", UseURL: true}, interfaces.PartImageURL},
		{"prefix without preference", "telegram", Settings{URLPrefix: "http://h/e"}, interfaces.PartImagePath},
		{"url platform without prefix", URLPlatform, Settings{}, interfaces.PartImagePath},
		{"use_url without prefix", "telegram", Settings{UseURL: true}, interfaces.PartImagePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part := ImagePart(m, interfaces.Destination{Platform: tt.platform}, tt.settings)
			assert.Equal(t, tt.want, part.Kind)
			assert.Equal(t, "cry", part.Emoticon)
		})
	}
}

func TestReplyParts(t *testing.T) {
	parts := ReplyParts(resolved("hi %smile% there %cry%", DefaultSettings()))
	require.Len(t, parts, 3)
	assert.Equal(t, interfaces.PartImagePath, parts[0].Kind)
	assert.Equal(t, "smile", parts[0].Emoticon)
	assert.Equal(t, "cry", parts[1].Emoticon)
	assert.Equal(t, interfaces.TextPart("hi there"), parts[2])

	parts = ReplyParts(resolved("%smile%", DefaultSettings()))
	require.Len(t, parts, 1, "empty text is not sent")
}

func TestDispatcher_FirstPolicy(t *testing.T) {
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	d := NewDispatcher(sender, rec, zerolog.Nop())

	failed := d.Deliver(context.Background(), interfaces.Destination{Platform: "telegram", ConversationID: "1"},
		resolved("%smile% ok %cry%", DefaultSettings()), DefaultSettings(), PolicyFirst)

	assert.Zero(t, failed)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "/imgs/smile.png", sender.sent[0].Path)
	assert.Equal(t, "ok", sender.sent[1].Text)

	require.Len(t, rec.deliveries, 2)
	assert.Equal(t, database.ModePath, rec.deliveries[0].Mode)
	require.NotNil(t, rec.deliveries[0].Emoticon)
	assert.Equal(t, "smile", *rec.deliveries[0].Emoticon)
	assert.Equal(t, database.ModeText, rec.deliveries[1].Mode)
	assert.Nil(t, rec.deliveries[1].Emoticon)
}

func TestDispatcher_AllPolicyURL(t *testing.T) {
	sender := &fakeSender{}
	settings := Settings{URLPrefix: "http://h/e"}
	d := NewDispatcher(sender, nil, zerolog.Nop())

	failed := d.Deliver(context.Background(), interfaces.Destination{Platform: URLPlatform, ConversationID: "g1"},
		resolved("%smile%%cry%", settings), settings, PolicyAll)

	assert.Zero(t, failed)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "http://h/e/smile.png", sender.sent[0].URL)
	assert.Equal(t, "http://h/e/cry.gif", sender.sent[1].URL)
}

func TestDispatcher_ImageFailureStillSendsText(t *testing.T) {
	sender := &fakeSender{fail: true, failFor: interfaces.PartImagePath}
	rec := &fakeRecorder{}
	d := NewDispatcher(sender, rec, zerolog.Nop())

	failed := d.Deliver(context.Background(), interfaces.Destination{Platform: "telegram", ConversationID: "1"},
		resolved("hi %smile% there", DefaultSettings()), DefaultSettings(), PolicyFirst)

	assert.Equal(t, 1, failed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "hi there", sender.sent[0].Text)

	require.Len(t, rec.deliveries, 2)
	assert.Equal(t, database.StatusFailed, rec.deliveries[0].Status)
	require.NotNil(t, rec.deliveries[0].Error)
	assert.Equal(t, database.StatusSent, rec.deliveries[1].Status)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("all")
	require.NoError(t, err)
	assert.Equal(t, PolicyAll, p)
	assert.Equal(t, "all", p.String())

	_, err = ParsePolicy("some")
	assert.Error(t, err)
}
