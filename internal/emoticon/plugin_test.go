package emoticon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

func newTestPlugin(t *testing.T, images ...string) (*Plugin, string) {
	t.Helper()
	base := t.TempDir()
	imagesDir := filepath.Join(base, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0755))
	writeImages(t, imagesDir, images...)

	p, err := New(Options{
		ImagesDir:      imagesDir,
		SettingsPath:   filepath.Join(base, "config.json"),
		Syntax:         SyntaxPercent,
		SingleEmoticon: true,
		ResponsePolicy: PolicyFirst,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	require.NoError(t, p.Load())
	return p, base
}

func TestPlugin_LoadPublishesNames(t *testing.T) {
	p, base := newTestPlugin(t, "smile.png", "cry.gif")

	assert.ElementsMatch(t, []string{"smile", "cry"}, p.Settings().Emoticons)

	m := readJSON(t, filepath.Join(base, "config.json"))
	assert.ElementsMatch(t, []any{"smile", "cry"}, m["emoticons"])
}

func TestPlugin_LoadKeepsUserSettings(t *testing.T) {
	base := t.TempDir()
	settingsPath := filepath.Join(base, "config.json")
	require.NoError(t, os.WriteFile(settingsPath, []byte(`{"url_prefix":"http://h/e","use_url":true,"emoticons":["stale"]}`), 0644))
	imagesDir := filepath.Join(base, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0755))
	writeImages(t, imagesDir, "smile.png")

	p, err := New(Options{ImagesDir: imagesDir, SettingsPath: settingsPath, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, p.Load())

	s := p.Settings()
	assert.Equal(t, "http://h/e", s.URLPrefix)
	assert.True(t, s.UseURL)
	assert.Equal(t, []string{"smile"}, s.Emoticons)
}

func TestPlugin_LoadCorruptSettingsNotOverwritten(t *testing.T) {
	base := t.TempDir()
	settingsPath := filepath.Join(base, "config.json")
	require.NoError(t, os.WriteFile(settingsPath, []byte("oops"), 0644))

	p, err := New(Options{ImagesDir: filepath.Join(base, "images"), SettingsPath: settingsPath, Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, p.Load())

	data, err := os.ReadFile(settingsPath)
	require.NoError(t, err)
	assert.Equal(t, "oops", string(data))
}

func TestPlugin_Reload(t *testing.T) {
	p, _ := newTestPlugin(t, "smile.png")
	assert.Equal(t, 1, p.Catalog().Len())

	writeImages(t, p.Catalog().Dir(), "wave.webp")
	require.NoError(t, p.Reload())
	assert.Equal(t, 2, p.Catalog().Len())
}

func TestPlugin_HandlePrompt(t *testing.T) {
	p, _ := newTestPlugin(t, "smile.png")
	ev := &PromptEvent{Prompt: []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hello"},
	}}

	require.NoError(t, p.Handle(context.Background(), ev, nil))
	require.Len(t, ev.Prompt, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, ev.Prompt[1].Role)
	assert.Contains(t, ev.Prompt[1].Content, "smile")
}

func TestPlugin_HandleMessage(t *testing.T) {
	p, _ := newTestPlugin(t, "smile.png")

	ev := &MessageEvent{Text: "hi %smile% there", Destination: interfaces.Destination{Platform: "telegram", ConversationID: "1"}}
	require.NoError(t, p.Handle(context.Background(), ev, nil))
	assert.True(t, ev.DefaultPrevented())
	require.Len(t, ev.Replies(), 1)
	reply := ev.Replies()[0]
	require.Len(t, reply, 2)
	assert.Equal(t, interfaces.PartImagePath, reply[0].Kind)
	assert.Equal(t, "hi there", reply[1].Text)

	plain := &MessageEvent{Text: "hi %nope%"}
	p.HandleMessage(plain)
	assert.False(t, plain.DefaultPrevented())
	assert.Empty(t, plain.Replies())
}

func TestPlugin_HandleResponse(t *testing.T) {
	p, _ := newTestPlugin(t, "smile.png", "cry.gif")
	sender := &fakeSender{}

	ev := &ResponseEvent{Text: "%cry% sad %smile%", Destination: interfaces.Destination{Platform: "telegram", ConversationID: "1"}}
	require.NoError(t, p.Handle(context.Background(), ev, sender))
	assert.True(t, ev.DefaultPrevented())
	require.Len(t, sender.sent, 2, "first policy sends one image and the text")
	assert.Equal(t, "cry", sender.sent[0].Emoticon)
	assert.Equal(t, "sad", sender.sent[1].Text)

	untouched := &ResponseEvent{Text: "no markers here"}
	p.HandleResponse(context.Background(), untouched, sender)
	assert.False(t, untouched.DefaultPrevented())
	assert.Len(t, sender.sent, 2)
}

func TestPlugin_HandleResponseNeedsSender(t *testing.T) {
	p, _ := newTestPlugin(t)
	assert.Error(t, p.Handle(context.Background(), &ResponseEvent{Text: "x"}, nil))
}
