package emoticon

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/haytac/emoticon-bot/internal/metrics"
	"github.com/haytac/emoticon-bot/pkg/interfaces"
)

// Options configures a Plugin.
type Options struct {
	ImagesDir      string
	SettingsPath   string
	Syntax         Syntax
	SingleEmoticon bool
	ResponsePolicy Policy
	RepairPolicy   RepairPolicy
	PromptTemplate string
	Recorder       interfaces.DeliveryRecorder // optional
	Logger         zerolog.Logger
}

// snapshot is replaced wholesale on every load and never mutated.
type snapshot struct {
	catalog  *Catalog
	settings Settings
}

// Plugin wires the catalog, settings, prompt augmenter and dispatcher to host events.
type Plugin struct {
	opts   Options
	store  *SettingsStore
	prompt *PromptBuilder
	snap   atomic.Pointer[snapshot]
	logger zerolog.Logger
}

// New creates a plugin with an empty catalog. Call Load before handling events.
func New(opts Options) (*Plugin, error) {
	pb, err := NewPromptBuilder(opts.PromptTemplate, opts.Syntax, opts.SingleEmoticon)
	if err != nil {
		return nil, err
	}
	p := &Plugin{
		opts:   opts,
		store:  NewSettingsStore(opts.SettingsPath, opts.RepairPolicy, opts.Logger),
		prompt: pb,
		logger: opts.Logger,
	}
	p.snap.Store(&snapshot{catalog: NewCatalog(opts.ImagesDir, nil), settings: DefaultSettings()})
	return p, nil
}

// Load scans the images directory, loads the settings file and publishes the emoticon
// names into it. A directory that cannot be created is returned as an error.
func (p *Plugin) Load() error {
	catalog, err := LoadCatalog(p.opts.ImagesDir)
	if err != nil {
		return err
	}

	settings, state := p.store.Load()
	settings.Emoticons = catalog.Names()
	if state == StateCorrupt {
		p.logger.Warn().Str("path", p.store.Path()).Msg("Settings file is unreadable; not overwriting it with the emoticon list")
	} else if err := p.store.Save(settings); err != nil {
		p.logger.Error().Err(err).Str("path", p.store.Path()).Msg("Failed to save emoticon settings")
	}

	p.snap.Store(&snapshot{catalog: catalog, settings: settings})
	metrics.CatalogSize.Set(float64(catalog.Len()))
	p.logger.Info().
		Int("emoticons", catalog.Len()).
		Str("images_dir", catalog.Dir()).
		Str("settings_state", state.String()).
		Msg("Emoticon catalog loaded")
	return nil
}

// Reload is Load under a name that reads better at call sites after startup.
func (p *Plugin) Reload() error {
	return p.Load()
}

// Catalog returns the current catalog snapshot.
func (p *Plugin) Catalog() *Catalog {
	return p.snap.Load().catalog
}

// Settings returns a copy of the current settings snapshot.
func (p *Plugin) Settings() Settings {
	s := p.snap.Load().settings
	s.Emoticons = slices.Clone(s.Emoticons)
	return s
}

// Syntax returns the marker syntax in use.
func (p *Plugin) Syntax() Syntax {
	return p.opts.Syntax
}

// Resolve runs one substitution pass against the current snapshot.
func (p *Plugin) Resolve(text string) Resolution {
	snap := p.snap.Load()
	res := Resolve(text, snap.catalog, snap.settings, p.opts.Syntax, p.logger)
	metrics.Markers.WithLabelValues("resolved").Add(float64(len(res.Matches)))
	metrics.Markers.WithLabelValues("unresolved").Add(float64(len(res.Unresolved)))
	return res
}

// HandlePrompt inserts the emoticon instruction after the last user message.
func (p *Plugin) HandlePrompt(ev *PromptEvent) error {
	instruction, err := p.prompt.Instruction(p.Catalog())
	if err != nil {
		return err
	}
	ev.Prompt = Augment(ev.Prompt, instruction)
	return nil
}

// HandleMessage strips markers from an inbound message. When any resolved, the default
// handling is prevented and one combined reply is registered.
func (p *Plugin) HandleMessage(ev *MessageEvent) {
	res := p.Resolve(ev.Text)
	if !res.Resolved() {
		return
	}
	ev.AddReply(ReplyParts(res))
	ev.PreventDefault()
}

// HandleResponse strips markers from a model reply and, when any resolved, sends the
// images and the remaining text through sender instead of the host.
func (p *Plugin) HandleResponse(ctx context.Context, ev *ResponseEvent, sender interfaces.Sender) {
	res := p.Resolve(ev.Text)
	if !res.Resolved() {
		return
	}
	ev.PreventDefault()

	l := p.logger.With().Str("platform", ev.Destination.Platform).Str("conversation_id", ev.Destination.ConversationID).Logger()
	d := NewDispatcher(sender, p.opts.Recorder, l)
	if failed := d.Deliver(ctx, ev.Destination, res, p.snap.Load().settings, p.opts.ResponsePolicy); failed > 0 {
		l.Warn().Int("failed_parts", failed).Msg("Emoticon reply partially delivered")
	}
}

// Handle routes ev to its handler. sender is only used for response events.
func (p *Plugin) Handle(ctx context.Context, ev Event, sender interfaces.Sender) error {
	switch e := ev.(type) {
	case *PromptEvent:
		return p.HandlePrompt(e)
	case *MessageEvent:
		p.HandleMessage(e)
	case *ResponseEvent:
		if sender == nil {
			return fmt.Errorf("response event needs a sender")
		}
		p.HandleResponse(ctx, e, sender)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return nil
}
