// Package discord implements the messaging capability on Discord guild
// channels. Every agent identity posts through its own bot session, so
// messages appear under distinct bot users instead of one shared webhook.
package discord

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
)

// MaxMessageLen is the Discord hard limit for one message.
const MaxMessageLen = 2000

// Options configure optional adapter collaborators.
type Options struct {
	Logger logging.Logger
}

// Adapter is a capability.Messaging backed by one Discord guild and one bot
// session per agent identity. The first identity in sorted order doubles as
// the administrative session for channel management.
type Adapter struct {
	guildID    string
	identities []string
	sessions   map[string]*discordgo.Session
	logger     logging.Logger

	mu           sync.Mutex
	userIDs      map[string]string // identity -> bot user id, resolved lazily
	channels     map[string]string // channel name -> id
	channelOrder []string
}

var _ capability.Messaging = (*Adapter)(nil)

// New builds the adapter from a guild id and a token per identity. Sessions
// are REST-only; no gateway connection is opened.
func New(guildID string, tokens map[string]string, optFns ...func(o *Options)) (*Adapter, error) {
	if guildID == "" {
		return nil, fmt.Errorf("discord: guild id is required")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("discord: at least one identity token is required")
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Adapter{
		guildID:  guildID,
		sessions: make(map[string]*discordgo.Session, len(tokens)),
		logger:   opts.Logger,
		userIDs:  make(map[string]string),
		channels: make(map[string]string),
	}
	for identity, token := range tokens {
		session, err := discordgo.New("Bot " + token)
		if err != nil {
			return nil, fmt.Errorf("discord: session for %s: %w", identity, err)
		}
		a.sessions[identity] = session
		a.identities = append(a.identities, identity)
	}
	sort.Strings(a.identities)

	return a, nil
}

// adminSession is the session used for channel management calls.
func (a *Adapter) adminSession() *discordgo.Session {
	return a.sessions[a.identities[0]]
}

func (a *Adapter) session(identity string) (*discordgo.Session, error) {
	if s, ok := a.sessions[identity]; ok {
		return s, nil
	}
	// Identities without a dedicated token fall back to the admin session.
	a.logger.Debug("no dedicated session for identity, using admin session", "identity", identity)
	return a.adminSession(), nil
}

// EnsureChannel finds the named text channel in the guild or creates it.
func (a *Adapter) EnsureChannel(ctx context.Context, name string) (capability.Channel, error) {
	a.mu.Lock()
	if id, ok := a.channels[name]; ok {
		a.mu.Unlock()
		return capability.Channel{ID: id, AlreadyExisted: true}, nil
	}
	a.mu.Unlock()

	s := a.adminSession()
	existing, err := s.GuildChannels(a.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return capability.Channel{}, fmt.Errorf("discord: list channels: %w", err)
	}
	for _, ch := range existing {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			a.registerChannel(name, ch.ID)
			return capability.Channel{ID: ch.ID, AlreadyExisted: true}, nil
		}
	}

	ch, err := s.GuildChannelCreate(a.guildID, name, discordgo.ChannelTypeGuildText, discordgo.WithContext(ctx))
	if err != nil {
		return capability.Channel{}, fmt.Errorf("discord: create channel %s: %w", name, err)
	}
	a.registerChannel(name, ch.ID)
	a.logger.Info("discord channel created", "channel", name, "id", ch.ID)
	return capability.Channel{ID: ch.ID}, nil
}

func (a *Adapter) registerChannel(name, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.channels[name]; ok {
		return
	}
	a.channels[name] = id
	a.channelOrder = append(a.channelOrder, name)
}

// EnsureMember grants the identity's bot user access to the channel via a
// member permission overwrite.
func (a *Adapter) EnsureMember(ctx context.Context, channelID, identity string) error {
	s, err := a.session(identity)
	if err != nil {
		return err
	}
	userID, err := a.resolveUserID(ctx, identity, s)
	if err != nil {
		return err
	}

	allow := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory)
	if err := a.adminSession().ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, allow, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: grant %s access to channel: %w", identity, err)
	}
	return nil
}

func (a *Adapter) resolveUserID(ctx context.Context, identity string, s *discordgo.Session) (string, error) {
	a.mu.Lock()
	if id, ok := a.userIDs[identity]; ok {
		a.mu.Unlock()
		return id, nil
	}
	a.mu.Unlock()

	user, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: resolve bot user for %s: %w", identity, err)
	}
	a.mu.Lock()
	a.userIDs[identity] = user.ID
	a.mu.Unlock()
	return user.ID, nil
}

// Post sends text to the named channel as the identity's bot user, chunking
// messages over the Discord length limit at paragraph boundaries.
func (a *Adapter) Post(ctx context.Context, channel, identity, text string) (capability.Receipt, error) {
	ch, err := a.EnsureChannel(ctx, channel)
	if err != nil {
		return capability.Receipt{}, err
	}
	s, err := a.session(identity)
	if err != nil {
		return capability.Receipt{}, err
	}

	for _, chunk := range chunkMessage(text) {
		if _, err := s.ChannelMessageSend(ch.ID, chunk, discordgo.WithContext(ctx)); err != nil {
			return capability.Receipt{}, fmt.Errorf("discord: post to %s: %w", channel, err)
		}
	}
	return capability.Receipt{Success: true}, nil
}

// Channels returns the channel names this adapter has seen, in registration
// order.
func (a *Adapter) Channels() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.channelOrder...)
}

// chunkMessage splits text into Discord-sized chunks, preferring paragraph
// boundaries and falling back to a hard split for oversized paragraphs.
func chunkMessage(text string) []string {
	if len(text) <= MaxMessageLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		for len(paragraph) > MaxMessageLen {
			flush()
			chunks = append(chunks, paragraph[:MaxMessageLen])
			paragraph = paragraph[MaxMessageLen:]
		}
		if current.Len()+len(paragraph)+2 > MaxMessageLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}
