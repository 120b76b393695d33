// Package memory implements platform.Guild in process. It backs the sandbox
// mode of the bot and the package tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// Guild is an in-memory guild.
type Guild struct {
	mu         sync.Mutex
	id         string
	bot        domain.User
	now        func() time.Time
	channels   map[string]*channel
	roles      map[string]platform.Role
	members    map[string]domain.User
	directs    map[string][]platform.Message
	deleteErrs map[string]error
	order      int
	open       bool
}

type channel struct {
	platform.Channel
	created  int
	messages []platform.Message
	uploads  []platform.Attachment
}

// Option configures a Guild.
type Option func(*Guild)

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Guild) { g.now = now }
}

// WithBotUser sets the identity that authors messages sent by the core.
func WithBotUser(u domain.User) Option {
	return func(g *Guild) { g.bot = u }
}

// WithOpenMembership treats every user the core addresses as a member: member
// overwrites and direct messages register unknown user ids.
func WithOpenMembership() Option {
	return func(g *Guild) { g.open = true }
}

// NewGuild returns an empty guild with the given id.
func NewGuild(id string, opts ...Option) *Guild {
	g := &Guild{
		id:         id,
		bot:        domain.User{ID: "bot", Username: "ticketbot", Tag: "TicketBot#0000"},
		now:        time.Now,
		channels:   make(map[string]*channel),
		roles:      make(map[string]platform.Role),
		members:    make(map[string]domain.User),
		directs:    make(map[string][]platform.Message),
		deleteErrs: make(map[string]error),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EveryoneID is the guild id, which doubles as the everyone role.
func (g *Guild) EveryoneID() string {
	return g.id
}

// AddRole registers a role.
func (g *Guild) AddRole(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[id] = platform.Role{ID: id, Name: name}
}

// AddMember registers a guild member.
func (g *Guild) AddMember(u domain.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[u.ID] = u
}

// AddChannel registers a pre-existing channel such as a category or the
// transcript archive.
func (g *Guild) AddChannel(id, name, parentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.order++
	g.channels[id] = &channel{
		Channel: platform.Channel{ChannelRef: domain.ChannelRef{ID: id, Name: name, ParentID: parentID}},
		created: g.order,
	}
}

// Post appends a message authored by author at the given time, simulating
// user activity.
func (g *Guild) Post(channelID string, author domain.User, content string, at time.Time) (platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return platform.Message{}, platform.ErrChannelNotFound
	}
	msg := platform.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Author:    author,
		Content:   content,
		CreatedAt: at,
	}
	ch.messages = append(ch.messages, msg)
	return msg, nil
}

// FailDelete makes the next DeleteChannel call for channelID return err.
func (g *Guild) FailDelete(channelID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteErrs[channelID] = err
}

// Uploads returns attachments uploaded to a channel.
func (g *Guild) Uploads(channelID string) []platform.Attachment {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return nil
	}
	return append([]platform.Attachment(nil), ch.uploads...)
}

// DirectMessages returns the direct messages sent to a user.
func (g *Guild) DirectMessages(userID string) []platform.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]platform.Message(nil), g.directs[userID]...)
}

// HasChannel reports whether the channel exists.
func (g *Guild) HasChannel(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[channelID]
	return ok
}

func (g *Guild) CreateChannel(_ context.Context, spec platform.ChannelSpec) (platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if spec.ParentID != "" {
		if _, ok := g.channels[spec.ParentID]; !ok {
			return platform.Channel{}, platform.ErrChannelNotFound
		}
	}
	if g.open {
		for _, ow := range spec.Overwrites {
			if _, known := g.members[ow.ID]; ow.Kind == platform.OverwriteMember && !known {
				g.members[ow.ID] = domain.User{ID: ow.ID}
			}
		}
	}
	g.order++
	ch := &channel{
		Channel: platform.Channel{
			ChannelRef: domain.ChannelRef{
				ID:       uuid.NewString(),
				Name:     spec.Name,
				ParentID: spec.ParentID,
				Topic:    spec.Topic,
			},
			Overwrites: append([]platform.Overwrite(nil), spec.Overwrites...),
		},
		created: g.order,
	}
	g.channels[ch.ID] = ch
	return ch.Channel, nil
}

func (g *Guild) Channel(_ context.Context, channelID string) (platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return platform.Channel{}, platform.ErrChannelNotFound
	}
	return ch.Channel, nil
}

func (g *Guild) ChannelsUnder(_ context.Context, parentID string) ([]platform.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[parentID]; !ok {
		return nil, platform.ErrChannelNotFound
	}
	var children []*channel
	for _, ch := range g.channels {
		if ch.ParentID == parentID {
			children = append(children, ch)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].created < children[j].created })
	out := make([]platform.Channel, len(children))
	for i, ch := range children {
		out[i] = ch.Channel
	}
	return out, nil
}

func (g *Guild) Send(_ context.Context, channelID string, msg platform.OutgoingMessage) (platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return platform.Message{}, platform.ErrChannelNotFound
	}
	posted := platform.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		Author:    g.bot,
		Content:   renderContent(msg),
		CreatedAt: g.now(),
	}
	ch.messages = append(ch.messages, posted)
	ch.uploads = append(ch.uploads, msg.Attachments...)
	return posted, nil
}

func (g *Guild) DeleteChannel(_ context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.deleteErrs[channelID]; ok {
		delete(g.deleteErrs, channelID)
		return err
	}
	if _, ok := g.channels[channelID]; !ok {
		return platform.ErrChannelNotFound
	}
	delete(g.channels, channelID)
	return nil
}

func (g *Guild) SetTopic(_ context.Context, channelID, topic string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return platform.ErrChannelNotFound
	}
	ch.Topic = topic
	return nil
}

func (g *Guild) FetchMessages(_ context.Context, channelID string, query platform.MessageQuery) ([]platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, platform.ErrChannelNotFound
	}
	msgs := ch.messages
	if query.Limit > 0 && len(msgs) > query.Limit {
		msgs = msgs[len(msgs)-query.Limit:]
	}
	return append([]platform.Message(nil), msgs...), nil
}

func (g *Guild) ResolveRole(_ context.Context, roleID string) (platform.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	role, ok := g.roles[roleID]
	if !ok {
		return platform.Role{}, platform.ErrRoleNotFound
	}
	return role, nil
}

func (g *Guild) FindMemberByUsername(_ context.Context, username string) (domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.members {
		if m.Username != "" && strings.EqualFold(m.Username, username) {
			return m, nil
		}
	}
	return domain.User{}, platform.ErrMemberNotFound
}

func (g *Guild) SendDirect(_ context.Context, userID string, msg platform.OutgoingMessage) (platform.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.members[userID]; !ok {
		if !g.open || userID == "" {
			return platform.Message{}, platform.ErrMemberNotFound
		}
		g.members[userID] = domain.User{ID: userID}
	}
	posted := platform.Message{
		ID:        uuid.NewString(),
		Author:    g.bot,
		Content:   renderContent(msg),
		CreatedAt: g.now(),
	}
	g.directs[userID] = append(g.directs[userID], posted)
	return posted, nil
}

// renderContent flattens an outgoing message into the text stored in history.
func renderContent(msg platform.OutgoingMessage) string {
	parts := []string{}
	if msg.Content != "" {
		parts = append(parts, msg.Content)
	}
	for _, e := range msg.Embeds {
		if e.Title != "" {
			parts = append(parts, e.Title)
		}
		if e.Description != "" {
			parts = append(parts, e.Description)
		}
		for _, f := range e.Fields {
			parts = append(parts, f.Name+": "+f.Value)
		}
	}
	for _, a := range msg.Attachments {
		parts = append(parts, "["+a.Name+"]")
	}
	return strings.Join(parts, "\n")
}
