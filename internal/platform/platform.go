// Package platform describes the chat-platform capabilities the bot core
// depends on. Implementations live in subpackages.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// Lookup failures returned by implementations.
var (
	ErrChannelNotFound = errors.New("platform: channel not found")
	ErrRoleNotFound    = errors.New("platform: role not found")
	ErrMemberNotFound  = errors.New("platform: member not found")
)

// Permission is a bit set of channel permissions.
type Permission uint64

const (
	PermissionViewChannel Permission = 1 << iota
	PermissionSendMessages
	PermissionManageChannels
	PermissionManageMessages
)

// Has reports whether all bits of q are set.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

// OverwriteKind distinguishes role overwrites from member overwrites.
type OverwriteKind string

const (
	OverwriteRole   OverwriteKind = "role"
	OverwriteMember OverwriteKind = "member"
)

// Overwrite grants or denies permissions to a role or member on a channel.
type Overwrite struct {
	ID    string        `json:"id"`
	Kind  OverwriteKind `json:"kind"`
	Allow Permission    `json:"allow"`
	Deny  Permission    `json:"deny"`
}

// ChannelSpec describes a text channel to create.
type ChannelSpec struct {
	Name       string      `json:"name"`
	ParentID   string      `json:"parent_id"`
	Topic      string      `json:"topic,omitempty"`
	Overwrites []Overwrite `json:"overwrites"`
}

// Channel is a channel as returned by the platform.
type Channel struct {
	domain.ChannelRef
	Overwrites []Overwrite
}

// Role is a guild role.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// EmbedField is a name/value pair rendered inside an embed.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ButtonStyle selects how a button renders.
type ButtonStyle string

const (
	ButtonPrimary   ButtonStyle = "primary"
	ButtonSecondary ButtonStyle = "secondary"
	ButtonSuccess   ButtonStyle = "success"
	ButtonDanger    ButtonStyle = "danger"
)

// Button is an action affordance attached to a message.
type Button struct {
	CustomID string      `json:"custom_id"`
	Label    string      `json:"label"`
	Style    ButtonStyle `json:"style"`
	Emoji    string      `json:"emoji,omitempty"`
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// OutgoingMessage is what the core sends to a channel or user.
type OutgoingMessage struct {
	Content     string       `json:"content,omitempty"`
	Embeds      []Embed      `json:"embeds,omitempty"`
	Buttons     []Button     `json:"buttons,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Message is a posted message.
type Message struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channel_id"`
	Author    domain.User `json:"author"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// MessageQuery filters a history fetch. A zero Limit means the whole history.
type MessageQuery struct {
	Limit int
}

// Guild is the capability surface the core requires from the chat client.
// FetchMessages returns messages oldest first.
type Guild interface {
	EveryoneID() string

	CreateChannel(ctx context.Context, spec ChannelSpec) (Channel, error)
	Channel(ctx context.Context, channelID string) (Channel, error)
	ChannelsUnder(ctx context.Context, parentID string) ([]Channel, error)
	Send(ctx context.Context, channelID string, msg OutgoingMessage) (Message, error)
	DeleteChannel(ctx context.Context, channelID string) error
	SetTopic(ctx context.Context, channelID, topic string) error
	FetchMessages(ctx context.Context, channelID string, query MessageQuery) ([]Message, error)

	ResolveRole(ctx context.Context, roleID string) (Role, error)
	FindMemberByUsername(ctx context.Context, username string) (domain.User, error)
	SendDirect(ctx context.Context, userID string, msg OutgoingMessage) (Message, error)
}
