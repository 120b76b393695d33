// Package bridge implements platform.Guild over HTTP against the dispatch
// glue process that holds the chat-platform session.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// Config configures the bridge client.
type Config struct {
	BaseURL string
	Token   string
	// GuildID doubles as the id of the guild-everyone role.
	GuildID string
	Timeout time.Duration
}

// Client talks to the dispatch glue's platform endpoints.
type Client struct {
	baseURL string
	token   string
	guildID string
	timeout time.Duration
	logger  *zap.Logger
}

var _ platform.Guild = (*Client)(nil)

// NewClient builds a client. It does not contact the glue.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		guildID: cfg.GuildID,
		timeout: timeout,
		logger:  logger,
	}
}

// APIError is a non-2xx reply from the glue.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bridge: %d %s: %s", e.Status, e.Code, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type userWire struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tag      string `json:"tag"`
}

func (u userWire) domain() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Tag: u.Tag}
}

type channelWire struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	ParentID   string               `json:"parent_id"`
	Topic      string               `json:"topic"`
	Overwrites []platform.Overwrite `json:"overwrites"`
}

func (c channelWire) platform() platform.Channel {
	return platform.Channel{
		ChannelRef: domain.ChannelRef{ID: c.ID, Name: c.Name, ParentID: c.ParentID, Topic: c.Topic},
		Overwrites: c.Overwrites,
	}
}

type messageWire struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Author    userWire  `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m messageWire) platform() platform.Message {
	return platform.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Author:    m.Author.domain(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (c *Client) EveryoneID() string {
	return c.guildID
}

func (c *Client) CreateChannel(ctx context.Context, spec platform.ChannelSpec) (platform.Channel, error) {
	var out channelWire
	if err := c.do(ctx, fiber.MethodPost, "/channels", spec, &out, nil); err != nil {
		return platform.Channel{}, err
	}
	return out.platform(), nil
}

func (c *Client) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	var out channelWire
	if err := c.do(ctx, fiber.MethodGet, "/channels/"+url.PathEscape(channelID), nil, &out, platform.ErrChannelNotFound); err != nil {
		return platform.Channel{}, err
	}
	return out.platform(), nil
}

func (c *Client) ChannelsUnder(ctx context.Context, parentID string) ([]platform.Channel, error) {
	var out []channelWire
	path := "/channels?parent_id=" + url.QueryEscape(parentID)
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out, platform.ErrChannelNotFound); err != nil {
		return nil, err
	}
	channels := make([]platform.Channel, len(out))
	for i, ch := range out {
		channels[i] = ch.platform()
	}
	return channels, nil
}

func (c *Client) Send(ctx context.Context, channelID string, msg platform.OutgoingMessage) (platform.Message, error) {
	var out messageWire
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	if err := c.do(ctx, fiber.MethodPost, path, msg, &out, platform.ErrChannelNotFound); err != nil {
		return platform.Message{}, err
	}
	return out.platform(), nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, fiber.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, nil, platform.ErrChannelNotFound)
}

func (c *Client) SetTopic(ctx context.Context, channelID, topic string) error {
	body := map[string]string{"topic": topic}
	return c.do(ctx, fiber.MethodPatch, "/channels/"+url.PathEscape(channelID), body, nil, platform.ErrChannelNotFound)
}

func (c *Client) FetchMessages(ctx context.Context, channelID string, query platform.MessageQuery) ([]platform.Message, error) {
	var out []messageWire
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	if query.Limit > 0 {
		path += "?limit=" + strconv.Itoa(query.Limit)
	}
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out, platform.ErrChannelNotFound); err != nil {
		return nil, err
	}
	msgs := make([]platform.Message, len(out))
	for i, m := range out {
		msgs[i] = m.platform()
	}
	return msgs, nil
}

func (c *Client) ResolveRole(ctx context.Context, roleID string) (platform.Role, error) {
	var out platform.Role
	if roleID == "" {
		return out, platform.ErrRoleNotFound
	}
	if err := c.do(ctx, fiber.MethodGet, "/roles/"+url.PathEscape(roleID), nil, &out, platform.ErrRoleNotFound); err != nil {
		return platform.Role{}, err
	}
	return out, nil
}

func (c *Client) FindMemberByUsername(ctx context.Context, username string) (domain.User, error) {
	var out userWire
	path := "/members?username=" + url.QueryEscape(username)
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out, platform.ErrMemberNotFound); err != nil {
		return domain.User{}, err
	}
	return out.domain(), nil
}

func (c *Client) SendDirect(ctx context.Context, userID string, msg platform.OutgoingMessage) (platform.Message, error) {
	var out messageWire
	path := "/users/" + url.PathEscape(userID) + "/messages"
	if err := c.do(ctx, fiber.MethodPost, path, msg, &out, platform.ErrMemberNotFound); err != nil {
		return platform.Message{}, err
	}
	return out.platform(), nil
}

// do performs one request. A 404 maps to notFound when it is set.
func (c *Client) do(ctx context.Context, method, path string, in, out any, notFound error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	agent.Timeout(timeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if in != nil {
		agent.JSON(in)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("bridge %s %s: %w", method, path, err)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.logger.Warn("bridge request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Errors("errors", errs))
		return fmt.Errorf("bridge %s %s: %w", method, path, errors.Join(errs...))
	}

	if status == fiber.StatusNotFound && notFound != nil {
		return notFound
	}
	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("bridge %s %s: decode: %w", method, path, err)
	}
	return nil
}
