package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/internal/service"
)

// TicketCloser closes tickets on behalf of the monitor.
type TicketCloser interface {
	AutoCloseTicket(ctx context.Context, channelID string) error
}

// InactivityConfig tunes the monitor.
type InactivityConfig struct {
	Interval  time.Duration
	Threshold time.Duration
	Grace     time.Duration
	AutoClose bool
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Checked int
	Warned  int
	Closed  int
	Skipped int
}

// InactivityMonitor periodically warns quiet tickets and, when enabled,
// closes them once the grace period has passed without activity.
type InactivityMonitor struct {
	guild      platform.Guild
	registry   *registry.Registry
	closer     TicketCloser
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        InactivityConfig
	now        func() time.Time
}

// InactivityDependencies bundles collaborators for the monitor.
type InactivityDependencies struct {
	Guild      platform.Guild
	Registry   *registry.Registry
	Closer     TicketCloser
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Config     InactivityConfig
	Now        func() time.Time
}

// NewInactivityMonitor creates the monitor.
func NewInactivityMonitor(deps InactivityDependencies) *InactivityMonitor {
	m := &InactivityMonitor{
		guild:      deps.Guild,
		registry:   deps.Registry,
		closer:     deps.Closer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        deps.Now,
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Run sweeps every Interval until ctx is cancelled.
func (m *InactivityMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Info("inactivity monitor started",
		zap.Duration("interval", m.cfg.Interval),
		zap.Duration("threshold", m.cfg.Threshold),
		zap.Duration("grace", m.cfg.Grace),
		zap.Bool("auto_close", m.cfg.AutoClose))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("inactivity monitor stopping")
			return
		case <-ticker.C:
			result := m.Sweep(ctx)
			m.logger.Info("inactivity sweep finished",
				zap.Int("checked", result.Checked),
				zap.Int("warned", result.Warned),
				zap.Int("closed", result.Closed),
				zap.Int("skipped", result.Skipped))
		}
	}
}

// Sweep checks every OPEN or CLAIMED ticket once.
func (m *InactivityMonitor) Sweep(ctx context.Context) SweepResult {
	var result SweepResult
	for _, t := range m.registry.ActiveTickets() {
		if ctx.Err() != nil {
			return result
		}
		result.Checked++
		switch m.checkTicket(ctx, t) {
		case outcomeWarned:
			result.Warned++
		case outcomeClosed:
			result.Closed++
		case outcomeSkipped:
			result.Skipped++
		}
	}
	return result
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeWarned
	outcomeClosed
	outcomeSkipped
)

func (m *InactivityMonitor) checkTicket(ctx context.Context, t domain.Ticket) outcome {
	channelID := t.Channel.ID
	msgs, err := m.guild.FetchMessages(ctx, channelID, platform.MessageQuery{Limit: 1})
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			m.logger.Debug("ticket channel vanished during sweep", zap.String("channel_id", channelID))
		} else {
			m.logger.Warn("failed to fetch last ticket message", zap.String("channel_id", channelID), zap.Error(err))
		}
		return outcomeSkipped
	}

	now := m.now()
	var last *platform.Message
	if len(msgs) > 0 {
		last = &msgs[len(msgs)-1]
	}

	if t.WarnedAt != nil {
		resumed := last != nil && last.ID != t.WarningMessageID && last.CreatedAt.After(*t.WarnedAt)
		if !resumed {
			if m.cfg.AutoClose && now.Sub(*t.WarnedAt) >= m.cfg.Grace {
				return m.autoClose(ctx, channelID)
			}
			return outcomeNone
		}
		m.clearWarning(channelID)
	}

	quietSince := t.CreatedAt
	if last != nil {
		quietSince = last.CreatedAt
	}
	if now.Sub(quietSince) <= m.cfg.Threshold {
		return outcomeNone
	}
	return m.warn(ctx, t, now.Sub(quietSince))
}

func (m *InactivityMonitor) warn(ctx context.Context, t domain.Ticket, quietFor time.Duration) outcome {
	channelID := t.Channel.ID
	msg, err := m.guild.Send(ctx, channelID, service.InactivityWarning(m.cfg.Threshold, m.cfg.Grace, m.cfg.AutoClose))
	if err != nil {
		if !errors.Is(err, platform.ErrChannelNotFound) {
			m.logger.Warn("failed to post inactivity warning", zap.String("channel_id", channelID), zap.Error(err))
		}
		return outcomeSkipped
	}
	warnedAt := m.now()
	if _, err := m.registry.UpdateTicket(channelID, func(t *domain.Ticket) error {
		t.WarnedAt = &warnedAt
		t.WarningMessageID = msg.ID
		return nil
	}); err != nil {
		return outcomeSkipped
	}

	m.logger.Info("ticket inactive", zap.String("channel_id", channelID), zap.Duration("quiet_for", quietFor))
	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketInactive,
			ChannelID: channelID,
			Timestamp: warnedAt,
			Payload:   events.TicketInactivePayload{QuietFor: quietFor},
		})
	}
	return outcomeWarned
}

func (m *InactivityMonitor) autoClose(ctx context.Context, channelID string) outcome {
	if m.closer == nil {
		return outcomeNone
	}
	if err := m.closer.AutoCloseTicket(ctx, channelID); err != nil {
		m.logger.Warn("auto-close failed", zap.String("channel_id", channelID), zap.Error(err))
		return outcomeSkipped
	}
	return outcomeClosed
}

func (m *InactivityMonitor) clearWarning(channelID string) {
	m.registry.UpdateTicket(channelID, func(t *domain.Ticket) error { //nolint:errcheck
		t.WarnedAt = nil
		t.WarningMessageID = ""
		return nil
	})
}
