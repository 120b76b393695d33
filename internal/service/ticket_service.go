package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/internal/stats"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	guild      platform.Guild
	registry   *registry.Registry
	stats      *stats.Store
	catalog    *domain.PriorityCatalog
	scheduler  Scheduler
	dispatcher events.Dispatcher
	logger     *zap.Logger
	guildCfg   config.GuildConfig
	ticketCfg  config.TicketConfig
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Guild      platform.Guild
	Registry   *registry.Registry
	Stats      *stats.Store
	Catalog    *domain.PriorityCatalog
	Scheduler  Scheduler
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	GuildCfg   config.GuildConfig
	TicketCfg  config.TicketConfig
	Now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		guild:      deps.Guild,
		registry:   deps.Registry,
		stats:      deps.Stats,
		catalog:    deps.Catalog,
		scheduler:  deps.Scheduler,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		guildCfg:   deps.GuildCfg,
		ticketCfg:  deps.TicketCfg,
		now:        deps.Now,
	}
	if s.catalog == nil {
		s.catalog = domain.DefaultPriorityCatalog()
	}
	if s.stats == nil {
		s.stats = stats.NewStore()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Catalog returns the priority catalog in use.
func (s *TicketService) Catalog() *domain.PriorityCatalog {
	return s.catalog
}

// CreateTicket opens a private ticket channel for requester.
func (s *TicketService) CreateTicket(ctx context.Context, requester domain.User, intake domain.TicketIntake) (*domain.Ticket, error) {
	intake = intake.Normalize()
	if err := intake.Validate(s.catalog); err != nil {
		return nil, err
	}
	profile, _ := s.catalog.Get(intake.Priority)

	if s.registry.HasActiveTicket(requester.ID, intake.Category) {
		return nil, apperrors.NewDuplicateTicket(requester.ID, intake.Category)
	}
	key := registry.TicketKey(requester.ID, intake.Category)
	reserved, err := s.reserveTicket(ctx, key)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !reserved {
		return nil, apperrors.NewDuplicateTicket(requester.ID, intake.Category)
	}
	keep := false
	defer func() {
		if !keep {
			s.releaseReservation(key)
		}
	}()

	if _, err := s.guild.Channel(ctx, s.guildCfg.TicketCategoryID); err != nil {
		return nil, s.fail(ctx, "create_ticket", "", apperrors.NewCategoryNotFound(s.guildCfg.TicketCategoryID, err))
	}
	supportRole, err := s.guild.ResolveRole(ctx, s.guildCfg.SupportRoleID)
	if err != nil {
		return nil, s.fail(ctx, "create_ticket", "", apperrors.NewRoleNotFound(s.guildCfg.SupportRoleID, err))
	}
	sequence, err := s.NextTicketSequence(ctx)
	if err != nil {
		return nil, s.fail(ctx, "create_ticket", "", err)
	}

	ch, err := s.guild.CreateChannel(ctx, platform.ChannelSpec{
		Name:       TicketChannelName(sequence, requester),
		ParentID:   s.guildCfg.TicketCategoryID,
		Overwrites: TicketOverwrites(s.guild.EveryoneID(), requester.ID, supportRole.ID),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	ticket := domain.Ticket{
		Sequence:    sequence,
		Requester:   requester,
		Category:    intake.Category,
		Priority:    profile,
		Description: intake.Description,
		Status:      domain.TicketStatusOpen,
		Channel:     ch.ChannelRef,
		CreatedAt:   now,
	}
	if err := s.postIntake(ctx, ticket); err != nil {
		if delErr := s.guild.DeleteChannel(ctx, ch.ID); delErr != nil {
			s.logger.Error("failed to remove half-created ticket channel",
				zap.String("channel_id", ch.ID), zap.Error(delErr))
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.registry.PutTicket(ticket)
	keep = true
	s.stats.TicketOpened()
	if err := s.registry.Bind(ctx, key, ch.ID); err != nil {
		s.logger.Warn("failed to bind ticket reservation", zap.String("key", key), zap.Error(err))
	}

	s.logger.Info("ticket created",
		zap.String("channel_id", ch.ID),
		zap.String("channel", ch.Name),
		zap.String("requester_id", requester.ID),
		zap.String("category", ticket.Category),
		zap.String("priority", string(profile.Level)))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketCreated,
		ChannelID: ch.ID,
		Actor:     events.ActorFrom(requester),
		Payload: events.TicketCreatedPayload{
			Sequence:    sequence,
			Category:    ticket.Category,
			Priority:    profile.Level,
			RequesterID: requester.ID,
		},
	})
	return &ticket, nil
}

func (s *TicketService) postIntake(ctx context.Context, ticket domain.Ticket) error {
	mention := ""
	if tierRole := s.guildCfg.SupportTiers["TIER1"]; tierRole != "" {
		if role, err := s.guild.ResolveRole(ctx, tierRole); err == nil {
			mention = "<@&" + role.ID + ">"
		} else {
			s.logger.Warn("tier1 support role not resolvable", zap.String("role_id", tierRole), zap.Error(err))
		}
	}
	if _, err := s.guild.Send(ctx, ticket.Channel.ID, ticketIntakeMessage(ticket, mention, ticket.CreatedAt)); err != nil {
		return err
	}
	_, err := s.guild.Send(ctx, ticket.Channel.ID, priorityNotice(ticket.Priority))
	return err
}

var errSameClaimant = errors.New("ticket already claimed by this user")

// sameUser matches by id, or by tag for a claimant recovered from a topic.
func sameUser(claimed, u domain.User) bool {
	if claimed.ID == "" {
		return claimed.DisplayTag() == u.DisplayTag()
	}
	return claimed.ID == u.ID
}

// ClaimTicket assigns the ticket behind channelID to claimant.
func (s *TicketService) ClaimTicket(ctx context.Context, channelID string, claimant domain.User) (*domain.Ticket, error) {
	if _, err := s.trackedTicket(ctx, channelID); err != nil {
		return nil, err
	}
	now := s.now()
	var previous *domain.User
	firstClaim := false

	ticket, err := s.registry.UpdateTicket(channelID, func(t *domain.Ticket) error {
		if !t.Status.Active() {
			return apperrors.NewTicketClosing(channelID)
		}
		if t.Claimant != nil {
			if sameUser(*t.Claimant, claimant) {
				return errSameClaimant
			}
			if s.ticketCfg.ClaimPolicy != config.ClaimPolicyAllowReclaim {
				return apperrors.NewTicketAlreadyClaimed(channelID, t.Claimant.DisplayTag())
			}
			prev := *t.Claimant
			previous = &prev
		} else {
			firstClaim = true
			t.ClaimedAt = &now
		}
		c := claimant
		t.Claimant = &c
		t.Status = domain.TicketStatusClaimed
		t.Channel.Topic = claimTopic(claimant)
		return nil
	})
	if errors.Is(err, errSameClaimant) {
		return &ticket, nil
	}
	if err != nil {
		return nil, s.lookupError(ctx, channelID, err)
	}

	if _, err := s.guild.Send(ctx, channelID, claimNotice(claimant)); err != nil {
		return nil, s.platformError(channelID, err)
	}
	if err := s.guild.SetTopic(ctx, channelID, claimTopic(claimant)); err != nil {
		return nil, s.platformError(channelID, err)
	}

	payload := events.TicketClaimedPayload{}
	if previous != nil {
		payload.PreviousClaimantID = previous.ID
	}
	if firstClaim {
		payload.ResponseTime = now.Sub(ticket.CreatedAt)
		s.stats.TicketClaimed(payload.ResponseTime)
	}
	s.logger.Info("ticket claimed",
		zap.String("channel_id", channelID),
		zap.String("claimant_id", claimant.ID),
		zap.Bool("reclaim", previous != nil))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketClaimed,
		ChannelID: channelID,
		Actor:     events.ActorFrom(claimant),
		Payload:   payload,
	})
	return &ticket, nil
}

// CloseTicket moves the ticket to CLOSING, archives its transcript and
// schedules the channel deletion after the configured grace delay.
func (s *TicketService) CloseTicket(ctx context.Context, channelID string, closer domain.User) error {
	return s.closeTicket(ctx, channelID, closer, false)
}

// AutoCloseTicket closes a ticket on behalf of the inactivity monitor.
func (s *TicketService) AutoCloseTicket(ctx context.Context, channelID string) error {
	return s.closeTicket(ctx, channelID, domain.User{ID: SystemUserID, Username: "system", Tag: "inactivity monitor"}, true)
}

func (s *TicketService) closeTicket(ctx context.Context, channelID string, closer domain.User, automatic bool) error {
	if _, err := s.trackedTicket(ctx, channelID); err != nil {
		return err
	}
	var oldStatus domain.TicketStatus
	ticket, err := s.registry.UpdateTicket(channelID, func(t *domain.Ticket) error {
		if !t.Status.Active() {
			return apperrors.NewTicketClosing(channelID)
		}
		oldStatus = t.Status
		t.Status = domain.TicketStatusClosing
		return nil
	})
	if err != nil {
		return s.lookupError(ctx, channelID, err)
	}

	if _, err := s.guild.Send(ctx, channelID, closingNotice(closer)); err != nil {
		s.revertStatus(channelID, oldStatus)
		return s.platformError(channelID, err)
	}
	if _, err := s.CreateTranscript(ctx, channelID); err != nil {
		s.revertStatus(channelID, oldStatus)
		return err
	}

	closedAt := s.now()
	ticket, _ = s.registry.UpdateTicket(channelID, func(t *domain.Ticket) error {
		t.ClosedAt = &closedAt
		return nil
	})
	s.stats.TicketClosed()

	s.logger.Info("ticket closing",
		zap.String("channel_id", channelID),
		zap.String("closer_id", closer.ID),
		zap.Bool("automatic", automatic),
		zap.Duration("grace", s.ticketCfg.CloseGrace()))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketClosed,
		ChannelID: channelID,
		Actor:     events.ActorFrom(closer),
		Payload:   events.TicketClosedPayload{OldStatus: oldStatus, Automatic: automatic},
	})

	s.scheduler.After(s.ticketCfg.CloseGrace(), "delete ticket channel", func(ctx context.Context) {
		s.finishClose(ctx, ticket)
	})
	return nil
}

// finishClose deletes the ticket channel once. A failed delete is logged and
// not retried; the ticket is released either way.
func (s *TicketService) finishClose(ctx context.Context, ticket domain.Ticket) {
	channelID := ticket.Channel.ID
	payload := events.TicketDeletedPayload{}
	if err := s.guild.DeleteChannel(ctx, channelID); err != nil {
		payload.Error = err.Error()
		s.logger.Error("failed to delete ticket channel",
			zap.String("channel_id", channelID),
			zap.String("channel", ticket.Channel.Name),
			zap.Error(err))
	}
	s.registry.UpdateTicket(channelID, func(t *domain.Ticket) error { //nolint:errcheck
		t.Status = domain.TicketStatusClosed
		return nil
	})
	s.registry.RemoveTicket(channelID)
	s.releaseTicketReservation(ticket)
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTicketDeleted,
		ChannelID: channelID,
		Payload:   payload,
	})
}

// Ticket returns the tracked ticket behind channelID.
func (s *TicketService) Ticket(ctx context.Context, channelID string) (*domain.Ticket, error) {
	t, ok := s.registry.Ticket(channelID)
	if !ok {
		return nil, s.lookupError(ctx, channelID, registry.ErrNotTracked)
	}
	return &t, nil
}

// ListOpenTickets returns OPEN and CLAIMED tickets.
func (s *TicketService) ListOpenTickets() []domain.Ticket {
	return s.registry.ActiveTickets()
}

// Statistics returns the current counters.
func (s *TicketService) Statistics() stats.Snapshot {
	return s.stats.Snapshot()
}

func (s *TicketService) revertStatus(channelID string, status domain.TicketStatus) {
	s.registry.UpdateTicket(channelID, func(t *domain.Ticket) error { //nolint:errcheck
		t.Status = status
		return nil
	})
}

// releaseTicketReservation frees the reservation of a finished ticket unless
// it has since been bound to another channel of the same requester.
func (s *TicketService) releaseTicketReservation(ticket domain.Ticket) {
	if ticket.Category == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key := registry.TicketKey(ticket.Requester.ID, ticket.Category)
	owner, held, err := s.registry.Owner(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read ticket reservation", zap.String("key", key), zap.Error(err))
		return
	}
	if !held {
		return
	}
	if owner == "" {
		s.releaseReservation(key)
		return
	}
	if _, err := s.registry.ReleaseOwned(ctx, key, ticket.Channel.ID); err != nil {
		s.logger.Warn("failed to release ticket reservation", zap.String("key", key), zap.Error(err))
	}
}

func (s *TicketService) releaseReservation(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.registry.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release ticket reservation", zap.String("key", key), zap.Error(err))
	}
}

// lookupError maps registry misses to CHANNEL_NOT_FOUND; other errors pass through.
func (s *TicketService) lookupError(ctx context.Context, channelID string, err error) error {
	if !errors.Is(err, registry.ErrNotTracked) {
		return err
	}
	if _, chErr := s.guild.Channel(ctx, channelID); chErr != nil {
		return apperrors.NewChannelNotFound(channelID, chErr)
	}
	de := apperrors.NewChannelNotFound(channelID, err).(*apperrors.DomainError)
	de.Message = "channel " + channelID + " is not a tracked ticket"
	return de
}

func (s *TicketService) platformError(channelID string, err error) error {
	if errors.Is(err, platform.ErrChannelNotFound) {
		return apperrors.NewChannelNotFound(channelID, err)
	}
	return apperrors.NewInternalError(err)
}

func (s *TicketService) fail(ctx context.Context, operation, channelID string, err error) error {
	if apperrors.IsOperatorError(err) {
		s.logger.Error("misconfiguration", zap.String("operation", operation), zap.Error(err))
	}
	return alertOperators(ctx, s.dispatcher, s.now, operation, channelID, err)
}
