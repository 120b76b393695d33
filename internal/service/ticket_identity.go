package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/registry"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// HasExistingTicket reports whether requester already has an OPEN or CLAIMED
// ticket, or an in-flight creation, in category.
func (s *TicketService) HasExistingTicket(ctx context.Context, requester domain.User, category string) (bool, error) {
	if s.registry.HasActiveTicket(requester.ID, category) {
		return true, nil
	}
	held, err := s.registry.Held(ctx, registry.TicketKey(requester.ID, category))
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	return held, nil
}

// NextTicketSequence returns the number of channels under the ticket category
// plus one. Two tickets may share a number after concurrent deletions.
func (s *TicketService) NextTicketSequence(ctx context.Context) (int, error) {
	children, err := s.guild.ChannelsUnder(ctx, s.guildCfg.TicketCategoryID)
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return 0, apperrors.NewCategoryNotFound(s.guildCfg.TicketCategoryID, err)
		}
		return 0, apperrors.NewInternalError(err)
	}
	return len(children) + 1, nil
}

// TicketChannelName is ticket-<sequence>-<lower-cased username>.
func TicketChannelName(sequence int, requester domain.User) string {
	return fmt.Sprintf("ticket-%d-%s", sequence, requester.NormalizedUsername())
}

// TicketOverwrites hides the channel from everyone except the requester and
// the support role.
func TicketOverwrites(everyoneID, requesterID, supportRoleID string) []platform.Overwrite {
	return []platform.Overwrite{
		{ID: everyoneID, Kind: platform.OverwriteRole, Deny: platform.PermissionViewChannel},
		{ID: requesterID, Kind: platform.OverwriteMember, Allow: platform.PermissionViewChannel | platform.PermissionSendMessages},
		{
			ID:   supportRoleID,
			Kind: platform.OverwriteRole,
			Allow: platform.PermissionViewChannel | platform.PermissionSendMessages |
				platform.PermissionManageChannels | platform.PermissionManageMessages,
		},
	}
}

const (
	ticketChannelPrefix = "ticket-"
	claimTopicPrefix    = "Claimed by: "
)

// reserveTicket takes the duplicate reservation for key. A reservation still
// bound to a ticket channel that no longer exists is dropped and retaken.
func (s *TicketService) reserveTicket(ctx context.Context, key string) (bool, error) {
	reserved, err := s.registry.Reserve(ctx, key)
	if err != nil || reserved {
		return reserved, err
	}
	owner, held, err := s.registry.Owner(ctx, key)
	if err != nil {
		return false, err
	}
	if held {
		if owner == "" {
			return false, nil
		}
		if _, tracked := s.registry.Ticket(owner); tracked {
			return false, nil
		}
		if _, err := s.guild.Channel(ctx, owner); !errors.Is(err, platform.ErrChannelNotFound) {
			return false, nil
		}
		released, err := s.registry.ReleaseOwned(ctx, key, owner)
		if err != nil || !released {
			return false, err
		}
		s.logger.Info("dropped reservation of deleted ticket channel",
			zap.String("key", key),
			zap.String("channel_id", owner))
	}
	return s.registry.Reserve(ctx, key)
}

// trackedTicket returns the ticket behind channelID. A ticket channel the
// registry does not know, such as one created before a restart, is rebuilt
// from the channel and adopted.
func (s *TicketService) trackedTicket(ctx context.Context, channelID string) (domain.Ticket, error) {
	if t, ok := s.registry.Ticket(channelID); ok {
		return t, nil
	}
	ch, err := s.guild.Channel(ctx, channelID)
	if err != nil {
		return domain.Ticket{}, apperrors.NewChannelNotFound(channelID, err)
	}
	t, ok := s.recoverTicket(ctx, ch)
	if !ok {
		return domain.Ticket{}, notATicket(channelID)
	}
	adopted := s.registry.AdoptTicket(t)
	if adopted.Requester.ID != "" && adopted.Category != "" {
		key := registry.TicketKey(adopted.Requester.ID, adopted.Category)
		if reserved, err := s.registry.Reserve(ctx, key); err == nil && reserved {
			if err := s.registry.Bind(ctx, key, channelID); err != nil {
				s.logger.Warn("failed to bind ticket reservation", zap.String("key", key), zap.Error(err))
			}
		}
	}
	s.logger.Info("adopted untracked ticket channel",
		zap.String("channel_id", channelID),
		zap.String("channel", ch.Name),
		zap.String("requester_id", adopted.Requester.ID),
		zap.String("category", adopted.Category))
	return adopted, nil
}

// recoverTicket rebuilds a ticket from a ticket-<N>-<username> channel under
// the ticket category. The requester comes from the member overwrite; the
// form fields come from the intake message when it is still in history.
func (s *TicketService) recoverTicket(ctx context.Context, ch platform.Channel) (domain.Ticket, bool) {
	if ch.ParentID != s.guildCfg.TicketCategoryID || !strings.HasPrefix(ch.Name, ticketChannelPrefix) {
		return domain.Ticket{}, false
	}
	parts := strings.SplitN(strings.TrimPrefix(ch.Name, ticketChannelPrefix), "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return domain.Ticket{}, false
	}
	sequence, err := strconv.Atoi(parts[0])
	if err != nil {
		return domain.Ticket{}, false
	}

	requester := domain.User{Username: parts[1]}
	for _, ow := range ch.Overwrites {
		if ow.Kind == platform.OverwriteMember {
			requester.ID = ow.ID
			break
		}
	}
	if requester.ID == "" {
		member, err := s.guild.FindMemberByUsername(ctx, parts[1])
		if err != nil {
			return domain.Ticket{}, false
		}
		requester = member
	}

	t := domain.Ticket{
		Sequence:  sequence,
		Requester: requester,
		Status:    domain.TicketStatusOpen,
		Channel:   ch.ChannelRef,
		CreatedAt: s.now(),
	}
	if tag, ok := strings.CutPrefix(ch.Topic, claimTopicPrefix); ok && tag != "" {
		t.Status = domain.TicketStatusClaimed
		t.Claimant = &domain.User{Username: tag, Tag: tag}
	}

	msgs, err := s.guild.FetchMessages(ctx, ch.ID, platform.MessageQuery{})
	if err != nil {
		s.logger.Warn("failed to read history of untracked ticket", zap.String("channel_id", ch.ID), zap.Error(err))
		return t, true
	}
	if len(msgs) > 0 {
		t.CreatedAt = msgs[0].CreatedAt
	}
	for _, m := range msgs {
		if s.parseIntakeFields(m.Content, &t) {
			break
		}
	}
	return t, true
}

// parseIntakeFields reads the form fields of the intake notice into t.
func (s *TicketService) parseIntakeFields(content string, t *domain.Ticket) bool {
	found := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "**Category:** "); ok {
			t.Category = strings.TrimSpace(v)
			found = true
		} else if v, ok := strings.CutPrefix(line, "**Priority:** "); ok {
			if profile, ok := s.catalog.Get(strings.TrimSpace(v)); ok {
				t.Priority = profile
			}
		} else if v, ok := strings.CutPrefix(line, "**Description:** "); ok {
			t.Description = strings.TrimSpace(v)
		}
	}
	return found
}

func notATicket(channelID string) error {
	de := apperrors.NewChannelNotFound(channelID, registry.ErrNotTracked).(*apperrors.DomainError)
	de.Message = "channel " + channelID + " is not a ticket channel"
	return de
}
