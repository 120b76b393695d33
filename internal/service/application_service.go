package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/registry"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const applicationChannelPrefix = "apply-"

// ApplicationService handles staff applications.
type ApplicationService struct {
	guild      platform.Guild
	registry   *registry.Registry
	dispatcher events.Dispatcher
	logger     *zap.Logger
	guildCfg   config.GuildConfig
	appCfg     config.ApplicationConfig
	now        func() time.Time
}

// ApplicationDependencies bundles collaborators for the application service.
type ApplicationDependencies struct {
	Guild      platform.Guild
	Registry   *registry.Registry
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	GuildCfg   config.GuildConfig
	AppCfg     config.ApplicationConfig
	Now        func() time.Time
}

// NewApplicationService constructs the service.
func NewApplicationService(deps ApplicationDependencies) *ApplicationService {
	s := &ApplicationService{
		guild:      deps.Guild,
		registry:   deps.Registry,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		guildCfg:   deps.GuildCfg,
		appCfg:     deps.AppCfg,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ApplicationChannelName is apply-<lower-cased username>.
func ApplicationChannelName(applicant domain.User) string {
	return applicationChannelPrefix + applicant.NormalizedUsername()
}

// ApplicationOverwrites lets the applicant read but not write, and staff do both.
func ApplicationOverwrites(everyoneID, applicantID, staffRoleID string) []platform.Overwrite {
	return []platform.Overwrite{
		{ID: everyoneID, Kind: platform.OverwriteRole, Deny: platform.PermissionViewChannel},
		{ID: applicantID, Kind: platform.OverwriteMember, Allow: platform.PermissionViewChannel, Deny: platform.PermissionSendMessages},
		{ID: staffRoleID, Kind: platform.OverwriteRole, Allow: platform.PermissionViewChannel | platform.PermissionSendMessages},
	}
}

// CreateApplication opens a review channel for applicant's form.
func (s *ApplicationService) CreateApplication(ctx context.Context, applicant domain.User, intake domain.ApplicationIntake) (*domain.Application, error) {
	intake = intake.Normalize()
	if err := intake.Validate(); err != nil {
		return nil, err
	}

	key := registry.ApplicationKey(applicant.ID)
	if s.appCfg.Dedup {
		reserved, err := s.registry.Reserve(ctx, key)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !reserved {
			return nil, apperrors.NewDuplicateApplication(applicant.ID)
		}
	}
	keep := false
	defer func() {
		if s.appCfg.Dedup && !keep {
			s.release(key)
		}
	}()

	if _, err := s.guild.Channel(ctx, s.guildCfg.ApplicationCategoryID); err != nil {
		return nil, s.fail(ctx, "create_application", apperrors.NewCategoryNotFound(s.guildCfg.ApplicationCategoryID, err))
	}
	staffRole, err := s.guild.ResolveRole(ctx, s.guildCfg.StaffRoleID)
	if err != nil {
		return nil, s.fail(ctx, "create_application", apperrors.NewRoleNotFound(s.guildCfg.StaffRoleID, err))
	}

	ch, err := s.guild.CreateChannel(ctx, platform.ChannelSpec{
		Name:       ApplicationChannelName(applicant),
		ParentID:   s.guildCfg.ApplicationCategoryID,
		Overwrites: ApplicationOverwrites(s.guild.EveryoneID(), applicant.ID, staffRole.ID),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	if _, err := s.guild.Send(ctx, ch.ID, applicationMessage(applicant, intake, now)); err != nil {
		if delErr := s.guild.DeleteChannel(ctx, ch.ID); delErr != nil {
			s.logger.Error("failed to remove half-created application channel",
				zap.String("channel_id", ch.ID), zap.Error(delErr))
		}
		return nil, apperrors.NewInternalError(err)
	}

	app := domain.Application{
		Applicant:   applicant,
		Form:        intake,
		Status:      domain.ApplicationStatusPending,
		Channel:     ch.ChannelRef,
		SubmittedAt: now,
	}
	s.registry.PutApplication(app)
	keep = true

	s.logger.Info("application submitted",
		zap.String("channel_id", ch.ID),
		zap.String("applicant_id", applicant.ID))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventApplicationSubmitted,
		ChannelID: ch.ID,
		Actor:     events.ActorFrom(applicant),
		Payload:   events.ApplicationSubmittedPayload{ApplicantID: applicant.ID},
	})
	return &app, nil
}

// HandleResponse records the decision, notifies the applicant by direct
// message and deletes the application channel.
func (s *ApplicationService) HandleResponse(ctx context.Context, channelID string, decider domain.User, accepted bool, reason string) (*domain.Application, error) {
	ch, err := s.guild.Channel(ctx, channelID)
	if err != nil {
		return nil, apperrors.NewChannelNotFound(channelID, err)
	}

	app, tracked := s.registry.Application(channelID)
	if !tracked {
		applicant, err := s.applicantFromChannelName(ctx, ch)
		if err != nil {
			return nil, err
		}
		app = domain.Application{
			Applicant: applicant,
			Status:    domain.ApplicationStatusPending,
			Channel:   ch.ChannelRef,
		}
	}
	if app.Status != domain.ApplicationStatusPending {
		return nil, apperrors.NewChannelNotFound(channelID, nil)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason given"
	}
	now := s.now()
	if _, err := s.guild.SendDirect(ctx, app.Applicant.ID, decisionMessage(accepted, decider, reason, now)); err != nil {
		if errors.Is(err, platform.ErrMemberNotFound) {
			return nil, apperrors.NewApplicantNotFound(channelID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.guild.DeleteChannel(ctx, channelID); err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return nil, apperrors.NewChannelNotFound(channelID, err)
		}
		return nil, apperrors.NewInternalError(err)
	}

	app.Status = domain.ApplicationStatusRejected
	if accepted {
		app.Status = domain.ApplicationStatusAccepted
	}
	d := decider
	app.Decider = &d
	app.Reason = reason
	app.DecidedAt = &now

	s.registry.RemoveApplication(channelID)
	if s.appCfg.Dedup {
		s.release(registry.ApplicationKey(app.Applicant.ID))
	}

	s.logger.Info("application decided",
		zap.String("channel_id", channelID),
		zap.String("applicant_id", app.Applicant.ID),
		zap.String("decider_id", decider.ID),
		zap.String("status", string(app.Status)))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventApplicationDecided,
		ChannelID: channelID,
		Actor:     events.ActorFrom(decider),
		Payload: events.ApplicationDecidedPayload{
			ApplicantID: app.Applicant.ID,
			Status:      app.Status,
			Reason:      reason,
		},
	})
	return &app, nil
}

// PendingApplications lists applications awaiting a decision.
func (s *ApplicationService) PendingApplications() []domain.Application {
	return s.registry.PendingApplications()
}

// applicantFromChannelName recovers the applicant of an untracked channel
// from its apply-<username> name. A name with further hyphens is ambiguous
// and is refused rather than matched on its first segment.
func (s *ApplicationService) applicantFromChannelName(ctx context.Context, ch platform.Channel) (domain.User, error) {
	parts := strings.Split(ch.Name, "-")
	if len(parts) != 2 || parts[0]+"-" != applicationChannelPrefix || parts[1] == "" {
		return domain.User{}, apperrors.NewApplicantNotFound(ch.ID)
	}
	s.logger.Warn("deriving applicant from channel name",
		zap.String("channel_id", ch.ID),
		zap.String("channel", ch.Name))
	user, err := s.guild.FindMemberByUsername(ctx, parts[1])
	if err != nil {
		return domain.User{}, apperrors.NewApplicantNotFound(ch.ID)
	}
	return user, nil
}

func (s *ApplicationService) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.registry.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release application reservation", zap.String("key", key), zap.Error(err))
	}
}

func (s *ApplicationService) fail(ctx context.Context, operation string, err error) error {
	s.logger.Error("misconfiguration", zap.String("operation", operation), zap.Error(err))
	return alertOperators(ctx, s.dispatcher, s.now, operation, "", err)
}
