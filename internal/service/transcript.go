package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

// TranscriptLine is one message of a transcript.
type TranscriptLine struct {
	Author  string
	Content string
}

// Transcript is the flattened history of a channel.
type Transcript struct {
	ChannelName string
	Lines       []TranscriptLine
}

// NewTranscript builds a transcript from messages ordered oldest first.
func NewTranscript(channelName string, messages []platform.Message) *Transcript {
	lines := make([]TranscriptLine, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, TranscriptLine{Author: m.Author.DisplayTag(), Content: m.Content})
	}
	return &Transcript{ChannelName: channelName, Lines: lines}
}

// Render joins "<author>: <content>" lines with newlines.
func (t *Transcript) Render() string {
	parts := make([]string, len(t.Lines))
	for i, l := range t.Lines {
		parts[i] = l.Author + ": " + l.Content
	}
	return strings.Join(parts, "\n")
}

// FileName is the attachment name used in the archive channel.
func (t *Transcript) FileName() string {
	return "transcript-" + t.ChannelName + ".txt"
}

// CreateTranscript archives the full history of channelID as a text
// attachment in the transcript channel.
func (s *TicketService) CreateTranscript(ctx context.Context, channelID string) (*Transcript, error) {
	ch, err := s.guild.Channel(ctx, channelID)
	if err != nil {
		return nil, apperrors.NewChannelNotFound(channelID, err)
	}
	archive, err := s.guild.Channel(ctx, s.guildCfg.TranscriptChannelID)
	if err != nil {
		return nil, s.fail(ctx, "create_transcript", channelID,
			apperrors.NewTranscriptArchiveMissing(s.guildCfg.TranscriptChannelID, err))
	}

	messages, err := s.guild.FetchMessages(ctx, channelID, platform.MessageQuery{})
	if err != nil {
		return nil, s.platformError(channelID, err)
	}
	transcript := NewTranscript(ch.Name, messages)

	_, err = s.guild.Send(ctx, archive.ID, platform.OutgoingMessage{
		Attachments: []platform.Attachment{{Name: transcript.FileName(), Data: []byte(transcript.Render())}},
	})
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return nil, s.fail(ctx, "create_transcript", channelID,
				apperrors.NewTranscriptArchiveMissing(s.guildCfg.TranscriptChannelID, err))
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("transcript archived",
		zap.String("channel_id", channelID),
		zap.String("file", transcript.FileName()),
		zap.Int("lines", len(transcript.Lines)))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      events.EventTranscriptArchived,
		ChannelID: channelID,
		Payload:   events.TranscriptArchivedPayload{FileName: transcript.FileName(), Lines: len(transcript.Lines)},
	})
	return transcript, nil
}
