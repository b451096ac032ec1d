// Package discord is the chat delivery boundary: a small messenger
// contract plus its Discord REST implementation.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrMessageNotFound indicates the referenced message no longer exists
// upstream, typically because it was deleted by hand.
var ErrMessageNotFound = errors.New("message not found")

// Messenger sends and edits chat messages. Implementations never
// mention anyone beyond what the call explicitly allows.
type Messenger interface {
	// Send posts content to a channel and returns the new message id.
	Send(ctx context.Context, channelID, content string) (string, error)
	// Edit replaces the content of an existing message in place. It
	// returns ErrMessageNotFound when the message is gone upstream.
	Edit(ctx context.Context, channelID, messageID, content string) error
	// SendRoleAlert posts content to a channel with mentions
	// restricted to the single given role; users and everyone are
	// never pinged.
	SendRoleAlert(ctx context.Context, channelID, roleID, content string) error
}

// Session is a Messenger backed by the Discord REST API. No gateway
// connection is opened; a one-shot run only needs plain HTTP calls.
type Session struct {
	session *discordgo.Session
}

// NewSession creates a REST-only Discord messenger from a bot token.
func NewSession(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Session{session: session}, nil
}

// Send posts content to the channel.
func (s *Session) Send(ctx context.Context, channelID, content string) (string, error) {
	message, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to channel %s: %w", channelID, err)
	}
	return message.ID, nil
}

// Edit replaces the message content in place.
func (s *Session) Edit(ctx context.Context, channelID, messageID, content string) error {
	_, err := s.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMessage(err) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("edit message %s in channel %s: %w", messageID, channelID, err)
	}
	return nil
}

// SendRoleAlert posts content with the mention allowlist narrowed to
// one role.
func (s *Session) SendRoleAlert(ctx context.Context, channelID, roleID, content string) error {
	_, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: []string{roleID},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send alert to channel %s: %w", channelID, err)
	}
	return nil
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage
}

// RoleMention renders the mention token for a role id.
func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}
