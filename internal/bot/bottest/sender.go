// Package bottest provides an in-memory bot.Sender for module tests.
package bottest

import (
	"context"
	"errors"
	"sync"

	"github.com/craybot/craybot/internal/bot"
)

// ErrForbidden is returned by a Sender configured to fail
var ErrForbidden = errors.New("403 Forbidden: Missing Access")

// Sent is one recorded channel or DM send
type Sent struct {
	ChannelID string // empty for direct sends
	UserID    string // set for direct sends
	Text      string
	Mentions  bot.MentionPolicy
}

// Responded is one recorded interaction response
type Responded struct {
	Invocation bot.Invocation
	Response   bot.Response
}

// Sender records every outbound call
type Sender struct {
	mu sync.Mutex

	Self           string
	FailSend       bool
	FailSendDirect bool
	FailRespond    bool

	Sent        []Sent
	Direct      []Sent
	Responses   []Responded
	Suggestions [][]bot.Choice
}

var _ bot.Sender = (*Sender)(nil)

// SelfID implements bot.Sender
func (s *Sender) SelfID() string {
	return s.Self
}

// Send implements bot.Sender. Failed attempts are recorded too.
func (s *Sender) Send(ctx context.Context, channelID, text string, mentions bot.MentionPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, Sent{ChannelID: channelID, Text: text, Mentions: mentions})
	if s.FailSend {
		return ErrForbidden
	}
	return nil
}

// SendDirect implements bot.Sender. Failed attempts are recorded too.
func (s *Sender) SendDirect(ctx context.Context, userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Direct = append(s.Direct, Sent{UserID: userID, Text: text})
	if s.FailSendDirect {
		return ErrForbidden
	}
	return nil
}

// Respond implements bot.Sender
func (s *Sender) Respond(ctx context.Context, inv bot.Invocation, resp bot.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses = append(s.Responses, Responded{Invocation: inv, Response: resp})
	if s.FailRespond {
		return ErrForbidden
	}
	return nil
}

// Suggest implements bot.Sender
func (s *Sender) Suggest(ctx context.Context, inv bot.Invocation, choices []bot.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Suggestions = append(s.Suggestions, choices)
	return nil
}

// LastResponse returns the most recent interaction response, or the zero value
func (s *Sender) LastResponse() bot.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Responses) == 0 {
		return bot.Response{}
	}
	return s.Responses[len(s.Responses)-1].Response
}
