package slack

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// SocketRunner receives events over Socket Mode and hands them to a SlackHandler
type SocketRunner struct {
	socketMode *socketmode.Client
	ack        func(socketmode.Request)
	dispatch   func(slackevents.EventsAPIEvent)
}

// NewSocketRunner wraps client, which must carry an app-level token
func NewSocketRunner(client *slack.Client, handler *SlackHandler) *SocketRunner {
	socketMode := socketmode.New(client)
	return &SocketRunner{
		socketMode: socketMode,
		ack:        func(req socketmode.Request) { socketMode.Ack(req) },
		dispatch:   handler.HandleCallback,
	}
}

// Run connects to Slack and dispatches events until ctx is cancelled
func (s *SocketRunner) Run(ctx context.Context) error {
	go s.handleEvents(ctx)
	return s.socketMode.RunContext(ctx)
}

func (s *SocketRunner) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-s.socketMode.Events:
			if !ok {
				return
			}
			s.handleEvent(evt)
		}
	}
}

func (s *SocketRunner) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		slog.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		slog.Info("Connected to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError:
		slog.Warn("Socket Mode connection failed, retrying")
	case socketmode.EventTypeEventsAPI:
		// Unacknowledged envelopes are redelivered, including ones we cannot use
		if evt.Request != nil {
			s.ack(*evt.Request)
		}

		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			slog.Debug("Ignored Socket Mode event", "type", evt.Type)
			return
		}
		if eventsAPIEvent.Type == slackevents.CallbackEvent {
			go s.dispatch(eventsAPIEvent)
		}
	}
}
