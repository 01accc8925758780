package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chatsync/internal/chatsync"
	"chatsync/internal/logging"
	"chatsync/internal/metrics"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const maxEventBodyBytes = 1 << 20

// Message subtypes that represent a newly posted message. Edits, deletions and
// membership notices are not synced.
var syncedSubtypes = map[string]bool{
	"":                 true,
	"thread_broadcast": true,
	"file_share":       true,
	"me_message":       true,
}

// API is the subset of the Slack Web API used to describe threads
type API interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
}

// MessageSyncer persists converted messages
type MessageSyncer interface {
	SyncMessage(ctx context.Context, msg chatsync.Message, fromThread bool) error
	ThreadExists(ctx context.Context, id string) (bool, error)
}

// Options configures event filtering and request verification
type Options struct {
	SigningSecret  string
	TeamID         string
	IgnoreChannels []string
}

// SlackHandler turns Slack message events into synced messages and threads
type SlackHandler struct {
	client         API
	syncer         MessageSyncer
	signingSecret  string
	teamID         string
	botUserID      string
	ignoreChannels map[string]struct{}
}

// NewSlackHandler creates a new Slack handler
func NewSlackHandler(client API, syncer MessageSyncer, opts Options) *SlackHandler {
	ignore := make(map[string]struct{}, len(opts.IgnoreChannels))
	for _, id := range opts.IgnoreChannels {
		ignore[id] = struct{}{}
	}

	h := &SlackHandler{
		client:         client,
		syncer:         syncer,
		signingSecret:  opts.SigningSecret,
		teamID:         opts.TeamID,
		ignoreChannels: ignore,
	}

	// Get bot user ID so our own posts are never synced
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	authTest, err := client.AuthTestContext(ctx)
	if err != nil {
		slog.Warn("Could not get bot user ID", "error", err)
	} else {
		h.botUserID = authTest.UserID
		slog.Info("Bot user ID retrieved", "bot_user_id", h.botUserID)
	}

	return h
}

// HandleEvents serves the Events API request URL
func (h *SlackHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	logger := logging.LoggerFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodyBytes))
	if err != nil {
		logger.Error("Failed to read Slack event body", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := h.verify(r.Header, body); err != nil {
		logger.Warn("Rejected Slack event with invalid signature", "error", err)
		metrics.SlackEventsReceived.WithLabelValues("unknown", "unauthorized").Inc()
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		logger.Error("Failed to parse Slack event", "error", err)
		metrics.SlackEventsReceived.WithLabelValues("unknown", "error").Inc()
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		metrics.SlackEventsReceived.WithLabelValues(slackevents.URLVerification, "processed").Inc()
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		// Slack retries unless acknowledged within 3 seconds
		w.WriteHeader(http.StatusOK)
		go h.HandleCallback(event)

	default:
		logger.Debug("Ignoring Slack event", "type", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackHandler) verify(header http.Header, body []byte) error {
	if h.signingSecret == "" {
		return errors.New("signing secret not configured")
	}

	sv, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

// HandleCallback processes one Events API callback, from HTTP or Socket Mode
func (h *SlackHandler) HandleCallback(event slackevents.EventsAPIEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	innerType := event.InnerEvent.Type

	if h.teamID != "" && event.TeamID != h.teamID {
		slog.Debug("Ignoring event from another workspace", "team_id", event.TeamID)
		metrics.SlackEventsReceived.WithLabelValues(innerType, "ignored").Inc()
		return
	}

	ev, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		metrics.SlackEventsReceived.WithLabelValues(innerType, "ignored").Inc()
		return
	}

	synced, err := h.handleMessage(ctx, ev)
	switch {
	case err != nil:
		slog.Error("Failed to sync message",
			"error", err,
			"channel", ev.Channel,
			"ts", ev.TimeStamp,
			"thread_ts", ev.ThreadTimeStamp)
		metrics.SlackEventsReceived.WithLabelValues(innerType, "error").Inc()
	case synced:
		metrics.SlackEventsReceived.WithLabelValues(innerType, "processed").Inc()
	default:
		metrics.SlackEventsReceived.WithLabelValues(innerType, "ignored").Inc()
	}
}

// handleMessage syncs ev and reports whether it passed the filters
func (h *SlackHandler) handleMessage(ctx context.Context, ev *slackevents.MessageEvent) (bool, error) {
	if reason := h.skipReason(ev); reason != "" {
		slog.Debug("Skipping message", "reason", reason, "channel", ev.Channel, "ts", ev.TimeStamp)
		return false, nil
	}

	msg, fromThread, err := h.buildMessage(ctx, ev)
	if err != nil {
		return false, err
	}

	if err := h.syncer.SyncMessage(ctx, msg, fromThread); err != nil {
		return false, err
	}
	return true, nil
}

// skipReason returns why ev should not be synced, or "" to sync it
func (h *SlackHandler) skipReason(ev *slackevents.MessageEvent) string {
	switch {
	case ev.BotID != "" || ev.SubType == "bot_message":
		return "bot message"
	case h.botUserID != "" && ev.User == h.botUserID:
		return "own message"
	case !syncedSubtypes[ev.SubType]:
		return "subtype " + ev.SubType
	case ev.User == "":
		return "no author"
	case ev.ChannelType == "im" || ev.ChannelType == "mpim":
		return "direct message"
	}

	if _, ignored := h.ignoreChannels[ev.Channel]; ignored {
		return "ignored channel"
	}
	return ""
}

// buildMessage converts ev, resolving its thread when it is a thread reply
func (h *SlackHandler) buildMessage(ctx context.Context, ev *slackevents.MessageEvent) (chatsync.Message, bool, error) {
	createdAt, err := ParseTimestamp(ev.TimeStamp)
	if err != nil {
		return chatsync.Message{}, false, err
	}

	msg := chatsync.Message{
		ID:        MessageID(ev.Channel, ev.TimeStamp),
		ChannelID: ev.Channel,
		AuthorID:  ev.User,
		CreatedAt: createdAt,
	}

	if !IsThreadReply(ev.TimeStamp, ev.ThreadTimeStamp) {
		return msg, false, nil
	}

	thread, err := h.resolveThread(ctx, ev.Channel, ev.ChannelType, ev.ThreadTimeStamp)
	if err != nil {
		return chatsync.Message{}, false, err
	}

	// Inside a thread the message's channel reference is the thread itself
	msg.ChannelID = thread.ID
	msg.Thread = thread
	return msg, true, nil
}

// resolveThread describes the thread rooted at threadTS. Slack is only
// queried for the thread's metadata when no thread row is stored yet.
func (h *SlackHandler) resolveThread(ctx context.Context, channelID, channelType, threadTS string) (*chatsync.Thread, error) {
	thread := &chatsync.Thread{
		ID:              ThreadID(channelID, threadTS),
		ParentChannelID: channelID,
		Name:            threadTS,
		Type:            ThreadType(channelType),
	}

	exists, err := h.syncer.ThreadExists(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return thread, nil
	}

	info, err := h.client.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return nil, fmt.Errorf("failed to get channel info: %w", err)
	}
	// Archived channels are read-only, which is the closest Slack has to a locked thread
	thread.Archived = info.IsArchived
	thread.Locked = info.IsArchived

	replies, _, _, err := h.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     1,
		Inclusive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get thread root: %w", err)
	}
	if len(replies) > 0 {
		if name := ThreadName(replies[0].Text); name != "" {
			thread.Name = name
		}
	}

	return thread, nil
}
