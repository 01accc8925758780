package slack

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxThreadNameLength bounds thread names derived from the root message
const maxThreadNameLength = 100

// Thread type tags, keyed by Slack channel_type
var threadTypes = map[string]string{
	"channel": "public_thread",
	"group":   "private_thread",
	"im":      "im_thread",
	"mpim":    "mpim_thread",
}

// MessageID builds a message identifier. Slack timestamps are only unique
// within a channel, so the channel is part of the ID.
func MessageID(channelID, ts string) string {
	return channelID + "-" + ts
}

// ThreadID builds a thread identifier from the channel and the root message timestamp
func ThreadID(channelID, threadTS string) string {
	return channelID + "-" + threadTS
}

// IsThreadReply reports whether a message was posted inside a thread.
// Thread roots carry thread_ts == ts and live in the channel itself.
func IsThreadReply(ts, threadTS string) bool {
	return threadTS != "" && threadTS != ts
}

// ThreadType maps a Slack channel_type to the stored thread type tag
func ThreadType(channelType string) string {
	if t, ok := threadTypes[channelType]; ok {
		return t
	}
	return "public_thread"
}

// ParseTimestamp converts a Slack timestamp ("1712345678.123456") to UTC
func ParseTimestamp(ts string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(ts, ".")

	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slack timestamp %q: %w", ts, err)
	}

	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		nsec, err = strconv.ParseInt(fracPart+strings.Repeat("0", 9-len(fracPart)), 10, 64)
		if err != nil || nsec < 0 {
			return time.Time{}, fmt.Errorf("invalid slack timestamp %q", ts)
		}
	}

	return time.Unix(sec, nsec).UTC(), nil
}

// ThreadName derives a display name for a thread from its root message text
func ThreadName(text string) string {
	name := strings.Join(strings.Fields(cleanMessageText(text)), " ")
	if utf8.RuneCountInString(name) <= maxThreadNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxThreadNameLength])
}

// cleanMessageText removes user mentions and channel references
func cleanMessageText(text string) string {
	// Remove user mentions like <@U123456>
	for strings.Contains(text, "<@") {
		start := strings.Index(text, "<@")
		end := strings.Index(text[start:], ">")
		if end == -1 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	// Remove channel references like <#C123456|general>
	for strings.Contains(text, "<#") {
		start := strings.Index(text, "<#")
		end := strings.Index(text[start:], ">")
		if end == -1 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}

	return strings.TrimSpace(text)
}
