package slack

import (
	"strings"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "microseconds",
			input:    "1712345678.123456",
			expected: time.Date(2024, 4, 5, 19, 34, 38, 123456000, time.UTC),
		},
		{
			name:     "whole seconds",
			input:    "1712345678",
			expected: time.Date(2024, 4, 5, 19, 34, 38, 0, time.UTC),
		},
		{
			name:     "short fraction",
			input:    "1712345678.5",
			expected: time.Date(2024, 4, 5, 19, 34, 38, 500000000, time.UTC),
		},
		{name: "empty", input: "", wantErr: true},
		{name: "letters", input: "abc.123", wantErr: true},
		{name: "bad fraction", input: "1712345678.12x", wantErr: true},
		{name: "signed fraction", input: "1712345678.-1", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q) = %v, want error", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tc.input, err)
			}
			if !got.Equal(tc.expected) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.input, got, tc.expected)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tc.input, got.Location())
			}
		})
	}
}

func TestIsThreadReply(t *testing.T) {
	testCases := []struct {
		name     string
		ts       string
		threadTS string
		expected bool
	}{
		{name: "channel message", ts: "100.000001", threadTS: "", expected: false},
		{name: "thread root", ts: "100.000001", threadTS: "100.000001", expected: false},
		{name: "thread reply", ts: "200.000002", threadTS: "100.000001", expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsThreadReply(tc.ts, tc.threadTS); got != tc.expected {
				t.Errorf("IsThreadReply(%q, %q) = %v, want %v", tc.ts, tc.threadTS, got, tc.expected)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	if got := MessageID("C1", "200.000002"); got != "C1-200.000002" {
		t.Errorf("MessageID() = %q", got)
	}
	if got := ThreadID("C1", "100.000001"); got != "C1-100.000001" {
		t.Errorf("ThreadID() = %q", got)
	}
	// Same ts in different channels must not collide
	if MessageID("C1", "1.0") == MessageID("C2", "1.0") {
		t.Error("message IDs collide across channels")
	}
}

func TestThreadType(t *testing.T) {
	testCases := map[string]string{
		"channel": "public_thread",
		"group":   "private_thread",
		"im":      "im_thread",
		"mpim":    "mpim_thread",
		"":        "public_thread",
	}
	for channelType, expected := range testCases {
		if got := ThreadType(channelType); got != expected {
			t.Errorf("ThreadType(%q) = %q, want %q", channelType, got, expected)
		}
	}
}

func TestCleanMessageText(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "normal text", input: "This is normal text", expected: "This is normal text"},
		{name: "user mention only", input: "<@U095Z0GRZGS>", expected: ""},
		{name: "text with user mention", input: "<@U095Z0GRZGS> can you review this?", expected: "can you review this?"},
		{name: "channel reference", input: "moving to <#C123456|general> now", expected: "moving to  now"},
		{name: "unterminated mention", input: "hello <@U1", expected: "hello <@U1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanMessageText(tc.input); got != tc.expected {
				t.Errorf("cleanMessageText(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestThreadName(t *testing.T) {
	if got := ThreadName("<@U1>  deploy   plan\nfor friday"); got != "deploy plan for friday" {
		t.Errorf("ThreadName() = %q", got)
	}

	long := strings.Repeat("é", maxThreadNameLength+20)
	got := ThreadName(long)
	if n := len([]rune(got)); n != maxThreadNameLength {
		t.Errorf("ThreadName() length = %d runes, want %d", n, maxThreadNameLength)
	}
}
