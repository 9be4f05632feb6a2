// Package addressing maps identities to broker topics and back. It is pure
// and stateless; every routable topic in the system is produced here and
// Parse is the total inverse over that alphabet.
package addressing

import (
	"fmt"
	"strings"

	apperrors "groupchat/errors"
)

const (
	namespace    = "chat"
	groupSegment = "group"
	cmdSegment   = "cmd"
	replySegment = "session"
)

type TopicKind int

const (
	KindUnknown TopicKind = iota
	KindGroup
	KindCommand
	KindResponse
)

func (k TopicKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindCommand:
		return "command"
	case KindResponse:
		return "response"
	default:
		return "unknown"
	}
}

// SanitizeName folds an arbitrary group name into the broker-safe token
// alphabet: lowercase letters, digits, dashes and underscores. Anything else
// becomes a dash. Distinct sanitized names stay distinct topics.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// GroupTopic is where a message for the named group is broadcast.
func GroupTopic(group string) string {
	return fmt.Sprintf("%s.%s.%s", namespace, groupSegment, SanitizeName(group))
}

// CommandTopic is the single well-known inbound topic of a running backend
// instance, used for send/status/terminate commands.
func CommandTopic(instanceID string) string {
	return fmt.Sprintf("%s.%s.%s", namespace, cmdSegment, instanceID)
}

// ResponseTopic is owned by one client session; confirmations and status
// replies for that session are published there.
func ResponseTopic(sessionID string) string {
	return fmt.Sprintf("%s.%s.%s", namespace, replySegment, sessionID)
}

// Parse recovers kind and identifier from a topic produced by the forward
// functions. It fails with ErrMalformedTopic for anything else.
func Parse(topic string) (TopicKind, string, error) {
	parts := strings.Split(topic, ".")
	if len(parts) != 3 || parts[0] != namespace {
		return KindUnknown, "", fmt.Errorf("%w: %q", apperrors.ErrMalformedTopic, topic)
	}
	id := parts[2]
	if id == "" || strings.ContainsAny(id, "*> ") {
		return KindUnknown, "", fmt.Errorf("%w: %q", apperrors.ErrMalformedTopic, topic)
	}
	switch parts[1] {
	case groupSegment:
		return KindGroup, id, nil
	case cmdSegment:
		return KindCommand, id, nil
	case replySegment:
		return KindResponse, id, nil
	default:
		return KindUnknown, "", fmt.Errorf("%w: %q", apperrors.ErrMalformedTopic, topic)
	}
}
