package addressing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "groupchat/errors"
)

func TestGroupTopic_RoundTrip(t *testing.T) {
	req := require.New(t)

	for _, name := range []string{"general", "r0", "r1", "dev-team", "ops_2"} {
		kind, id, err := Parse(GroupTopic(name))

		req.NoError(err)
		req.Equal(KindGroup, kind)
		req.Equal(name, id)
	}
}

func TestGroupTopic_RoundTrip_SanitizedNames(t *testing.T) {
	req := require.New(t)

	// Given names outside the topic alphabet
	cases := map[string]string{
		"Dev Team":  "dev-team",
		"  ops  ":   "ops",
		"a.b*c>d":   "a-b-c-d",
		"Général":   "g-n-ral",
		"UPPERCASE": "uppercase",
	}

	for raw, want := range cases {
		// When the forward function folds them into a topic
		kind, id, err := Parse(GroupTopic(raw))

		// Then parsing recovers the sanitized identity
		req.NoError(err)
		req.Equal(KindGroup, kind)
		req.Equal(want, id)
	}
}

func TestCommandAndResponseTopics_RoundTrip(t *testing.T) {
	req := require.New(t)
	instanceID := uuid.NewString()
	sessionID := uuid.NewString()

	kind, id, err := Parse(CommandTopic(instanceID))
	req.NoError(err)
	req.Equal(KindCommand, kind)
	req.Equal(instanceID, id)

	kind, id, err = Parse(ResponseTopic(sessionID))
	req.NoError(err)
	req.Equal(KindResponse, kind)
	req.Equal(sessionID, id)
}

func TestParse_MalformedTopics(t *testing.T) {
	req := require.New(t)

	for _, topic := range []string{
		"",
		"chat",
		"chat.group",
		"chat.group.",
		"chat.group.a.b",
		"chat.nope.id",
		"other.group.general",
		"chat.group.*",
		"chat.cmd.>",
	} {
		kind, _, err := Parse(topic)

		req.ErrorIs(err, apperrors.ErrMalformedTopic, "topic %q", topic)
		req.Equal(KindUnknown, kind)
	}
}

func TestSanitizeName_DistinctNamesStayDistinct(t *testing.T) {
	req := require.New(t)

	req.NotEqual(GroupTopic("team-a"), GroupTopic("team-b"))
	req.Equal(GroupTopic("Dev Team"), GroupTopic("dev team"))
}
