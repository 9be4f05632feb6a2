package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishReachesMatchingSubscribers(t *testing.T) {
	req := require.New(t)
	bus := NewMemoryBus()

	var exact, wildcard, tail, other []string
	record := func(dst *[]string) func(string, []byte) {
		return func(topic string, payload []byte) { *dst = append(*dst, topic+":"+string(payload)) }
	}

	_, err := bus.Subscribe("chat.group.general", record(&exact))
	req.NoError(err)
	_, err = bus.Subscribe("chat.group.*", record(&wildcard))
	req.NoError(err)
	_, err = bus.Subscribe("chat.>", record(&tail))
	req.NoError(err)
	_, err = bus.Subscribe("chat.group.other", record(&other))
	req.NoError(err)

	req.NoError(bus.Publish("chat.group.general", []byte("hello")))

	req.Equal([]string{"chat.group.general:hello"}, exact)
	req.Equal([]string{"chat.group.general:hello"}, wildcard)
	req.Equal([]string{"chat.group.general:hello"}, tail)
	req.Empty(other)
}

func TestMemoryBus_UnsubscribeStopsDelivery(t *testing.T) {
	req := require.New(t)
	bus := NewMemoryBus()

	count := 0
	sub, err := bus.Subscribe("chat.cmd.x", func(string, []byte) { count++ })
	req.NoError(err)
	req.Equal(1, bus.SubscriptionCount())

	req.NoError(bus.Publish("chat.cmd.x", nil))
	req.NoError(sub.Unsubscribe())
	req.NoError(bus.Publish("chat.cmd.x", nil))

	req.Equal(1, count)
	req.Zero(bus.SubscriptionCount())
}

func TestTopicMatches(t *testing.T) {
	req := require.New(t)

	req.True(topicMatches("a.b.c", "a.b.c"))
	req.True(topicMatches("a.*.c", "a.b.c"))
	req.True(topicMatches("a.>", "a.b.c"))
	req.False(topicMatches("a.b", "a.b.c"))
	req.False(topicMatches("a.b.c.d", "a.b.c"))
	req.False(topicMatches("a.>", "a"))
	req.False(topicMatches("x.*.c", "a.b.c"))
}
