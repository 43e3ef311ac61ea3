//go:build integration

package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"dossier/pkg/testutil/containers"
)

func TestKafkaSinkProduces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "dossier.audit.test"
	sink, err := NewKafkaSink([]string{broker.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.Ping(ctx))

	require.NoError(t, sink.Append(ctx, Event{
		Action:        ActionResolve,
		Timestamp:     time.Now(),
		SubjectIDHash: "hash-1",
		Outcome:       "ok",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)
	require.Equal(t, "hash-1", string(records[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, "dossier_resolved", got["action"])
}
