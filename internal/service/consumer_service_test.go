package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"ai-meeting-be/internal/dto"
)

type countingProcessor struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *countingProcessor) ProcessImmediately(ctx context.Context, msg *dto.MeetingEndedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *countingProcessor) Status(ctx context.Context, meetingId uuid.UUID) (*dto.MeetingStatusResponse, error) {
	return nil, errors.New("not implemented")
}

func (p *countingProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newConsumerFixture(processor *countingProcessor) (*consumerService, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	cs := &consumerService{
		pubSub:            pubSub,
		topicName:         "meeting.ended",
		processingService: processor,
		// immediate retries keep the test fast; the attempt bound is
		// what matters
		retryPolicy: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
		},
	}
	return cs, pubSub
}

func publishEnded(t *testing.T, pubSub *gochannel.GoChannel, topic string) {
	t.Helper()
	payload, err := json.Marshal(&dto.MeetingEndedMessage{MeetingId: uuid.New(), RoomName: "standup"})
	assert.NoError(t, err)
	assert.NoError(t, pubSub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload)))
}

func TestConsumeGivesUpAfterBoundedRetries(t *testing.T) {
	processor := &countingProcessor{err: errors.New("meeting not found")}
	cs, pubSub := newConsumerFixture(processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, cs.Consume(ctx))

	publishEnded(t, pubSub, cs.topicName)

	// initial attempt plus two retries, then the message is dropped
	assert.Eventually(t, func() bool { return processor.callCount() == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 3, processor.callCount())
}

func TestConsumeRetriesUntilProcessingSucceeds(t *testing.T) {
	processor := &countingProcessor{}
	cs, pubSub := newConsumerFixture(processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, cs.Consume(ctx))

	publishEnded(t, pubSub, cs.topicName)

	assert.Eventually(t, func() bool { return processor.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestConsumeDropsMalformedPayload(t *testing.T) {
	processor := &countingProcessor{}
	cs, pubSub := newConsumerFixture(processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, cs.Consume(ctx))

	assert.NoError(t, pubSub.Publish(cs.topicName, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	publishEnded(t, pubSub, cs.topicName)

	// the malformed message is acked without a processing attempt and the
	// next message still flows
	assert.Eventually(t, func() bool { return processor.callCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}
