package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cenkalti/backoff/v4"

	"ai-meeting-be/internal/dto"
)

// consumerMaxRetries bounds redelivery of a rejected meeting-ended message.
// Rejections mean the meeting row is not visible yet; a handful of paced
// retries covers that write race, after which the message is dropped.
const consumerMaxRetries = 5

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	processingService IProcessingService
	retryPolicy       func() backoff.BackOff
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	processingService IProcessingService,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		processingService: processingService,
		retryPolicy:       consumerRetryPolicy,
	}
}

func consumerRetryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	return backoff.WithMaxRetries(policy, consumerMaxRetries)
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.MeetingEndedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal meeting-ended message: %v", err)
		msg.Ack() // invalid payloads never become valid, don't retry
		return
	}

	log.Printf("[INFO] Processing ended meeting %s (room %q)", payload.MeetingId, payload.RoomName)

	// Only validation failures escape the processor, typically when the end
	// event raced the meeting row's creation. Retry in-place with backoff
	// instead of Nack: gochannel redelivers immediately, and a meeting id
	// that never materializes would spin forever.
	operation := func() error {
		return cs.processingService.ProcessImmediately(ctx, &payload)
	}
	if err := backoff.Retry(operation, backoff.WithContext(cs.retryPolicy(), ctx)); err != nil {
		log.Printf("[ERROR] Giving up on meeting %s after %d retries: %v", payload.MeetingId, consumerMaxRetries, err)
	}

	msg.Ack()
}
