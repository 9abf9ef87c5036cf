package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSubClient creates and returns a new Pub/Sub client for the given project ID.
func NewPubSubClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a pubsub client")
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}

	return client, nil
}

// TopicNotifier publishes new task ids to a Pub/Sub topic.
type TopicNotifier struct {
	topic *pubsub.Topic
}

// NewTopicNotifier returns a notifier publishing to topicID.
func NewTopicNotifier(client *pubsub.Client, topicID string) *TopicNotifier {
	return &TopicNotifier{topic: client.Topic(topicID)}
}

// Publish sends the task id as the raw message body, without attributes, and
// waits until the broker accepts it.
func (n *TopicNotifier) Publish(ctx context.Context, taskID string) error {
	res := n.topic.Publish(ctx, &pubsub.Message{Data: []byte(taskID)})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", n.topic.ID(), err)
	}
	return nil
}

// Stop flushes pending messages and releases the topic's goroutines.
func (n *TopicNotifier) Stop() {
	n.topic.Stop()
}
