package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher fans session/message lifecycle events out to in-process
// subscribers (the websocket hub) over a watermill gochannel topic.
type Publisher struct {
	pubsub *gochannel.GoChannel
	topic  string
}

func NewPublisher(topic string) *Publisher {
	return &Publisher{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewStdLogger(false, false),
		),
		topic: topic,
	}
}

type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt string                 `json:"occurredAt"`
}

func (p *Publisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(Envelope{
		Type:       evt.EventType(),
		Data:       evt.Payload(),
		OccurredAt: evt.Timestamp().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.pubsub.Publish(p.topic, msg)
}

func (p *Publisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, p.topic)
}

func (p *Publisher) Close() error {
	return p.pubsub.Close()
}
