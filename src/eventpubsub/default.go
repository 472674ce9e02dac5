package eventpubsub

import (
	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

// Bus is a named asynchronous topic bus. Subscribers run on goroutines owned
// by the bus, so handlers must not assume any ordering between events.
type Bus struct {
	name string
	bus  EventBus.Bus
}

func New(name string) *Bus {
	return &Bus{
		name: name,
		bus:  EventBus.New(),
	}
}

func (b *Bus) Publish(topic EventName, event interface{}) {
	log.Tracef("[%v] Published to topic %s", b.name, topic)
	b.bus.Publish(string(topic), event)
}

func (b *Bus) Subscribe(subscriberName string, topic EventName, callbackFn interface{}) error {
	if err := b.bus.SubscribeAsync(string(topic), callbackFn, false); err != nil {
		log.Errorf("[%v] error: %v", subscriberName, err)
		return err
	}

	log.Debugf("[%v] Subscribed to topic %s on %s", subscriberName, topic, b.name)
	return nil
}

func (b *Bus) HasSubscribers(topic EventName) bool {
	return b.bus.HasCallback(string(topic))
}

// Wait blocks until every in-flight async handler has returned.
func (b *Bus) Wait() {
	b.bus.WaitAsync()
}
