package notification

import (
	"context"
	"errors"
	"log"

	"github.com/sony/gobreaker"

	"repairdesk/config"
)

// Dispatcher routes messages to the sender registered for a channel.
// Each channel sits behind its own circuit breaker so a failing gateway is not hammered.
type Dispatcher struct {
	senders  map[Channel]Sender
	breakers map[Channel]*gobreaker.CircuitBreaker
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		senders:  make(map[Channel]Sender),
		breakers: make(map[Channel]*gobreaker.CircuitBreaker),
	}
}

// Register adds a sender for its channel, replacing any earlier one
func (d *Dispatcher) Register(s Sender) {
	ch := s.Channel()
	d.senders[ch] = s
	d.breakers[ch] = config.NewCircuitBreaker("Notify-" + string(ch))
	log.Printf("[notify] %s channel enabled", ch)
}

// Configured reports whether a sender exists for ch
func (d *Dispatcher) Configured(ch Channel) bool {
	_, ok := d.senders[ch]
	return ok
}

// Send delivers msg over ch. Returns ErrChannelNotConfigured when no sender is registered
// and ErrChannelUnavailable while the channel's breaker is open.
func (d *Dispatcher) Send(ctx context.Context, ch Channel, msg Message) error {
	sender, ok := d.senders[ch]
	if !ok {
		return ErrChannelNotConfigured
	}
	_, err := d.breakers[ch].Execute(func() (interface{}, error) {
		return nil, sender.Send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrChannelUnavailable
	}
	return err
}
