package push

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Payload is the minimal message delivered to every endpoint.
type Payload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Format renders the payload as the plain-text message handed to the
// transport.
func (p Payload) Format() string {
	msg := fmt.Sprintf("%s: %s", p.Title, p.Message)
	if p.URL != "" {
		msg = fmt.Sprintf("%s\n%s", msg, p.URL)
	}
	return msg
}

// Broadcaster delivers a payload to every registered endpoint
// concurrently, isolating per-endpoint failure.
type Broadcaster struct {
	registry *Registry
	log      *DeliveryLog
	sender   Sender
	timeout  time.Duration
}

// NewBroadcaster creates a broadcaster. A nil sender defaults to
// Shoutrrr; timeout bounds each individual delivery attempt.
func NewBroadcaster(registry *Registry, deliveryLog *DeliveryLog, sender Sender, timeout time.Duration) *Broadcaster {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Broadcaster{
		registry: registry,
		log:      deliveryLog,
		sender:   sender,
		timeout:  timeout,
	}
}

// Broadcast reads the current registry and attempts delivery to every
// entry concurrently. One endpoint failing, hanging or rejecting the
// descriptor does not abort or delay the others and never fails the
// call; every attempt's outcome lands in the delivery log. Broadcast
// returns once all attempts have settled.
func (b *Broadcaster) Broadcast(ctx context.Context, p Payload) {
	subs, err := b.registry.ListAll(ctx)
	if err != nil {
		log.Printf("push: list subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	message := p.Format()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()
			b.deliver(ctx, sub, p, message)
		}(sub)
	}
	wg.Wait()

	log.Printf("push: attempted delivery to %d endpoints", len(subs))
}

// deliver makes one bounded delivery attempt and records the outcome.
func (b *Broadcaster) deliver(ctx context.Context, sub Subscription, p Payload, message string) {
	err := b.sendWithTimeout(ctx, sub.Descriptor, message)

	rec := DeliveryRecord{
		SubscriptionID: sub.ID,
		Title:          p.Title,
		Message:        p.Message,
	}
	if err != nil {
		rec.Status = DeliveryFailed
		rec.ErrorMessage = err.Error()
		log.Printf("push: delivery to subscription %d failed: %v", sub.ID, err)
	} else {
		rec.Status = DeliverySent
		rec.SentAt = time.Now().UTC()
	}

	if _, dbErr := b.log.Record(ctx, rec); dbErr != nil {
		log.Printf("push: record delivery: %v", dbErr)
	}
}

// sendWithTimeout runs one send with its own deadline so an
// unreachable endpoint cannot hold resources for the whole broadcast.
// A timed-out send is abandoned; its goroutine finishes in the
// background and the attempt is counted as failed.
func (b *Broadcaster) sendWithTimeout(ctx context.Context, descriptor, message string) error {
	done := make(chan error, 1)
	go func() {
		done <- b.sender.Send(descriptor, message)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(b.timeout):
		return fmt.Errorf("delivery timed out after %s", b.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
