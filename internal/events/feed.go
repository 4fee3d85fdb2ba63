package events

import (
	"context"
	"encoding/json"
	"fmt"
)

const subscriberBuffer = 64

type Subscriber struct {
	send chan []byte
}

// Messages is closed when the subscriber is dropped or the feed stops.
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Feed fans published events out to in-process subscribers, such as
// websocket clients. A subscriber that falls behind is dropped.
type Feed struct {
	subscribers map[*Subscriber]struct{}
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan []byte
	done        chan struct{}
}

func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[*Subscriber]struct{}),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan []byte),
		done:        make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	defer func() {
		close(f.done)
		for s := range f.subscribers {
			close(s.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-f.register:
			f.subscribers[s] = struct{}{}
		case s := <-f.unregister:
			if _, ok := f.subscribers[s]; ok {
				delete(f.subscribers, s)
				close(s.send)
			}
		case message := <-f.broadcast:
			for s := range f.subscribers {
				select {
				case s.send <- message:
				default:
					delete(f.subscribers, s)
					close(s.send)
				}
			}
		}
	}
}

// Subscribe returns nil once the feed has stopped.
func (f *Feed) Subscribe() *Subscriber {
	s := &Subscriber{send: make(chan []byte, subscriberBuffer)}

	select {
	case f.register <- s:
		return s
	case <-f.done:
		return nil
	}
}

func (f *Feed) Unsubscribe(s *Subscriber) {
	select {
	case f.unregister <- s:
	case <-f.done:
	}
}

func (f *Feed) Publish(ctx context.Context, _ string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	select {
	case f.broadcast <- data:
		return nil
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Feed) Close() error {
	return nil
}
