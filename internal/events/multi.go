package events

import (
	"context"
	"errors"
)

// MultiPublisher publishes every event to each of its publishers in order.
// A failing publisher does not stop the others.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, key string, event any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, key, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
