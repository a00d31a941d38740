package noop

import (
	"context"
	"log"

	"rulebook/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that only logs. It is the default when
// no delivery provider is configured.
func NewNoopNotifier() port.Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) NotifyMissingPerson(_ context.Context, entryKey, personName string) error {
	log.Printf("notify.noop: entry %s mentions unregistered person %q", entryKey, personName)
	return nil
}
