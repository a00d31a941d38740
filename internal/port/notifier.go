package port

import "context"

// Notifier delivers advisory notifications to the rulebook owner.
type Notifier interface {
	// NotifyMissingPerson tells the owner that the rulebook mentions a person
	// who is not defined in the person registry, with guidance on adding them.
	NotifyMissingPerson(ctx context.Context, entryKey, personName string) error
}
