package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"rulebook/internal/domain"
	"rulebook/internal/port"
)

// AlignmentService compares the stored rulebook's area and person mentions
// with the host platform's registries. It can create missing areas directly;
// missing people are only reported to the owner, since creating a person
// requires host-side setup.
type AlignmentService interface {
	Report(ctx context.Context, entryKey string) (*domain.AlignmentReport, error)
	// SyncAreas creates registry entries for every area mentioned in the
	// stored rulebook but absent from the registry, returning the created
	// areas.
	SyncAreas(ctx context.Context, entryKey string) ([]domain.Area, error)
	// NotifyMissingPeople sends one notification per person mentioned in the
	// rulebook but absent from the person registry.
	NotifyMissingPeople(ctx context.Context, entryKey string) ([]string, error)
}

type alignmentService struct {
	store    port.RulebookStore
	areas    port.AreaRegistry
	persons  port.PersonRegistry
	notifier port.Notifier
}

// NewAlignmentService creates an AlignmentService.
func NewAlignmentService(
	store port.RulebookStore,
	areas port.AreaRegistry,
	persons port.PersonRegistry,
	notifier port.Notifier,
) AlignmentService {
	return &alignmentService{store: store, areas: areas, persons: persons, notifier: notifier}
}

func (s *alignmentService) Report(ctx context.Context, entryKey string) (*domain.AlignmentReport, error) {
	doc, err := s.store.Read(ctx, entryKey)
	if err != nil {
		return nil, err
	}

	areas, err := s.areas.ListAreas(ctx, entryKey)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	persons, err := s.persons.ListPersons(ctx, entryKey)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}

	areaNames := make([]string, len(areas))
	for i, a := range areas {
		areaNames[i] = a.Name
	}
	personNames := make([]string, len(persons))
	for i, p := range persons {
		personNames[i] = p.Name
	}

	report := &domain.AlignmentReport{
		EntryKey:          entryKey,
		MissingAreas:      missingFrom(doc.AreaMentions, areaNames),
		UnmentionedAreas:  missingFrom(areaNames, doc.AreaMentions),
		MissingPeople:     missingFrom(doc.KeyPeople, personNames),
		UnmentionedPeople: missingFrom(personNames, doc.KeyPeople),
	}
	return report, nil
}

func (s *alignmentService) SyncAreas(ctx context.Context, entryKey string) ([]domain.Area, error) {
	report, err := s.Report(ctx, entryKey)
	if err != nil {
		return nil, err
	}

	created := make([]domain.Area, 0, len(report.MissingAreas))
	for _, name := range report.MissingAreas {
		area := domain.Area{
			ID:        uuid.New(),
			EntryKey:  entryKey,
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.areas.CreateArea(ctx, &area); err != nil {
			return created, fmt.Errorf("creating area %q: %w", name, err)
		}
		log.Printf("service.Alignment: created area %q for entry %s", name, entryKey)
		created = append(created, area)
	}
	return created, nil
}

func (s *alignmentService) NotifyMissingPeople(ctx context.Context, entryKey string) ([]string, error) {
	report, err := s.Report(ctx, entryKey)
	if err != nil {
		return nil, err
	}

	notified := make([]string, 0, len(report.MissingPeople))
	for _, name := range report.MissingPeople {
		if err := s.notifier.NotifyMissingPerson(ctx, entryKey, name); err != nil {
			return notified, fmt.Errorf("notifying about person %q: %w", name, err)
		}
		notified = append(notified, name)
	}
	return notified, nil
}

// missingFrom returns the entries of want not present in have, preserving
// the order of want. Comparison is case-insensitive on trimmed names.
func missingFrom(want, have []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[canonical(h)] = true
	}
	missing := []string{}
	seen := make(map[string]bool, len(want))
	for _, w := range want {
		key := canonical(w)
		if haveSet[key] || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, w)
	}
	return missing
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
