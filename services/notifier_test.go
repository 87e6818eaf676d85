package services

import (
	"testing"

	"unitimetable/models"
)

func flaggedEntry(canceled, rescheduled bool) *models.TimetableEntry {
	return &models.TimetableEntry{
		ProfessorID:  3,
		IsCanceled:   canceled,
		IsReschedule: rescheduled,
		Subject:      models.Subject{Name: "Analyse"},
		Professor:    models.User{FirstName: "Marc", LastName: "Durand"},
		Year:         models.Year{Name: "L1"},
		Group:        models.Group{Name: "G1"},
	}
}

func splitEntry(p1Canceled, p1Rescheduled, p2Canceled, p2Rescheduled bool) *models.TimetableEntry {
	e := &models.TimetableEntry{
		ProfessorID:           3,
		IsSplit:               true,
		SplitType:             models.SplitTypeSameTime,
		Professor2ID:          uintPtr(4),
		Room:                  "Salle 101",
		Room2:                 "Salle 102",
		Subgroup1:             "A",
		Subgroup2:             "B",
		Professor1Canceled:    p1Canceled,
		Professor1Rescheduled: p1Rescheduled,
		Professor2Canceled:    p2Canceled,
		Professor2Rescheduled: p2Rescheduled,
		Subject:               models.Subject{Name: "Réseaux"},
		Subject2:              &models.Subject{Name: "Systèmes"},
		Professor:             models.User{FirstName: "Marc", LastName: "Durand"},
		Professor2:            &models.User{FirstName: "Sophie", LastName: "Leroy"},
		Year:                  models.Year{Name: "L3"},
		Group:                 models.Group{Name: "G2"},
	}
	e.IsCanceled = p1Canceled || p2Canceled
	e.IsReschedule = p1Rescheduled || p2Rescheduled
	return e
}

func TestClassifyEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry *models.TimetableEntry
		want  entryClass
	}{
		{"untouched entry", flaggedEntry(false, false), classNone},
		{"canceled entry", flaggedEntry(true, false), classCanceled},
		{"rescheduled entry", flaggedEntry(false, true), classRescheduled},
		{"split both quiet", splitEntry(false, false, false, false), classNone},
		{"split slot 1 canceled", splitEntry(true, false, false, false), classCanceled},
		{"split slot 2 rescheduled", splitEntry(false, false, false, true), classRescheduled},
		{"split both canceled", splitEntry(true, false, true, false), classCanceled},
		{"split mixed", splitEntry(true, false, false, true), classMixed},
		{"split mixed reversed", splitEntry(false, true, true, false), classMixed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyEntry(tc.entry); got != tc.want {
				t.Fatalf("classifyEntry = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassMatchesFilter(t *testing.T) {
	tests := []struct {
		class  entryClass
		filter string
		want   bool
	}{
		{classCanceled, FilterAll, true},
		{classMixed, FilterAll, true},
		{classNone, FilterAll, false},
		{classCanceled, FilterCanceled, true},
		{classMixed, FilterCanceled, false},
		{classRescheduled, FilterRescheduled, true},
		{classMixed, FilterRescheduled, false},
		{classMixed, FilterMixed, true},
		{classCanceled, FilterMixed, false},
	}

	for _, tc := range tests {
		if got := classMatchesFilter(tc.class, tc.filter); got != tc.want {
			t.Fatalf("classMatchesFilter(%v, %q) = %v, want %v", tc.class, tc.filter, got, tc.want)
		}
	}
}

func TestCardsForEntryPlain(t *testing.T) {
	t.Run("canceled entry yields one canceled card", func(t *testing.T) {
		cards := cardsForEntry(flaggedEntry(true, false), FilterAll)
		if len(cards) != 1 {
			t.Fatalf("expected 1 card, got %d", len(cards))
		}
		if cards[0].Kind != FilterCanceled || cards[0].Subject != "Analyse" {
			t.Fatalf("unexpected card: %+v", cards[0])
		}
	})

	t.Run("quiet entry yields no cards", func(t *testing.T) {
		if cards := cardsForEntry(flaggedEntry(false, false), FilterAll); len(cards) != 0 {
			t.Fatalf("expected no cards, got %v", cards)
		}
	})

	t.Run("canceled entry hidden under rescheduled filter", func(t *testing.T) {
		if cards := cardsForEntry(flaggedEntry(true, false), FilterRescheduled); len(cards) != 0 {
			t.Fatalf("expected no cards, got %v", cards)
		}
	})
}

func TestCardsForEntrySplit(t *testing.T) {
	t.Run("slot 1 only is attributed to professor 1", func(t *testing.T) {
		cards := cardsForEntry(splitEntry(true, false, false, false), FilterAll)
		if len(cards) != 1 {
			t.Fatalf("expected 1 card, got %d", len(cards))
		}
		card := cards[0]
		if card.Kind != FilterCanceled || card.Professor != "Marc Durand" || card.Room != "Salle 101" {
			t.Fatalf("unexpected card: %+v", card)
		}
		if card.Subgroup != "A" {
			t.Fatalf("slot 1 card should name subgroup A, got %q", card.Subgroup)
		}
	})

	t.Run("slot 2 only substitutes subject2 and room2", func(t *testing.T) {
		cards := cardsForEntry(splitEntry(false, false, true, false), FilterAll)
		if len(cards) != 1 {
			t.Fatalf("expected 1 card, got %d", len(cards))
		}
		card := cards[0]
		if card.Subject != "Systèmes" || card.Room != "Salle 102" || card.Professor != "Sophie Leroy" {
			t.Fatalf("slot 2 substitution wrong: %+v", card)
		}
		if card.Subgroup != "B" {
			t.Fatalf("slot 2 card should name subgroup B, got %q", card.Subgroup)
		}
	})

	t.Run("both same action collapses to one card with joined subjects", func(t *testing.T) {
		cards := cardsForEntry(splitEntry(true, false, true, false), FilterAll)
		if len(cards) != 1 {
			t.Fatalf("expected 1 card, got %d", len(cards))
		}
		card := cards[0]
		if card.Kind != FilterCanceled {
			t.Fatalf("expected canceled card, got %q", card.Kind)
		}
		if card.Subject != "Réseaux / Systèmes" {
			t.Fatalf("subjects not joined: %q", card.Subject)
		}
	})

	t.Run("mixed actions yield exactly one mixed card under all", func(t *testing.T) {
		cards := cardsForEntry(splitEntry(true, false, false, true), FilterAll)
		if len(cards) != 1 || cards[0].Kind != FilterMixed {
			t.Fatalf("expected one mixed card, got %v", cards)
		}
	})

	t.Run("mixed actions hidden under canceled and rescheduled filters", func(t *testing.T) {
		entry := splitEntry(true, false, false, true)
		if cards := cardsForEntry(entry, FilterCanceled); len(cards) != 0 {
			t.Fatalf("mixed entry must not appear under canceled, got %v", cards)
		}
		if cards := cardsForEntry(entry, FilterRescheduled); len(cards) != 0 {
			t.Fatalf("mixed entry must not appear under rescheduled, got %v", cards)
		}
		if cards := cardsForEntry(entry, FilterMixed); len(cards) != 1 {
			t.Fatalf("mixed entry must appear under mixed, got %v", cards)
		}
	})

	t.Run("quiet split yields no cards", func(t *testing.T) {
		if cards := cardsForEntry(splitEntry(false, false, false, false), FilterAll); len(cards) != 0 {
			t.Fatalf("expected no cards, got %v", cards)
		}
	})
}

func TestIsValidFilter(t *testing.T) {
	for _, f := range []string{FilterAll, FilterCanceled, FilterRescheduled, FilterMixed} {
		if !IsValidFilter(f) {
			t.Fatalf("filter %q should be valid", f)
		}
	}
	if IsValidFilter("archived") || IsValidFilter("") {
		t.Fatalf("unknown filters must be rejected")
	}
}
