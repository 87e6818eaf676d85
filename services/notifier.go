package services

import (
	"fmt"
	"unitimetable/database"
	"unitimetable/models"
)

// Notification filters.
const (
	FilterAll         = "all"
	FilterCanceled    = "canceled"
	FilterRescheduled = "rescheduled"
	FilterMixed       = "mixed"
)

// DisplayCard is one admin-facing notification derived from a flagged
// entry. A two-professor split entry can fan out into one card per
// affected slot, or collapse into a single "mixed" card.
type DisplayCard struct {
	EntryID   uint   `json:"entry_id"`
	Kind      string `json:"kind"` // canceled | rescheduled | mixed
	Year      string `json:"year"`
	Group     string `json:"group"`
	Day       string `json:"day"`
	TimeSlot  string `json:"time_slot"`
	Subject   string `json:"subject"`
	Professor string `json:"professor"`
	Room      string `json:"room"`
	Subgroup  string `json:"subgroup,omitempty"`
	Message   string `json:"message"`
}

// NotificationCounts feeds the filter pills. Each entry is classified
// exactly once regardless of how many cards it fans out into.
type NotificationCounts struct {
	Canceled    int `json:"canceled"`
	Rescheduled int `json:"rescheduled"`
	Mixed       int `json:"mixed"`
	Total       int `json:"total"`
}

type entryClass int

const (
	classNone entryClass = iota
	classCanceled
	classRescheduled
	classMixed
)

// NotificationService derives status notifications from the flagged
// published and draft entries.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func IsValidFilter(filter string) bool {
	switch filter {
	case FilterAll, FilterCanceled, FilterRescheduled, FilterMixed:
		return true
	}
	return false
}

// classifyEntry reduces an entry to one bucket for the pill counts. A
// two-professor split with one canceled and one rescheduled slot is
// "mixed"; everything else follows its entry-level flags.
func classifyEntry(e *models.TimetableEntry) entryClass {
	if e.HasTwoProfessors() {
		slots := e.Slots()
		a1 := slotAction(slots[0])
		a2 := slotAction(slots[1])
		switch {
		case a1 == classNone && a2 == classNone:
			return classNone
		case a1 == classNone:
			return a2
		case a2 == classNone:
			return a1
		case a1 == a2:
			return a1
		default:
			return classMixed
		}
	}
	switch {
	case e.IsCanceled:
		return classCanceled
	case e.IsReschedule:
		return classRescheduled
	}
	return classNone
}

func slotAction(slot models.ProfessorSlot) entryClass {
	switch {
	case slot.Canceled:
		return classCanceled
	case slot.Rescheduled:
		return classRescheduled
	}
	return classNone
}

func (c entryClass) kind() string {
	switch c {
	case classCanceled:
		return FilterCanceled
	case classRescheduled:
		return FilterRescheduled
	case classMixed:
		return FilterMixed
	}
	return ""
}

func classMatchesFilter(class entryClass, filter string) bool {
	switch filter {
	case FilterAll:
		return class != classNone
	case FilterCanceled:
		return class == classCanceled
	case FilterRescheduled:
		return class == classRescheduled
	case FilterMixed:
		return class == classMixed
	}
	return false
}

func actionVerb(class entryClass) string {
	if class == classCanceled {
		return "canceled"
	}
	return "rescheduled"
}

func subject2Name(s *models.Subject) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func professor2Name(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.DisplayName()
}

// cardsForEntry fans one flagged entry out into its display cards.
func cardsForEntry(e *models.TimetableEntry, filter string) []DisplayCard {
	class := classifyEntry(e)
	if !classMatchesFilter(class, filter) {
		return nil
	}

	base := DisplayCard{
		EntryID:  e.ID,
		Year:     e.Year.Name,
		Group:    e.Group.Name,
		Day:      e.Day,
		TimeSlot: e.TimeSlot,
		Subgroup: e.Subgroup,
	}

	if !e.HasTwoProfessors() {
		var cards []DisplayCard
		for _, flagged := range []struct {
			raised bool
			class  entryClass
		}{
			{e.IsCanceled, classCanceled},
			{e.IsReschedule, classRescheduled},
		} {
			if !flagged.raised {
				continue
			}
			card := base
			card.Kind = flagged.class.kind()
			card.Subject = e.Subject.Name
			card.Professor = e.Professor.DisplayName()
			card.Room = e.Room
			card.Message = fmt.Sprintf("%s %s", e.Subject.Name, actionVerb(flagged.class))
			cards = append(cards, card)
		}
		return cards
	}

	slots := e.Slots()
	a1 := slotAction(slots[0])
	a2 := slotAction(slots[1])

	switch {
	case a1 != classNone && a2 == classNone:
		card := base
		card.Kind = a1.kind()
		card.Subject = e.Subject.Name
		card.Professor = e.Professor.DisplayName()
		card.Room = e.Room
		card.Subgroup = e.Subgroup1
		card.Message = fmt.Sprintf("%s %s", e.Subject.Name, actionVerb(a1))
		return []DisplayCard{card}

	case a1 == classNone && a2 != classNone:
		card := base
		card.Kind = a2.kind()
		card.Subject = subject2Name(e.Subject2)
		if card.Subject == "" {
			card.Subject = e.Subject.Name
		}
		card.Professor = professor2Name(e.Professor2)
		card.Room = e.Room2
		card.Subgroup = e.Subgroup2
		card.Message = fmt.Sprintf("%s %s", card.Subject, actionVerb(a2))
		return []DisplayCard{card}

	case a1 == a2:
		card := base
		card.Kind = a1.kind()
		card.Subject = joinSubjects(e)
		card.Professor = joinProfessors(e)
		card.Room = e.Room
		card.Message = fmt.Sprintf("%s %s by both professors", card.Subject, actionVerb(a1))
		return []DisplayCard{card}

	default:
		card := base
		card.Kind = FilterMixed
		card.Subject = joinSubjects(e)
		card.Professor = joinProfessors(e)
		card.Room = e.Room
		card.Message = "one professor canceled, the other rescheduled"
		return []DisplayCard{card}
	}
}

func joinSubjects(e *models.TimetableEntry) string {
	first := e.Subject.Name
	second := subject2Name(e.Subject2)
	if second == "" || second == first {
		return first
	}
	return first + " / " + second
}

func joinProfessors(e *models.TimetableEntry) string {
	first := e.Professor.DisplayName()
	second := professor2Name(e.Professor2)
	if second == "" {
		return first
	}
	return first + ", " + second
}

// List returns the cards matching the filter plus the global pill counts.
// Counts always cover every flagged entry, whatever the active filter.
func (s *NotificationService) List(filter string) ([]DisplayCard, NotificationCounts, error) {
	if filter == "" {
		filter = FilterAll
	}
	if !IsValidFilter(filter) {
		return nil, NotificationCounts{}, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, filter)
	}

	var entries []models.TimetableEntry
	err := database.DB.
		Preload("Year").Preload("Group").
		Preload("Subject").Preload("Subject2").
		Preload("Professor").Preload("Professor2").
		Where("is_canceled = ? OR is_reschedule = ?", true, true).
		Order("day, time_slot").
		Find(&entries).Error
	if err != nil {
		return nil, NotificationCounts{}, err
	}

	cards := make([]DisplayCard, 0, len(entries))
	var counts NotificationCounts
	for i := range entries {
		entry := &entries[i]
		switch classifyEntry(entry) {
		case classCanceled:
			counts.Canceled++
		case classRescheduled:
			counts.Rescheduled++
		case classMixed:
			counts.Mixed++
		}
		cards = append(cards, cardsForEntry(entry, filter)...)
	}

	// Pills show mixed entries under both action headings; the total
	// counts each entry once.
	counts.Total = counts.Canceled + counts.Rescheduled + counts.Mixed
	counts.Canceled += counts.Mixed
	counts.Rescheduled += counts.Mixed
	return cards, counts, nil
}
