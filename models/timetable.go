package models

import "time"

// Day and time slot vocabularies for the weekly grid. The grid UI shows
// monday through saturday; sunday is accepted for evening programs.
var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// TimeSlots are the six fixed teaching periods of a day.
var TimeSlots = []string{
	"08:00-09:30",
	"09:30-11:00",
	"11:00-12:30",
	"13:00-14:30",
	"14:30-16:00",
	"16:00-17:30",
}

// ClassTypes follows the French university session taxonomy.
var ClassTypes = []string{"CM", "TD", "TP", "DE", "CO"}

const (
	SplitTypeSameTime    = "same_time"
	SplitTypeSingleGroup = "single_group"
)

func IsValidDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

func IsValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

func IsValidClassType(classType string) bool {
	for _, t := range ClassTypes {
		if t == classType {
			return true
		}
	}
	return false
}

// TimetableEntry is one scheduled class occupying a
// (year, group, day, time_slot) cell. For each cell at most one published
// and one draft row exist at a time; the draft overrides the published row
// for admin display until it is promoted.
//
// Entries are replaced wholesale on save/publish, so the model carries no
// soft-delete column: a deleted cell must free its slot in the unique
// index immediately.
type TimetableEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	YearID   uint   `json:"year_id" gorm:"not null;uniqueIndex:idx_cell"`
	GroupID  uint   `json:"group_id" gorm:"not null;uniqueIndex:idx_cell"`
	Day      string `json:"day" gorm:"size:20;not null;uniqueIndex:idx_cell"`
	TimeSlot string `json:"time_slot" gorm:"size:20;not null;uniqueIndex:idx_cell"`

	SubjectID   uint   `json:"subject_id" gorm:"not null"`
	ProfessorID uint   `json:"professor_id" gorm:"not null"`
	Room        string `json:"room" gorm:"size:100;not null"`
	ClassType   string `json:"class_type" gorm:"size:10;not null"`

	IsSplit   bool   `json:"is_split" gorm:"default:false"`
	SplitType string `json:"split_type,omitempty" gorm:"size:20"` // same_time, single_group or empty

	// same_time split: a second professor teaches the other subgroup
	// simultaneously in a second room.
	Professor2ID *uint  `json:"professor2_id,omitempty"`
	Subject2ID   *uint  `json:"subject2_id,omitempty"`
	Room2        string `json:"room2,omitempty" gorm:"size:100"`
	Subgroup1    string `json:"subgroup1,omitempty" gorm:"size:20"`
	Subgroup2    string `json:"subgroup2,omitempty" gorm:"size:20"`

	// single_group split: only this subgroup meets, the other half of the
	// group is free for the slot.
	Subgroup string `json:"subgroup,omitempty" gorm:"size:20"`

	// Entry-level status aggregates. When the entry is a same_time split
	// with two professors these are the OR of the per-professor flags below.
	IsCanceled   bool `json:"is_canceled" gorm:"default:false"`
	IsReschedule bool `json:"is_reschedule" gorm:"default:false"`

	Professor1Canceled    bool `json:"professor1_canceled" gorm:"default:false"`
	Professor1Rescheduled bool `json:"professor1_rescheduled" gorm:"default:false"`
	Professor2Canceled    bool `json:"professor2_canceled" gorm:"default:false"`
	Professor2Rescheduled bool `json:"professor2_rescheduled" gorm:"default:false"`

	IsPublished bool `json:"is_published" gorm:"default:false;uniqueIndex:idx_cell"`

	// Relationships
	Year       Year     `json:"year,omitempty" gorm:"foreignKey:YearID"`
	Group      Group    `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Subject    Subject  `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Subject2   *Subject `json:"subject2,omitempty" gorm:"foreignKey:Subject2ID"`
	Professor  User     `json:"professor,omitempty" gorm:"foreignKey:ProfessorID"`
	Professor2 *User    `json:"professor2,omitempty" gorm:"foreignKey:Professor2ID"`
}

// SplitKind is the tagged view over the nullable split columns. Code that
// reconciles per-professor state switches on this instead of re-deriving
// the shape from raw fields.
type SplitKind int

const (
	SplitNone SplitKind = iota
	SplitSameTime
	SplitSingleGroup
)

// Split classifies the entry. A row flagged is_split with an unknown
// split_type is treated as not split rather than guessed at.
func (e *TimetableEntry) Split() SplitKind {
	if !e.IsSplit {
		return SplitNone
	}
	switch e.SplitType {
	case SplitTypeSameTime:
		return SplitSameTime
	case SplitTypeSingleGroup:
		return SplitSingleGroup
	default:
		return SplitNone
	}
}

// HasTwoProfessors reports whether per-professor status flags apply to
// this entry: only a same_time split with a second professor has them.
func (e *TimetableEntry) HasTwoProfessors() bool {
	return e.Split() == SplitSameTime && e.Professor2ID != nil
}

// ProfessorSlot is one professor assignment on an entry. Index is 1 for
// the primary slot and 2 for the second professor of a same_time split.
type ProfessorSlot struct {
	Index       int
	ProfessorID uint
	SubjectID   uint
	Room        string
	Subgroup    string
	Canceled    bool
	Rescheduled bool
}

// Slots returns the professor slots of the entry: one for simple and
// single_group entries, two for a same_time split with a second professor.
func (e *TimetableEntry) Slots() []ProfessorSlot {
	first := ProfessorSlot{
		Index:       1,
		ProfessorID: e.ProfessorID,
		SubjectID:   e.SubjectID,
		Room:        e.Room,
		Canceled:    e.IsCanceled,
		Rescheduled: e.IsReschedule,
	}
	switch e.Split() {
	case SplitSingleGroup:
		first.Subgroup = e.Subgroup
	case SplitSameTime:
		first.Subgroup = e.Subgroup1
	}

	if !e.HasTwoProfessors() {
		return []ProfessorSlot{first}
	}

	first.Canceled = e.Professor1Canceled
	first.Rescheduled = e.Professor1Rescheduled

	second := ProfessorSlot{
		Index:       2,
		ProfessorID: *e.Professor2ID,
		Room:        e.Room2,
		Subgroup:    e.Subgroup2,
		Canceled:    e.Professor2Canceled,
		Rescheduled: e.Professor2Rescheduled,
	}
	if e.Subject2ID != nil {
		second.SubjectID = *e.Subject2ID
	} else {
		second.SubjectID = e.SubjectID
	}
	return []ProfessorSlot{first, second}
}

// SlotFor resolves which slot a professor occupies on the entry.
func (e *TimetableEntry) SlotFor(professorID uint) (ProfessorSlot, bool) {
	for _, slot := range e.Slots() {
		if slot.ProfessorID == professorID {
			return slot, true
		}
	}
	return ProfessorSlot{}, false
}

// OccupiedRooms returns every room the entry holds for its slot.
func (e *TimetableEntry) OccupiedRooms() []string {
	rooms := []string{e.Room}
	if e.Split() == SplitSameTime && e.Room2 != "" {
		rooms = append(rooms, e.Room2)
	}
	return rooms
}

// OccupiedProfessors returns every professor the entry holds for its slot.
func (e *TimetableEntry) OccupiedProfessors() []uint {
	ids := []uint{e.ProfessorID}
	if e.HasTwoProfessors() {
		ids = append(ids, *e.Professor2ID)
	}
	return ids
}

// Teaches reports whether the professor occupies either slot of the entry.
func (e *TimetableEntry) Teaches(professorID uint) bool {
	_, ok := e.SlotFor(professorID)
	return ok
}
