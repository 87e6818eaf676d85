package services

import (
	"context"
	"fmt"
	"strconv"
	"unitimetable/config"
	"unitimetable/database"
	"unitimetable/models"
)

// RoomProbe describes a candidate room assignment being validated: the
// probed room, the target day/slot, the cell under edit (to exempt
// self-conflicts when re-saving it) and the split shape of the candidate.
type RoomProbe struct {
	Room     string `json:"room"`
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
	YearID   *uint  `json:"year,omitempty"`
	GroupID  *uint  `json:"group,omitempty"`

	IsSplit   bool   `json:"is_split,omitempty"`
	SplitType string `json:"split_type,omitempty"`
	Subgroup  string `json:"subgroup,omitempty"`
	Room2     string `json:"room2,omitempty"`
}

// ProfessorProbe is the professor-side equivalent of RoomProbe.
type ProfessorProbe struct {
	ProfessorID uint   `json:"professor_id"`
	Day         string `json:"day"`
	TimeSlot    string `json:"time_slot"`
	YearID      *uint  `json:"year,omitempty"`
	GroupID     *uint  `json:"group,omitempty"`

	IsSplit      bool   `json:"is_split,omitempty"`
	SplitType    string `json:"split_type,omitempty"`
	Subgroup     string `json:"subgroup,omitempty"`
	Professor2ID *uint  `json:"professor2_id,omitempty"`
}

// ConflictInfo echoes enough of a conflicting entry for the caller to
// render a diagnostic message.
type ConflictInfo struct {
	Year      string `json:"year"`
	Group     string `json:"group"`
	Day       string `json:"day"`
	Time      string `json:"time"`
	Subject   string `json:"subject"`
	Professor string `json:"professor"`
	Room      string `json:"room"`

	IsSplit    bool   `json:"is_split,omitempty"`
	SplitType  string `json:"split_type,omitempty"`
	Subgroup1  string `json:"subgroup1,omitempty"`
	Subgroup2  string `json:"subgroup2,omitempty"`
	Professor2 string `json:"professor2,omitempty"`
	Subject2   string `json:"subject2,omitempty"`
	Room2      string `json:"room2,omitempty"`
	Subgroup   string `json:"subgroup,omitempty"`

	IsProfessor2Conflict bool `json:"is_professor2_conflict,omitempty"`
}

// AvailabilityResult is the outcome of a room or professor check.
type AvailabilityResult struct {
	Available bool           `json:"available"`
	Conflicts []ConflictInfo `json:"conflicts,omitempty"`
	// SelfPaired marks the candidate assigning one professor to both
	// subgroup slots of its own same_time split. Flagged, and blocked only
	// when ALLOW_SELF_PAIRED_SPLIT is off.
	SelfPaired bool `json:"self_paired,omitempty"`
}

type AvailabilityService struct {
	reservations *ReservationService
}

func NewAvailabilityService(reservations *ReservationService) *AvailabilityService {
	return &AvailabilityService{reservations: reservations}
}

// probeRooms lists every room the candidate would occupy.
func probeRooms(p RoomProbe) []string {
	rooms := []string{p.Room}
	if p.IsSplit && p.SplitType == models.SplitTypeSameTime && p.Room2 != "" {
		rooms = append(rooms, p.Room2)
	}
	return rooms
}

// roomProbeConflicts applies the split-aware room overlap rule: the
// candidate conflicts with an existing entry when any room it would occupy
// matches any room the entry occupies. A same_time entry occupies both its
// rooms; single_group and simple entries occupy one. This collapses the
// full candidate-split x entry-split cross product into one membership
// test because every variant books whole rooms for the whole slot.
func roomProbeConflicts(p RoomProbe, e *models.TimetableEntry) bool {
	for _, candidate := range probeRooms(p) {
		for _, occupied := range e.OccupiedRooms() {
			if candidate == occupied {
				return true
			}
		}
	}
	return false
}

// professorConflicts reports whether the probed professor already occupies
// a slot on the entry. For two same_time splits any overlap is a conflict:
// a professor cannot teach two subgroups of different cells concurrently.
func professorConflicts(professorID uint, e *models.TimetableEntry) bool {
	for _, occupied := range e.OccupiedProfessors() {
		if professorID == occupied {
			return true
		}
	}
	return false
}

// isSameCell exempts the cell currently being edited from conflicting
// with itself when the admin re-saves it.
func isSameCell(yearID, groupID *uint, e *models.TimetableEntry) bool {
	return yearID != nil && groupID != nil && e.YearID == *yearID && e.GroupID == *groupID
}

func conflictInfoFromEntry(e *models.TimetableEntry, isProfessor2 bool) ConflictInfo {
	info := ConflictInfo{
		Year:                 e.Year.Name,
		Group:                e.Group.Name,
		Day:                  e.Day,
		Time:                 e.TimeSlot,
		Subject:              e.Subject.Name,
		Professor:            e.Professor.DisplayName(),
		Room:                 e.Room,
		IsProfessor2Conflict: isProfessor2,
	}

	switch e.Split() {
	case models.SplitSameTime:
		info.IsSplit = true
		info.SplitType = models.SplitTypeSameTime
		info.Subgroup1 = e.Subgroup1
		info.Subgroup2 = e.Subgroup2
		info.Room2 = e.Room2
		if e.Professor2 != nil {
			info.Professor2 = e.Professor2.DisplayName()
		}
		if e.Subject2 != nil {
			info.Subject2 = e.Subject2.Name
		}
	case models.SplitSingleGroup:
		info.IsSplit = true
		info.SplitType = models.SplitTypeSingleGroup
		info.Subgroup = e.Subgroup
	}

	return info
}

func validateSlot(day, timeSlot string) error {
	if day == "" || timeSlot == "" {
		return fmt.Errorf("%w: day and time_slot are required", ErrInvalidInput)
	}
	if !models.IsValidDay(day) {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidInput, day)
	}
	if !models.IsValidTimeSlot(timeSlot) {
		return fmt.Errorf("%w: unknown time_slot %q", ErrInvalidInput, timeSlot)
	}
	return nil
}

// CheckRoom scans every entry booked on the probed rooms for the day and
// slot and returns the conflict set. When the rooms are free they are
// reserved for actorID until the save that should follow.
func (s *AvailabilityService) CheckRoom(ctx context.Context, probe RoomProbe, actorID uint) (*AvailabilityResult, error) {
	if probe.Room == "" {
		return nil, fmt.Errorf("%w: room is required", ErrInvalidInput)
	}
	if err := validateSlot(probe.Day, probe.TimeSlot); err != nil {
		return nil, err
	}

	rooms := probeRooms(probe)

	var entries []models.TimetableEntry
	err := database.DB.
		Preload("Year").Preload("Group").
		Preload("Subject").Preload("Subject2").
		Preload("Professor").Preload("Professor2").
		Where("day = ? AND time_slot = ?", probe.Day, probe.TimeSlot).
		Where("room IN ? OR room2 IN ?", rooms, rooms).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	conflicts := make([]ConflictInfo, 0)
	for i := range entries {
		e := &entries[i]
		if isSameCell(probe.YearID, probe.GroupID, e) {
			continue
		}
		if roomProbeConflicts(probe, e) {
			conflicts = append(conflicts, conflictInfoFromEntry(e, false))
		}
	}

	result := &AvailabilityResult{Available: len(conflicts) == 0, Conflicts: conflicts}
	if result.Available {
		for _, room := range rooms {
			if err := s.reservations.Reserve(ctx, ReservationKindRoom, probe.Day, probe.TimeSlot, room, actorID); err != nil {
				result.Available = false
				return result, err
			}
		}
	}
	return result, nil
}

// CheckProfessor scans for professor double-booking, covering both slots
// of same_time splits on either side. When the candidate carries a second
// professor the scan runs again for them and those conflicts are tagged
// is_professor2_conflict.
func (s *AvailabilityService) CheckProfessor(ctx context.Context, probe ProfessorProbe, actorID uint) (*AvailabilityResult, error) {
	if probe.ProfessorID == 0 {
		return nil, fmt.Errorf("%w: professor_id is required", ErrInvalidInput)
	}
	if err := validateSlot(probe.Day, probe.TimeSlot); err != nil {
		return nil, err
	}

	sameTimeSplit := probe.IsSplit && probe.SplitType == models.SplitTypeSameTime
	selfPaired := sameTimeSplit && probe.Professor2ID != nil && *probe.Professor2ID == probe.ProfessorID

	conflicts, err := s.scanProfessor(probe, probe.ProfessorID, false)
	if err != nil {
		return nil, err
	}

	if sameTimeSplit && probe.Professor2ID != nil && !selfPaired {
		second, err := s.scanProfessor(probe, *probe.Professor2ID, true)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, second...)
	}

	result := &AvailabilityResult{
		Available:  len(conflicts) == 0,
		Conflicts:  conflicts,
		SelfPaired: selfPaired,
	}
	if selfPaired && !config.AppConfig.AllowSelfPairedSplit {
		result.Available = false
	}

	if result.Available {
		ids := []uint{probe.ProfessorID}
		if sameTimeSplit && probe.Professor2ID != nil && !selfPaired {
			ids = append(ids, *probe.Professor2ID)
		}
		for _, id := range ids {
			key := strconv.FormatUint(uint64(id), 10)
			if err := s.reservations.Reserve(ctx, ReservationKindProfessor, probe.Day, probe.TimeSlot, key, actorID); err != nil {
				result.Available = false
				return result, err
			}
		}
	}
	return result, nil
}

func (s *AvailabilityService) scanProfessor(probe ProfessorProbe, professorID uint, isSecond bool) ([]ConflictInfo, error) {
	var entries []models.TimetableEntry
	err := database.DB.
		Preload("Year").Preload("Group").
		Preload("Subject").Preload("Subject2").
		Preload("Professor").Preload("Professor2").
		Where("day = ? AND time_slot = ?", probe.Day, probe.TimeSlot).
		Where("professor_id = ? OR professor2_id = ?", professorID, professorID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	conflicts := make([]ConflictInfo, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		if isSameCell(probe.YearID, probe.GroupID, e) {
			continue
		}
		if professorConflicts(professorID, e) {
			conflicts = append(conflicts, conflictInfoFromEntry(e, isSecond))
		}
	}
	return conflicts, nil
}
