package services

import (
	"context"
	"fmt"
	"strconv"
	"unitimetable/database"
	"unitimetable/models"
	"unitimetable/services/websocket"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CellInput is one submitted timetable cell.
type CellInput struct {
	SubjectID   uint   `json:"subject_id"`
	ProfessorID uint   `json:"professor_id"`
	Room        string `json:"room"`
	ClassType   string `json:"class_type"`

	IsSplit      bool   `json:"is_split,omitempty"`
	SplitType    string `json:"split_type,omitempty"`
	Professor2ID *uint  `json:"professor2_id,omitempty"`
	Subject2ID   *uint  `json:"subject2_id,omitempty"`
	Room2        string `json:"room2,omitempty"`
	Subgroup1    string `json:"subgroup1,omitempty"`
	Subgroup2    string `json:"subgroup2,omitempty"`
	Subgroup     string `json:"subgroup,omitempty"`
}

// TimetableData maps day -> time_slot -> cell. Empty cells are omitted or
// null.
type TimetableData map[string]map[string]*CellInput

// TimetableState reports the publication state of a (year, group) grid.
type TimetableState struct {
	IsPublished     bool `json:"is_published"`
	HasDraftChanges bool `json:"has_draft_changes"`
}

// PublishService manages the draft/published duality of timetable rows:
// saves merge admin edits into draft rows, publishes promote the
// draft-over-published mixture into a fresh published set.
type PublishService struct {
	reservations *ReservationService
	hub          *websocket.Hub
}

func NewPublishService(reservations *ReservationService, hub *websocket.Hub) *PublishService {
	return &PublishService{reservations: reservations, hub: hub}
}

func validateCell(day, slot string, cell *CellInput) error {
	if !models.IsValidDay(day) {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidInput, day)
	}
	if !models.IsValidTimeSlot(slot) {
		return fmt.Errorf("%w: unknown time_slot %q", ErrInvalidInput, slot)
	}
	if cell.SubjectID == 0 || cell.ProfessorID == 0 || cell.Room == "" {
		return fmt.Errorf("%w: cell %s/%s needs subject, professor and room", ErrInvalidInput, day, slot)
	}
	if cell.ClassType != "" && !models.IsValidClassType(cell.ClassType) {
		return fmt.Errorf("%w: unknown class_type %q", ErrInvalidInput, cell.ClassType)
	}
	if cell.IsSplit {
		switch cell.SplitType {
		case models.SplitTypeSameTime:
			if cell.Professor2ID == nil || cell.Room2 == "" {
				return fmt.Errorf("%w: same_time split needs professor2 and room2", ErrInvalidInput)
			}
		case models.SplitTypeSingleGroup:
			if cell.Subgroup == "" {
				return fmt.Errorf("%w: single_group split needs a subgroup label", ErrInvalidInput)
			}
		default:
			return fmt.Errorf("%w: unknown split_type %q", ErrInvalidInput, cell.SplitType)
		}
	}
	return nil
}

// cellMatchesPublished compares a submitted cell with a published row on
// the fields an edit can change meaningfully for publication: subject,
// professor and room. Matching cells create no draft churn.
func cellMatchesPublished(published *models.TimetableEntry, cell *CellInput) bool {
	return published.SubjectID == cell.SubjectID &&
		published.ProfessorID == cell.ProfessorID &&
		published.Room == cell.Room
}

func entryFromInput(yearID, groupID uint, day, slot string, cell *CellInput) models.TimetableEntry {
	entry := models.TimetableEntry{
		YearID:       yearID,
		GroupID:      groupID,
		Day:          day,
		TimeSlot:     slot,
		SubjectID:    cell.SubjectID,
		ProfessorID:  cell.ProfessorID,
		Room:         cell.Room,
		ClassType:    cell.ClassType,
		IsPublished:  false,
		IsSplit:      cell.IsSplit,
		SplitType:    cell.SplitType,
		Professor2ID: cell.Professor2ID,
		Subject2ID:   cell.Subject2ID,
		Room2:        cell.Room2,
		Subgroup1:    cell.Subgroup1,
		Subgroup2:    cell.Subgroup2,
		Subgroup:     cell.Subgroup,
	}
	if entry.ClassType == "" {
		entry.ClassType = "CM"
	}
	if !entry.IsSplit {
		entry.SplitType = ""
		entry.Professor2ID = nil
		entry.Subject2ID = nil
		entry.Room2 = ""
		entry.Subgroup1 = ""
		entry.Subgroup2 = ""
		entry.Subgroup = ""
	}
	return entry
}

type cellKey struct {
	Day  string
	Slot string
}

// draftForCell decides what a save writes for one cell. Any prior draft
// for the cell is dropped by the caller either way; a fresh draft row is
// returned only when the cell differs from its published row (or no
// published row exists). A nil return means the cell settles on the
// published content.
func draftForCell(yearID, groupID uint, day, slot string, cell *CellInput, published *models.TimetableEntry) *models.TimetableEntry {
	if published != nil && cellMatchesPublished(published, cell) {
		return nil
	}
	entry := entryFromInput(yearID, groupID, day, slot, cell)
	return &entry
}

// mergePreferDraft collapses the row set of one (year, group) into one row
// per cell, the draft row winning over the published one.
func mergePreferDraft(rows []models.TimetableEntry) map[cellKey]models.TimetableEntry {
	merged := make(map[cellKey]models.TimetableEntry, len(rows))
	for _, row := range rows {
		key := cellKey{Day: row.Day, Slot: row.TimeSlot}
		existing, ok := merged[key]
		if !ok || (existing.IsPublished && !row.IsPublished) {
			merged[key] = row
		}
	}
	return merged
}

// state computes the publication flags for a (year, group).
func (s *PublishService) state(tx *gorm.DB, yearID, groupID uint) (TimetableState, error) {
	var published, drafts int64
	if err := tx.Model(&models.TimetableEntry{}).
		Where("year_id = ? AND group_id = ? AND is_published = ?", yearID, groupID, true).
		Count(&published).Error; err != nil {
		return TimetableState{}, err
	}
	if err := tx.Model(&models.TimetableEntry{}).
		Where("year_id = ? AND group_id = ? AND is_published = ?", yearID, groupID, false).
		Count(&drafts).Error; err != nil {
		return TimetableState{}, err
	}
	return TimetableState{IsPublished: published > 0, HasDraftChanges: drafts > 0}, nil
}

// Save merges the submitted grid into draft rows. Each submitted cell
// drops any prior draft, then writes what draftForCell decides. Published
// rows are never deleted by a save.
func (s *PublishService) Save(ctx context.Context, yearID, groupID uint, data TimetableData, actorID uint) (TimetableState, error) {
	if yearID == 0 || groupID == 0 {
		return TimetableState{}, fmt.Errorf("%w: year and group are required", ErrInvalidInput)
	}

	for day, slots := range data {
		for slot, cell := range slots {
			if cell == nil {
				continue
			}
			if err := validateCell(day, slot, cell); err != nil {
				return TimetableState{}, err
			}
		}
	}

	if err := s.verifyReservations(ctx, data, actorID); err != nil {
		return TimetableState{}, err
	}

	var state TimetableState
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for day, slots := range data {
			for slot, cell := range slots {
				if cell == nil {
					continue
				}

				var published models.TimetableEntry
				err := tx.Where("year_id = ? AND group_id = ? AND day = ? AND time_slot = ? AND is_published = ?",
					yearID, groupID, day, slot, true).First(&published).Error
				var publishedRow *models.TimetableEntry
				if err == nil {
					publishedRow = &published
				} else if err != gorm.ErrRecordNotFound {
					return err
				}

				// Drafts for the cell are replaced either way: a matching
				// cell must not resurface an older edit on publish.
				if err := tx.Where("year_id = ? AND group_id = ? AND day = ? AND time_slot = ? AND is_published = ?",
					yearID, groupID, day, slot, false).Delete(&models.TimetableEntry{}).Error; err != nil {
					return err
				}

				draft := draftForCell(yearID, groupID, day, slot, cell, publishedRow)
				if draft == nil {
					continue
				}
				if err := tx.Create(draft).Error; err != nil {
					return err
				}
			}
		}

		var err error
		state, err = s.state(tx, yearID, groupID)
		return err
	})
	if err != nil {
		return TimetableState{}, err
	}

	s.releaseReservations(ctx, data, actorID)
	return state, nil
}

// verifyReservations refuses the save when another admin holds an active
// reservation on a room or professor this grid is about to book.
func (s *PublishService) verifyReservations(ctx context.Context, data TimetableData, actorID uint) error {
	for day, slots := range data {
		for slot, cell := range slots {
			if cell == nil {
				continue
			}
			rooms := []string{cell.Room}
			professors := []uint{cell.ProfessorID}
			if cell.IsSplit && cell.SplitType == models.SplitTypeSameTime {
				if cell.Room2 != "" {
					rooms = append(rooms, cell.Room2)
				}
				if cell.Professor2ID != nil {
					professors = append(professors, *cell.Professor2ID)
				}
			}
			for _, room := range rooms {
				if err := s.reservations.Verify(ctx, ReservationKindRoom, day, slot, room, actorID); err != nil {
					return err
				}
			}
			for _, id := range professors {
				key := strconv.FormatUint(uint64(id), 10)
				if err := s.reservations.Verify(ctx, ReservationKindProfessor, day, slot, key, actorID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *PublishService) releaseReservations(ctx context.Context, data TimetableData, actorID uint) {
	for day, slots := range data {
		for slot, cell := range slots {
			if cell == nil {
				continue
			}
			s.reservations.Release(ctx, ReservationKindRoom, day, slot, cell.Room, actorID)
			s.reservations.Release(ctx, ReservationKindProfessor, day, slot, strconv.FormatUint(uint64(cell.ProfessorID), 10), actorID)
			if cell.Room2 != "" {
				s.reservations.Release(ctx, ReservationKindRoom, day, slot, cell.Room2, actorID)
			}
			if cell.Professor2ID != nil {
				s.reservations.Release(ctx, ReservationKindProfessor, day, slot, strconv.FormatUint(uint64(*cell.Professor2ID), 10), actorID)
			}
		}
	}
}

// promoteBatch atomically replaces every row of one (year, group) with the
// draft-over-published merge, re-inserted as published rows.
func (s *PublishService) promoteBatch(yearID, groupID uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var rows []models.TimetableEntry
		if err := tx.Where("year_id = ? AND group_id = ?", yearID, groupID).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		merged := mergePreferDraft(rows)

		if err := tx.Where("year_id = ? AND group_id = ?", yearID, groupID).
			Delete(&models.TimetableEntry{}).Error; err != nil {
			return err
		}

		for _, row := range merged {
			row.ID = 0
			row.IsPublished = true
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Publish merges the submitted edits as a save, then promotes the whole
// (year, group) batch to published in its own transaction.
func (s *PublishService) Publish(ctx context.Context, yearID, groupID uint, data TimetableData, actorID uint) (TimetableState, error) {
	if _, err := s.Save(ctx, yearID, groupID, data, actorID); err != nil {
		return TimetableState{}, err
	}

	if err := s.promoteBatch(yearID, groupID); err != nil {
		return TimetableState{}, err
	}

	s.broadcastPublished(yearID, groupID)

	var state TimetableState
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		state, err = s.state(tx, yearID, groupID)
		return err
	})
	return state, err
}

// PublishAll promotes every (year, group) with at least one row. Each
// batch commits in its own transaction: a failing batch is reported and
// skipped without rolling back batches already committed.
func (s *PublishService) PublishAll() (published []string, failed []string, err error) {
	var pairs []struct {
		YearID  uint
		GroupID uint
	}
	if err := database.DB.Model(&models.TimetableEntry{}).
		Select("DISTINCT year_id, group_id").
		Scan(&pairs).Error; err != nil {
		return nil, nil, err
	}

	published = make([]string, 0, len(pairs))
	for _, pair := range pairs {
		label := s.batchLabel(pair.YearID, pair.GroupID)
		if err := s.promoteBatch(pair.YearID, pair.GroupID); err != nil {
			logrus.WithError(err).
				WithFields(logrus.Fields{"year_id": pair.YearID, "group_id": pair.GroupID}).
				Error("publish batch failed")
			failed = append(failed, label)
			continue
		}
		s.broadcastPublished(pair.YearID, pair.GroupID)
		published = append(published, label)
	}
	return published, failed, nil
}

func (s *PublishService) batchLabel(yearID, groupID uint) string {
	var year models.Year
	var group models.Group
	if err := database.DB.First(&year, yearID).Error; err != nil {
		year.Name = fmt.Sprintf("year %d", yearID)
	}
	if err := database.DB.First(&group, groupID).Error; err != nil {
		group.Name = fmt.Sprintf("group %d", groupID)
	}
	return year.Name + " " + group.Name
}

func (s *PublishService) broadcastPublished(yearID, groupID uint) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(websocket.Message{
		Type: "timetable_published",
		Data: map[string]interface{}{
			"year_id":  yearID,
			"group_id": groupID,
		},
	})
}

// Get returns the grid of a (year, group) keyed day -> time_slot. Admins
// see draft rows overriding published ones; everyone else sees only the
// published set.
func (s *PublishService) Get(yearID, groupID uint, admin bool) (map[string]map[string]*models.TimetableEntry, TimetableState, error) {
	if yearID == 0 || groupID == 0 {
		return nil, TimetableState{}, fmt.Errorf("%w: year and group are required", ErrInvalidInput)
	}

	query := database.DB.
		Preload("Year").Preload("Group").
		Preload("Subject").Preload("Subject2").
		Preload("Professor").Preload("Professor2").
		Where("year_id = ? AND group_id = ?", yearID, groupID)
	if !admin {
		query = query.Where("is_published = ?", true)
	}

	var rows []models.TimetableEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, TimetableState{}, err
	}

	grid := make(map[string]map[string]*models.TimetableEntry)
	for key, row := range mergePreferDraft(rows) {
		row := row
		if grid[key.Day] == nil {
			grid[key.Day] = make(map[string]*models.TimetableEntry)
		}
		grid[key.Day][key.Slot] = &row
	}

	var state TimetableState
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		state, err = s.state(tx, yearID, groupID)
		return err
	})
	return grid, state, err
}

// GetForProfessor returns the published teaching grid of one professor
// across all years and groups. The availability rules guarantee at most
// one entry per (day, time_slot).
func (s *PublishService) GetForProfessor(professorID uint) (map[string]map[string]*models.TimetableEntry, error) {
	if professorID == 0 {
		return nil, fmt.Errorf("%w: professor_id is required", ErrInvalidInput)
	}

	var rows []models.TimetableEntry
	err := database.DB.
		Preload("Year").Preload("Group").
		Preload("Subject").Preload("Subject2").
		Preload("Professor").Preload("Professor2").
		Where("is_published = ?", true).
		Where("professor_id = ? OR professor2_id = ?", professorID, professorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	grid := make(map[string]map[string]*models.TimetableEntry)
	for i := range rows {
		row := rows[i]
		if grid[row.Day] == nil {
			grid[row.Day] = make(map[string]*models.TimetableEntry)
		}
		grid[row.Day][row.TimeSlot] = &row
	}
	return grid, nil
}

// DeleteCell removes the draft and published rows of one cell.
func (s *PublishService) DeleteCell(yearID, groupID uint, day, slot string) error {
	if yearID == 0 || groupID == 0 {
		return fmt.Errorf("%w: year and group are required", ErrInvalidInput)
	}
	if !models.IsValidDay(day) || !models.IsValidTimeSlot(slot) {
		return fmt.Errorf("%w: unknown day or time_slot", ErrInvalidInput)
	}

	return database.DB.
		Where("year_id = ? AND group_id = ? AND day = ? AND time_slot = ?", yearID, groupID, day, slot).
		Delete(&models.TimetableEntry{}).Error
}

// Clear truncates every timetable row, draft and published alike.
func (s *PublishService) Clear() error {
	return database.DB.
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.TimetableEntry{}).Error
}
