package services

import (
	"fmt"
	"unitimetable/database"
	"unitimetable/models"
	"unitimetable/services/websocket"

	"gorm.io/gorm"
)

const (
	ActionCancel     = "cancel"
	ActionReschedule = "reschedule"
	ActionReset      = "reset"
)

// StatusService applies cancel/reschedule/reset actions to an entry,
// routing to per-professor flags when the entry is a same_time split with
// two professors and keeping the entry-level aggregates in sync.
type StatusService struct {
	hub *websocket.Hub
}

func NewStatusService(hub *websocket.Hub) *StatusService {
	return &StatusService{hub: hub}
}

func isValidStatusAction(action string) bool {
	return action == ActionCancel || action == ActionReschedule || action == ActionReset
}

// applyStatusAction mutates the entry's flags in place. Per professor-slot
// the states Normal/Canceled/Rescheduled are mutually exclusive; cancel and
// reschedule overwrite each other, reset returns to Normal.
//
// On a two-professor split an admin's cancel/reschedule applies to both
// slots, and an admin's reset clears both while a professor's reset clears
// only their own.
func applyStatusAction(e *models.TimetableEntry, action string, actorID uint, actorRole string) error {
	if !isValidStatusAction(action) {
		return fmt.Errorf("%w: unknown status action %q", ErrInvalidInput, action)
	}

	isAdmin := actorRole == "admin"
	if !isAdmin {
		if actorRole != "professor" {
			return ErrForbidden
		}
		if !e.Teaches(actorID) {
			return ErrForbidden
		}
	}

	if !e.HasTwoProfessors() {
		switch action {
		case ActionCancel:
			e.IsCanceled = true
			e.IsReschedule = false
		case ActionReschedule:
			e.IsCanceled = false
			e.IsReschedule = true
		case ActionReset:
			e.IsCanceled = false
			e.IsReschedule = false
		}
		// Slot flags stay untouched for non-split entries; clear them anyway
		// so an entry converted from a split cannot carry stale slot state.
		e.Professor1Canceled = false
		e.Professor1Rescheduled = false
		e.Professor2Canceled = false
		e.Professor2Rescheduled = false
		return nil
	}

	first := actorID == e.ProfessorID
	second := e.Professor2ID != nil && actorID == *e.Professor2ID
	if !isAdmin && !first && !second {
		// Authorization already passed, so the actor must map to a slot.
		return ErrInternalInconsistency
	}

	switch action {
	case ActionCancel:
		if first || isAdmin {
			e.Professor1Canceled = true
			e.Professor1Rescheduled = false
		}
		if second || isAdmin {
			e.Professor2Canceled = true
			e.Professor2Rescheduled = false
		}
	case ActionReschedule:
		if first || isAdmin {
			e.Professor1Rescheduled = true
			e.Professor1Canceled = false
		}
		if second || isAdmin {
			e.Professor2Rescheduled = true
			e.Professor2Canceled = false
		}
	case ActionReset:
		if first || isAdmin {
			e.Professor1Canceled = false
			e.Professor1Rescheduled = false
		}
		if second || isAdmin {
			e.Professor2Canceled = false
			e.Professor2Rescheduled = false
		}
	}

	e.IsCanceled = e.Professor1Canceled || e.Professor2Canceled
	e.IsReschedule = e.Professor1Rescheduled || e.Professor2Rescheduled
	return nil
}

// ApplyStatus loads the entry, applies the action and persists all flags
// inside a single transaction. On any failure the transaction rolls back
// and no partial slot update is left behind.
func (s *StatusService) ApplyStatus(entryID uint, action string, actorID uint, actorRole string) (*models.TimetableEntry, error) {
	var entry models.TimetableEntry

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, entryID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		if err := applyStatusAction(&entry, action, actorID, actorRole); err != nil {
			return err
		}

		return tx.Model(&models.TimetableEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"is_canceled":            entry.IsCanceled,
				"is_reschedule":          entry.IsReschedule,
				"professor1_canceled":    entry.Professor1Canceled,
				"professor1_rescheduled": entry.Professor1Rescheduled,
				"professor2_canceled":    entry.Professor2Canceled,
				"professor2_rescheduled": entry.Professor2Rescheduled,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Broadcast(websocket.Message{
			Type: "class_status_changed",
			Data: map[string]interface{}{
				"entry_id":      entry.ID,
				"action":        action,
				"is_canceled":   entry.IsCanceled,
				"is_reschedule": entry.IsReschedule,
			},
		})
	}

	return &entry, nil
}
