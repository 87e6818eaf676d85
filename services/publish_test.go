package services

import (
	"errors"
	"testing"

	"unitimetable/models"
)

func TestValidateCell(t *testing.T) {
	valid := func() *CellInput {
		return &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "CM"}
	}

	tests := []struct {
		name    string
		day     string
		slot    string
		mutate  func(c *CellInput)
		wantErr bool
	}{
		{
			name: "valid simple cell",
			day:  "monday", slot: "08:00-09:30",
		},
		{
			name: "unknown day",
			day:  "funday", slot: "08:00-09:30",
			wantErr: true,
		},
		{
			name: "unknown slot",
			day:  "monday", slot: "06:00-07:30",
			wantErr: true,
		},
		{
			name: "missing professor",
			day:  "monday", slot: "08:00-09:30",
			mutate:  func(c *CellInput) { c.ProfessorID = 0 },
			wantErr: true,
		},
		{
			name: "unknown class type",
			day:  "monday", slot: "08:00-09:30",
			mutate:  func(c *CellInput) { c.ClassType = "XX" },
			wantErr: true,
		},
		{
			name: "same_time split without second professor",
			day:  "monday", slot: "08:00-09:30",
			mutate: func(c *CellInput) {
				c.IsSplit = true
				c.SplitType = models.SplitTypeSameTime
				c.Room2 = "Salle 102"
			},
			wantErr: true,
		},
		{
			name: "same_time split complete",
			day:  "monday", slot: "08:00-09:30",
			mutate: func(c *CellInput) {
				c.IsSplit = true
				c.SplitType = models.SplitTypeSameTime
				c.Professor2ID = uintPtr(5)
				c.Room2 = "Salle 102"
			},
		},
		{
			name: "single_group split without subgroup",
			day:  "monday", slot: "08:00-09:30",
			mutate: func(c *CellInput) {
				c.IsSplit = true
				c.SplitType = models.SplitTypeSingleGroup
			},
			wantErr: true,
		},
		{
			name: "unknown split type",
			day:  "monday", slot: "08:00-09:30",
			mutate: func(c *CellInput) {
				c.IsSplit = true
				c.SplitType = "alternating"
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cell := valid()
			if tc.mutate != nil {
				tc.mutate(cell)
			}
			err := validateCell(tc.day, tc.slot, cell)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCellMatchesPublished(t *testing.T) {
	published := &models.TimetableEntry{SubjectID: 1, ProfessorID: 2, Room: "Salle 101"}

	if !cellMatchesPublished(published, &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 101"}) {
		t.Fatalf("identical cells must match")
	}
	for _, cell := range []*CellInput{
		{SubjectID: 9, ProfessorID: 2, Room: "Salle 101"},
		{SubjectID: 1, ProfessorID: 9, Room: "Salle 101"},
		{SubjectID: 1, ProfessorID: 2, Room: "Salle 999"},
	} {
		if cellMatchesPublished(published, cell) {
			t.Fatalf("changed cell must not match: %+v", cell)
		}
	}
}

func TestEntryFromInput(t *testing.T) {
	t.Run("split fields scrubbed when not split", func(t *testing.T) {
		entry := entryFromInput(1, 2, "monday", "08:00-09:30", &CellInput{
			SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "TD",
			Professor2ID: uintPtr(5), Room2: "Salle 102", Subgroup: "A",
		})
		if entry.Professor2ID != nil || entry.Room2 != "" || entry.Subgroup != "" {
			t.Fatalf("non-split entry carries split leftovers: %+v", entry)
		}
		if entry.IsPublished {
			t.Fatalf("saved rows must start as drafts")
		}
	})

	t.Run("class type defaults to CM", func(t *testing.T) {
		entry := entryFromInput(1, 2, "monday", "08:00-09:30", &CellInput{
			SubjectID: 1, ProfessorID: 2, Room: "Salle 101",
		})
		if entry.ClassType != "CM" {
			t.Fatalf("ClassType = %q, want CM", entry.ClassType)
		}
	})

	t.Run("same_time fields preserved", func(t *testing.T) {
		entry := entryFromInput(1, 2, "monday", "08:00-09:30", &CellInput{
			SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "TP",
			IsSplit: true, SplitType: models.SplitTypeSameTime,
			Professor2ID: uintPtr(5), Subject2ID: uintPtr(7),
			Room2: "Salle 102", Subgroup1: "A", Subgroup2: "B",
		})
		if entry.Professor2ID == nil || *entry.Professor2ID != 5 {
			t.Fatalf("professor2 lost: %+v", entry)
		}
		if entry.Subgroup1 != "A" || entry.Subgroup2 != "B" || entry.Room2 != "Salle 102" {
			t.Fatalf("split detail lost: %+v", entry)
		}
	})
}

func TestDraftForCell(t *testing.T) {
	cell := &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "CM"}
	published := &models.TimetableEntry{
		YearID: 1, GroupID: 2, Day: "monday", TimeSlot: "08:00-09:30",
		SubjectID: 1, ProfessorID: 2, Room: "Salle 101", IsPublished: true,
	}

	t.Run("no published row writes a draft", func(t *testing.T) {
		draft := draftForCell(1, 2, "monday", "08:00-09:30", cell, nil)
		if draft == nil {
			t.Fatal("expected a draft row for a fresh cell")
		}
		if draft.IsPublished {
			t.Fatal("save must produce draft rows, not published ones")
		}
	})

	t.Run("identical to published writes nothing", func(t *testing.T) {
		if draft := draftForCell(1, 2, "monday", "08:00-09:30", cell, published); draft != nil {
			t.Fatalf("unchanged cell should settle on published, got %+v", draft)
		}
	})

	t.Run("changed room replaces the draft", func(t *testing.T) {
		changed := &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 202", ClassType: "CM"}
		draft := draftForCell(1, 2, "monday", "08:00-09:30", changed, published)
		if draft == nil {
			t.Fatal("changed cell must produce a draft")
		}
		if draft.Room != "Salle 202" {
			t.Fatalf("draft room = %q, want the submitted value", draft.Room)
		}
	})
}

// simulateSave applies one cell of a save to an in-memory row set the way
// the transaction does: drop the cell's draft, then write what
// draftForCell decides.
func simulateSave(rows []models.TimetableEntry, yearID, groupID uint, day, slot string, cell *CellInput) []models.TimetableEntry {
	var published *models.TimetableEntry
	kept := rows[:0:0]
	for i := range rows {
		row := rows[i]
		if row.Day == day && row.TimeSlot == slot {
			if row.IsPublished {
				published = &rows[i]
			} else {
				continue
			}
		}
		kept = append(kept, row)
	}
	if draft := draftForCell(yearID, groupID, day, slot, cell, published); draft != nil {
		kept = append(kept, *draft)
	}
	return kept
}

// simulatePromote mirrors promoteBatch: merge draft-over-published, then
// republish the merged set.
func simulatePromote(rows []models.TimetableEntry) []models.TimetableEntry {
	merged := mergePreferDraft(rows)
	out := make([]models.TimetableEntry, 0, len(merged))
	for _, row := range merged {
		row.IsPublished = true
		out = append(out, row)
	}
	return out
}

func TestSaveThenPublishSequencing(t *testing.T) {
	day, slot := "monday", "08:00-09:30"
	publishedRow := models.TimetableEntry{
		YearID: 1, GroupID: 2, Day: day, TimeSlot: slot,
		SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "CM",
		IsPublished: true,
	}
	staleDraft := models.TimetableEntry{
		YearID: 1, GroupID: 2, Day: day, TimeSlot: slot,
		SubjectID: 9, ProfessorID: 9, Room: "Salle 999", ClassType: "CM",
		IsPublished: false,
	}

	t.Run("identical save drops the stale draft", func(t *testing.T) {
		cell := &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 101", ClassType: "CM"}
		rows := simulateSave([]models.TimetableEntry{publishedRow, staleDraft}, 1, 2, day, slot, cell)

		if len(rows) != 1 || !rows[0].IsPublished {
			t.Fatalf("expected only the published row to remain, got %+v", rows)
		}

		// Publishing after the save must surface the saved content, not
		// the dropped older edit.
		promoted := simulatePromote(rows)
		if len(promoted) != 1 || promoted[0].Room != "Salle 101" {
			t.Fatalf("promote resurfaced a stale edit: %+v", promoted)
		}
	})

	t.Run("changed save then publish yields the draft content published", func(t *testing.T) {
		cell := &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 202", ClassType: "CM"}
		rows := simulateSave([]models.TimetableEntry{publishedRow, staleDraft}, 1, 2, day, slot, cell)

		drafts := 0
		for _, row := range rows {
			if !row.IsPublished {
				drafts++
				if row.Room != "Salle 202" {
					t.Fatalf("draft holds %q, want the last-saved room", row.Room)
				}
			}
		}
		if drafts != 1 {
			t.Fatalf("expected exactly one draft after save, got %d", drafts)
		}

		promoted := simulatePromote(rows)
		if len(promoted) != 1 {
			t.Fatalf("expected one row per cell after publish, got %d", len(promoted))
		}
		got := promoted[0]
		if !got.IsPublished || got.Room != "Salle 202" {
			t.Fatalf("published cell = %+v, want the last-saved draft content", got)
		}
		for _, row := range promoted {
			if !row.IsPublished {
				t.Fatalf("draft row survived the publish: %+v", row)
			}
		}
	})

	t.Run("untouched cells survive the publish", func(t *testing.T) {
		other := models.TimetableEntry{
			YearID: 1, GroupID: 2, Day: "tuesday", TimeSlot: slot,
			SubjectID: 3, ProfessorID: 4, Room: "Amphi A", ClassType: "CM",
			IsPublished: true,
		}
		cell := &CellInput{SubjectID: 1, ProfessorID: 2, Room: "Salle 202", ClassType: "CM"}
		rows := simulateSave([]models.TimetableEntry{publishedRow, other}, 1, 2, day, slot, cell)
		promoted := simulatePromote(rows)

		if len(promoted) != 2 {
			t.Fatalf("expected both cells after publish, got %d rows", len(promoted))
		}
		found := false
		for _, row := range promoted {
			if row.Day == "tuesday" && row.Room == "Amphi A" && row.IsPublished {
				found = true
			}
		}
		if !found {
			t.Fatal("publish lost the untouched cell")
		}
	})
}

func TestMergePreferDraft(t *testing.T) {
	published := models.TimetableEntry{
		ID: 1, Day: "monday", TimeSlot: "08:00-09:30",
		SubjectID: 1, IsPublished: true,
	}
	draft := models.TimetableEntry{
		ID: 2, Day: "monday", TimeSlot: "08:00-09:30",
		SubjectID: 9, IsPublished: false,
	}
	otherCell := models.TimetableEntry{
		ID: 3, Day: "tuesday", TimeSlot: "08:00-09:30",
		SubjectID: 1, IsPublished: true,
	}

	t.Run("draft wins regardless of order", func(t *testing.T) {
		for _, rows := range [][]models.TimetableEntry{
			{published, draft, otherCell},
			{draft, published, otherCell},
		} {
			merged := mergePreferDraft(rows)
			if len(merged) != 2 {
				t.Fatalf("expected 2 cells, got %d", len(merged))
			}
			winner := merged[cellKey{Day: "monday", Slot: "08:00-09:30"}]
			if winner.ID != 2 {
				t.Fatalf("draft should win the cell, got row %d", winner.ID)
			}
		}
	})

	t.Run("published survives without a draft", func(t *testing.T) {
		merged := mergePreferDraft([]models.TimetableEntry{published, otherCell})
		if merged[cellKey{Day: "monday", Slot: "08:00-09:30"}].ID != 1 {
			t.Fatalf("published row should hold the cell")
		}
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		if got := mergePreferDraft(nil); len(got) != 0 {
			t.Fatalf("expected empty merge, got %v", got)
		}
	})
}
