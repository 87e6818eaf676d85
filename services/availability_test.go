package services

import (
	"testing"

	"unitimetable/models"
)

func uintPtr(v uint) *uint { return &v }

func TestProbeRooms(t *testing.T) {
	tests := []struct {
		name  string
		probe RoomProbe
		want  []string
	}{
		{
			name:  "simple probe",
			probe: RoomProbe{Room: "Salle 101"},
			want:  []string{"Salle 101"},
		},
		{
			name: "same_time probe occupies both rooms",
			probe: RoomProbe{
				Room: "Salle 101", IsSplit: true,
				SplitType: models.SplitTypeSameTime, Room2: "Salle 102",
			},
			want: []string{"Salle 101", "Salle 102"},
		},
		{
			name: "single_group probe occupies one room",
			probe: RoomProbe{
				Room: "Salle 101", IsSplit: true,
				SplitType: models.SplitTypeSingleGroup, Subgroup: "A",
			},
			want: []string{"Salle 101"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := probeRooms(tc.probe)
			if len(got) != len(tc.want) {
				t.Fatalf("probeRooms = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("probeRooms = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestRoomProbeConflicts(t *testing.T) {
	sameTimeEntry := models.TimetableEntry{
		Room: "Salle 101", IsSplit: true, SplitType: models.SplitTypeSameTime,
		Professor2ID: uintPtr(9), Room2: "Salle 102",
	}
	singleGroupEntry := models.TimetableEntry{
		Room: "Salle 101", IsSplit: true, SplitType: models.SplitTypeSingleGroup, Subgroup: "A",
	}

	tests := []struct {
		name  string
		probe RoomProbe
		entry models.TimetableEntry
		want  bool
	}{
		{
			name:  "different rooms do not conflict",
			probe: RoomProbe{Room: "Salle 103"},
			entry: sameTimeEntry,
			want:  false,
		},
		{
			name:  "probe hits the primary room",
			probe: RoomProbe{Room: "Salle 101"},
			entry: sameTimeEntry,
			want:  true,
		},
		{
			name:  "probe hits the second room of a same_time entry",
			probe: RoomProbe{Room: "Salle 102"},
			entry: sameTimeEntry,
			want:  true,
		},
		{
			name: "probe room2 hits an existing booking",
			probe: RoomProbe{
				Room: "Salle 200", IsSplit: true,
				SplitType: models.SplitTypeSameTime, Room2: "Salle 101",
			},
			entry: singleGroupEntry,
			want:  true,
		},
		{
			// Subgroups do not share a room: identical rooms conflict even
			// when both sides are split into different subgroup labels.
			name: "single_group same room different subgroup still conflicts",
			probe: RoomProbe{
				Room: "Salle 101", IsSplit: true,
				SplitType: models.SplitTypeSingleGroup, Subgroup: "B",
			},
			entry: singleGroupEntry,
			want:  true,
		},
		{
			name: "single_group different rooms do not conflict",
			probe: RoomProbe{
				Room: "Salle 104", IsSplit: true,
				SplitType: models.SplitTypeSingleGroup, Subgroup: "B",
			},
			entry: singleGroupEntry,
			want:  false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := roomProbeConflicts(tc.probe, &tc.entry); got != tc.want {
				t.Fatalf("roomProbeConflicts = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProfessorConflicts(t *testing.T) {
	sameTimeEntry := models.TimetableEntry{
		ProfessorID: 3, IsSplit: true, SplitType: models.SplitTypeSameTime,
		Professor2ID: uintPtr(4),
	}

	if !professorConflicts(3, &sameTimeEntry) {
		t.Fatalf("primary professor overlap must conflict")
	}
	if !professorConflicts(4, &sameTimeEntry) {
		t.Fatalf("second professor overlap must conflict")
	}
	if professorConflicts(5, &sameTimeEntry) {
		t.Fatalf("uninvolved professor must not conflict")
	}

	plain := models.TimetableEntry{ProfessorID: 3}
	if !professorConflicts(3, &plain) || professorConflicts(4, &plain) {
		t.Fatalf("plain entry professor matching wrong")
	}
}

func TestIsSameCell(t *testing.T) {
	entry := models.TimetableEntry{YearID: 1, GroupID: 2}

	if !isSameCell(uintPtr(1), uintPtr(2), &entry) {
		t.Fatalf("matching year/group should be the same cell")
	}
	if isSameCell(uintPtr(1), uintPtr(3), &entry) {
		t.Fatalf("different group is a different cell")
	}
	if isSameCell(nil, nil, &entry) {
		t.Fatalf("probe without cell context never matches")
	}
	if isSameCell(uintPtr(1), nil, &entry) {
		t.Fatalf("partial cell context never matches")
	}
}

func TestConflictInfoFromEntry(t *testing.T) {
	entry := models.TimetableEntry{
		Day: "monday", TimeSlot: "08:00-09:30",
		Room: "Salle 101", IsSplit: true, SplitType: models.SplitTypeSameTime,
		Professor2ID: uintPtr(4), Room2: "Salle 102",
		Subgroup1: "A", Subgroup2: "B",
		Year:      models.Year{Name: "L3"},
		Group:     models.Group{Name: "G1"},
		Subject:   models.Subject{Name: "Réseaux"},
		Professor: models.User{Username: "m.durand"},
	}

	info := conflictInfoFromEntry(&entry, true)
	if info.Year != "L3" || info.Group != "G1" || info.Time != "08:00-09:30" {
		t.Fatalf("cell identity wrong: %+v", info)
	}
	if !info.IsSplit || info.SplitType != models.SplitTypeSameTime {
		t.Fatalf("split echo wrong: %+v", info)
	}
	if info.Subgroup1 != "A" || info.Subgroup2 != "B" || info.Room2 != "Salle 102" {
		t.Fatalf("split detail wrong: %+v", info)
	}
	if !info.IsProfessor2Conflict {
		t.Fatalf("professor2 conflicts must be tagged")
	}

	single := models.TimetableEntry{
		IsSplit: true, SplitType: models.SplitTypeSingleGroup, Subgroup: "B",
	}
	singleInfo := conflictInfoFromEntry(&single, false)
	if singleInfo.Subgroup != "B" || singleInfo.IsProfessor2Conflict {
		t.Fatalf("single_group echo wrong: %+v", singleInfo)
	}
}

func TestValidateSlot(t *testing.T) {
	if err := validateSlot("monday", "08:00-09:30"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, tc := range []struct{ day, slot string }{
		{"", "08:00-09:30"},
		{"monday", ""},
		{"funday", "08:00-09:30"},
		{"monday", "07:00-08:30"},
	} {
		if err := validateSlot(tc.day, tc.slot); err == nil {
			t.Fatalf("expected error for day=%q slot=%q", tc.day, tc.slot)
		}
	}
}
