package core

import "testing"

func rosterFixture() []Member {
	return []Member{
		{ID: "m1", FullName: "Zico"},
		{ID: "m2", FullName: "Ana"},
		{ID: "m3", FullName: "Édson"},
		{ID: "m4", FullName: "Bruno"},
	}
}

func TestPartitionCoversWholeRoster(t *testing.T) {
	g := Game{ID: "g1", Attendance: map[string]RSVPStatus{
		"m1": StatusConfirmed,
		"m2": StatusDeclined,
	}}
	roster := rosterFixture()

	got := PartitionAttendees(g, roster)

	total := len(got.Confirmed) + len(got.Declined) + len(got.Pending)
	if total != len(roster) {
		t.Fatalf("partition sizes sum to %d, want %d", total, len(roster))
	}
	seen := map[string]int{}
	for _, group := range [][]Member{got.Confirmed, got.Declined, got.Pending} {
		for _, m := range group {
			seen[m.ID]++
		}
	}
	for _, m := range roster {
		if seen[m.ID] != 1 {
			t.Fatalf("member %s appears %d times, want exactly once", m.ID, seen[m.ID])
		}
	}
}

func TestPartitionDefaultsToPending(t *testing.T) {
	g := Game{ID: "g1", Attendance: map[string]RSVPStatus{}}

	got := PartitionAttendees(g, rosterFixture())

	if len(got.Confirmed) != 0 || len(got.Declined) != 0 {
		t.Fatalf("expected everyone pending, got %d confirmed, %d declined", len(got.Confirmed), len(got.Declined))
	}
	if len(got.Pending) != 4 {
		t.Fatalf("pending = %d, want 4", len(got.Pending))
	}
}

func TestPartitionSortsByNameWithLocale(t *testing.T) {
	g := Game{ID: "g1"}

	got := PartitionAttendees(g, rosterFixture())

	// pt-BR collation places Édson with the E's, not after Z.
	want := []string{"Ana", "Bruno", "Édson", "Zico"}
	if len(got.Pending) != len(want) {
		t.Fatalf("pending = %d members, want %d", len(got.Pending), len(want))
	}
	for i, name := range want {
		if got.Pending[i].FullName != name {
			t.Fatalf("pending[%d] = %s, want %s", i, got.Pending[i].FullName, name)
		}
	}
}

func TestStatusForUnknownMemberIsPending(t *testing.T) {
	g := Game{Attendance: map[string]RSVPStatus{"m1": StatusConfirmed}}
	if got := g.StatusFor("nobody"); got != StatusPending {
		t.Fatalf("StatusFor = %s, want pending", got)
	}
	if got := g.StatusFor("m1"); got != StatusConfirmed {
		t.Fatalf("StatusFor = %s, want confirmed", got)
	}
}

func TestValidRSVP(t *testing.T) {
	if !ValidRSVP(StatusConfirmed) || !ValidRSVP(StatusDeclined) {
		t.Fatal("confirmed and declined must be settable")
	}
	if ValidRSVP(StatusPending) || ValidRSVP("maybe") {
		t.Fatal("pending and unknown statuses must not be settable")
	}
}
