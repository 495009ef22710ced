package core

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AttendeeGroups partitions a roster by RSVP status for one game. The three
// slices are disjoint and together cover the whole roster.
type AttendeeGroups struct {
	Confirmed []Member
	Declined  []Member
	Pending   []Member
}

// PartitionAttendees classifies every roster member by their status on the
// game's attendance map, defaulting to pending when no entry exists. Each
// group is sorted by display name using pt-BR collation.
func PartitionAttendees(g Game, roster []Member) AttendeeGroups {
	var out AttendeeGroups
	for _, m := range roster {
		switch g.StatusFor(m.ID) {
		case StatusConfirmed:
			out.Confirmed = append(out.Confirmed, m)
		case StatusDeclined:
			out.Declined = append(out.Declined, m)
		default:
			out.Pending = append(out.Pending, m)
		}
	}
	c := collate.New(language.BrazilianPortuguese)
	sortByName(c, out.Confirmed)
	sortByName(c, out.Declined)
	sortByName(c, out.Pending)
	return out
}

func sortByName(c *collate.Collator, members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		return c.CompareString(members[i].FullName, members[j].FullName) < 0
	})
}
