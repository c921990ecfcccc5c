package workflow

import (
	"testing"

	"github.com/google/uuid"
)

func breachedEsc(hours int64) Escalation {
	reason := "overdue"
	return Escalation{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		SLA:        SLAInfo{Status: Breached, Reason: &reason, HoursOverdue: &hours},
	}
}

func approachingEsc() Escalation {
	reason := "due soon"
	return Escalation{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		SLA:        SLAInfo{Status: Approaching, Reason: &reason},
	}
}

func TestRank_BreachedBeforeApproaching(t *testing.T) {
	items := []Escalation{approachingEsc(), breachedEsc(0), approachingEsc(), breachedEsc(5)}
	Rank(items)

	seenApproaching := false
	for _, e := range items {
		if e.SLA.Status == Approaching {
			seenApproaching = true
		}
		if e.SLA.Status == Breached && seenApproaching {
			t.Fatal("an APPROACHING entry precedes a BREACHED entry")
		}
	}
}

func TestRank_MostOverdueFirst(t *testing.T) {
	items := []Escalation{breachedEsc(2), breachedEsc(48), breachedEsc(0), breachedEsc(7)}
	Rank(items)

	prev := int64(1 << 40)
	for _, e := range items {
		h := overdueHours(e.SLA)
		if h > prev {
			t.Fatalf("hours overdue must be non-increasing, got %d after %d", h, prev)
		}
		prev = h
	}
}

func TestRank_NilHoursTreatedAsZero(t *testing.T) {
	noHours := breachedEsc(0)
	noHours.SLA.HoursOverdue = nil
	items := []Escalation{noHours, breachedEsc(3)}
	Rank(items)

	if items[0].SLA.HoursOverdue == nil {
		t.Error("a breach with 3 hours overdue should rank above one with nil hours")
	}
}

func TestRank_TiesBreakOnResourceID(t *testing.T) {
	a, b := breachedEsc(4), breachedEsc(4)
	first := []Escalation{a, b}
	second := []Escalation{b, a}
	Rank(first)
	Rank(second)

	if first[0].ResourceID != second[0].ResourceID {
		t.Error("equal-severity ordering must not depend on input order")
	}
}
