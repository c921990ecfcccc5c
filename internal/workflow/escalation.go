package workflow

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Escalation is one surfaced entry in the dashboard escalation queue. It is
// assembled per request from the live entity population and never stored.
type Escalation struct {
	ID                 uuid.UUID `json:"id"`
	Type               string    `json:"type"`
	ResourceID         uuid.UUID `json:"resource_id"`
	SLA                SLAInfo   `json:"sla"`
	ResponsibleParty   string    `json:"responsible_party"`
	ResponsibleContact string    `json:"responsible_contact,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Rank sorts escalations in place by severity: BREACHED before APPROACHING,
// then most hours overdue first (nil counts as 0). The sort is stable and
// remaining ties break on resource ID so output order is deterministic.
func Rank(items []Escalation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SLA.Status != b.SLA.Status {
			return a.SLA.Status == Breached
		}
		ah, bh := overdueHours(a.SLA), overdueHours(b.SLA)
		if ah != bh {
			return ah > bh
		}
		return a.ResourceID.String() < b.ResourceID.String()
	})
}

func overdueHours(info SLAInfo) int64 {
	if info.HoursOverdue == nil {
		return 0
	}
	return *info.HoursOverdue
}
