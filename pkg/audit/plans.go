package audit

// Plan is a subscription tier.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanAgency Plan = "agency"
)

// Limits describes what a plan allows. A negative MaxAuditsPerMonth means
// unlimited.
type Limits struct {
	MaxSites          int  `json:"max_sites"`
	MaxAuditsPerMonth int  `json:"max_audits_per_month"`
	Alerts            bool `json:"alerts"`
	WhiteLabel        bool `json:"white_label"`
}

var planLimits = map[Plan]Limits{
	PlanFree:   {MaxSites: 1, MaxAuditsPerMonth: 3},
	PlanPro:    {MaxSites: 5, MaxAuditsPerMonth: -1, Alerts: true},
	PlanAgency: {MaxSites: 20, MaxAuditsPerMonth: -1, Alerts: true, WhiteLabel: true},
}

// PlanLimits returns the limits for p. Unknown plans get the free limits.
func PlanLimits(p Plan) Limits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// AllowsAudit reports whether another audit fits in the monthly quota given
// the number already run this month.
func (l Limits) AllowsAudit(usedThisMonth int) bool {
	return l.MaxAuditsPerMonth < 0 || usedThisMonth < l.MaxAuditsPerMonth
}
