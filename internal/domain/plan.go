package domain

// Plan is a purchasable credit package.
type Plan struct {
	ID            string
	Name          string
	Credits       int
	PriceUSD      int
	PricePerVideo float64
}

var plans = []Plan{
	{ID: "free", Name: "Free", Credits: 3, PriceUSD: 0, PricePerVideo: 0},
	{ID: "starter", Name: "Starter", Credits: 50, PriceUSD: 29, PricePerVideo: 0.58},
	{ID: "pro", Name: "Pro", Credits: 250, PriceUSD: 99, PricePerVideo: 0.40},
	{ID: "agency", Name: "Agency", Credits: 1000, PriceUSD: 299, PricePerVideo: 0.30},
}

// Plans returns all credit packages in display order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan by its identifier.
func PlanByID(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
