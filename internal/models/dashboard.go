package models

// StatusCount is one row of the per-status log breakdown.
type StatusCount struct {
	Status ApprovalStatus `db:"status" json:"status"`
	Count  int            `db:"count" json:"count"`
}

// DashboardOverview totals behavior logs per lifecycle state.
type DashboardOverview struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// TopBehavior is a catalog entry ranked by how often approved logs cite it.
type TopBehavior struct {
	Name     string           `db:"name" json:"name"`
	Category BehaviorCategory `db:"category" json:"category"`
	Score    int              `db:"score" json:"score"`
	Count    int              `db:"count" json:"count"`
}

// DashboardStats is the admin dashboard payload.
type DashboardStats struct {
	Overview     DashboardOverview `json:"overview"`
	TopBehaviors []TopBehavior     `json:"top_behaviors"`
}
