package dashboard

// PharmacyStats is the operational snapshot shown to pharmacy staff.
type PharmacyStats struct {
	OrdersByStatus       map[string]int `json:"orders_by_status"`
	RevenueCompleted     float64        `json:"revenue_completed"`
	LowStockCount        int            `json:"low_stock_count"`
	ExpiringSoonCount    int            `json:"expiring_soon_count"`
	PendingPrescriptions int            `json:"pending_prescriptions"`
}

// CategoryCount is units dispensed per medication category.
type CategoryCount struct {
	Category string `json:"category"`
	Units    int    `json:"units"`
}

// GovernmentStats is the population-level view for health authorities. It
// carries aggregates only, never per-patient rows.
type GovernmentStats struct {
	Pharmacies     int             `json:"pharmacies"`
	Medications    int             `json:"medications"`
	Patients       int             `json:"patients"`
	Orders         int             `json:"orders"`
	UnitsDispensed int             `json:"units_dispensed"`
	TopCategories  []CategoryCount `json:"top_categories"`
}

// InsuranceStats summarizes the claims pipeline for insurers.
type InsuranceStats struct {
	ClaimsByStatus map[string]int `json:"claims_by_status"`
	TotalClaimed   float64        `json:"total_claimed"`
	TotalApproved  float64        `json:"total_approved"`
}
