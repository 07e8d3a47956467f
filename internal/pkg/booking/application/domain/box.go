package booking

// Box is the read/update collaborator whose availability flag the workflow
// flips. Listings management lives elsewhere; this view is what booking needs.
type Box struct {
	ID           string  `db:"id"`
	StableID     string  `db:"stable_id"`
	Name         string  `db:"name"`
	MonthlyPrice float64 `db:"monthly_price"`
	IsAvailable  bool    `db:"is_available"`
}
