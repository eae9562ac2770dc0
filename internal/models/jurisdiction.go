package models

// Jurisdiction is the government body a report belongs to.
type Jurisdiction struct {
	ID             string `db:"id" json:"id"`
	JurisdictionID string `db:"jurisdiction_id" json:"jurisdictionId"`
	Name           string `db:"name" json:"name"`
}

// Contact receives notifications for a jurisdiction.
type Contact struct {
	ID             string `db:"id" json:"id"`
	JurisdictionID string `db:"jurisdiction_id" json:"jurisdictionId"`
	Name           string `db:"name" json:"name"`
	Email          string `db:"email" json:"email"`
	Role           string `db:"role" json:"role"`
}
