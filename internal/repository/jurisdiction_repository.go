package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/pay-equity-api/internal/models"
)

// JurisdictionRepository reads jurisdictions and their contacts.
type JurisdictionRepository struct {
	db *sqlx.DB
}

// NewJurisdictionRepository constructs the repository.
func NewJurisdictionRepository(db *sqlx.DB) *JurisdictionRepository {
	return &JurisdictionRepository{db: db}
}

// GetByID returns a jurisdiction or sql.ErrNoRows.
func (r *JurisdictionRepository) GetByID(ctx context.Context, id string) (*models.Jurisdiction, error) {
	const query = `SELECT id, jurisdiction_id, name FROM jurisdictions WHERE id = $1`
	var jurisdiction models.Jurisdiction
	if err := r.db.GetContext(ctx, &jurisdiction, query, id); err != nil {
		return nil, err
	}
	return &jurisdiction, nil
}

// ListContacts returns the notification recipients of a jurisdiction.
func (r *JurisdictionRepository) ListContacts(ctx context.Context, jurisdictionID string) ([]models.Contact, error) {
	const query = `SELECT id, jurisdiction_id, name, email, role FROM contacts WHERE jurisdiction_id = $1 ORDER BY name ASC`
	var contacts []models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, jurisdictionID); err != nil {
		return nil, fmt.Errorf("list jurisdiction contacts: %w", err)
	}
	return contacts, nil
}
