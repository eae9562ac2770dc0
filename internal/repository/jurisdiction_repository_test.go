package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestJurisdictionRepositoryGetAndContacts(t *testing.T) {
	db, mock, cleanup := newReportRepoMock(t)
	defer cleanup()
	repo := NewJurisdictionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, jurisdiction_id, name FROM jurisdictions WHERE id = $1")).
		WithArgs("jur-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "jurisdiction_id", "name"}).AddRow("jur-1", "0421", "City of Example"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts WHERE jurisdiction_id = $1")).
		WithArgs("jur-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "jurisdiction_id", "name", "email", "role"}).
			AddRow("c-1", "jur-1", "Pat Doe", "pat@example.gov", "clerk"))

	jurisdiction, err := repo.GetByID(context.Background(), "jur-1")
	require.NoError(t, err)
	require.Equal(t, "City of Example", jurisdiction.Name)

	contacts, err := repo.ListContacts(context.Background(), "jur-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.Equal(t, "pat@example.gov", contacts[0].Email)
	require.NoError(t, mock.ExpectationsWereMet())
}
