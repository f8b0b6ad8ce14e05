package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfranzen/jobmate/internal/database"
	"github.com/cfranzen/jobmate/internal/database/testutil"
	"github.com/cfranzen/jobmate/internal/models"
)

func TestNextInvoiceNumberCreatesCounter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	number, err := database.NextInvoiceNumber(ctx, db, "user-1")
	require.NoError(t, err)
	require.Equal(t, "INV-0001", number)

	var row models.InvoiceNumbering
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&row).Error)
	require.Equal(t, 2, row.NextNumber)
}

func TestNextInvoiceNumberIsMonotonic(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	first, err := database.NextInvoiceNumber(ctx, db, "user-1")
	require.NoError(t, err)
	second, err := database.NextInvoiceNumber(ctx, db, "user-1")
	require.NoError(t, err)

	require.Equal(t, "INV-0001", first)
	require.Equal(t, "INV-0002", second)
	require.Greater(t, second, first)
}

func TestNextInvoiceNumberRespectsCustomPrefix(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.InvoiceNumbering{
		UserID:     "user-2",
		Prefix:     "ACME-",
		NextNumber: 41,
	}).Error)

	number, err := database.NextInvoiceNumber(ctx, db, "user-2")
	require.NoError(t, err)
	require.Equal(t, "ACME-0041", number)
}

func TestNextInvoiceNumberPerUserCounters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	ctx := context.Background()

	a, err := database.NextInvoiceNumber(ctx, db, "user-a")
	require.NoError(t, err)
	b, err := database.NextInvoiceNumber(ctx, db, "user-b")
	require.NoError(t, err)

	require.Equal(t, "INV-0001", a)
	require.Equal(t, "INV-0001", b)
}

func TestNextInvoiceNumberValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	_, err := database.NextInvoiceNumber(context.Background(), db, "")
	require.Error(t, err)

	_, err = database.NextInvoiceNumber(context.Background(), nil, "user-1")
	require.Error(t, err)
}
