package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsecurex/gateway/internal/models"
)

func TestOpen(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	assert.NotNil(t, db)

	require.NoError(t, db.AutoMigrate(
		&models.Incident{}, &models.RequestLog{}, &models.TTP{}, &models.GatewayAlert{},
	))
}

func TestConnect(t *testing.T) {
	db, err := Connect(":memory:")
	require.NoError(t, err)
	assert.NotNil(t, db)
}
