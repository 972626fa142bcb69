package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medsecurex/gateway/internal/mitre"
	"github.com/medsecurex/gateway/internal/models"
)

func setupStatsTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:stats_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Incident{}, &models.RequestLog{}, &models.TTP{}, &models.GatewayAlert{},
	))
	return db
}

func addOutcome(t *testing.T, db *gorm.DB, ts time.Time, status, ip string) {
	require.NoError(t, db.Create(&models.RequestLog{Timestamp: ts, Status: status, ClientIP: ip}).Error)
}

func addIncident(t *testing.T, db *gorm.DB, ts time.Time, rule, payload, ip string) {
	require.NoError(t, db.Create(&models.Incident{
		Timestamp: ts, RuleTriggered: rule, Payload: payload, IP: ip, Status: models.IncidentOpen,
	}).Error)
}

func TestStats_APIUsageBuckets(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	base := time.Now().UTC().Truncate(5 * time.Minute).Add(-30 * time.Minute)

	// Five rows landing in the same bucket.
	addOutcome(t, db, base.Add(1*time.Minute), models.RequestSuccess, "1.1.1.1")
	addOutcome(t, db, base.Add(2*time.Minute), models.RequestSuccess, "1.1.1.1")
	addOutcome(t, db, base.Add(3*time.Minute), models.RequestSuccess, "1.1.1.2")
	addOutcome(t, db, base.Add(90*time.Second), models.RequestError, "1.1.1.3")
	addOutcome(t, db, base.Add(4*time.Minute), models.RequestError, "1.1.1.3")

	// A later bucket.
	addOutcome(t, db, base.Add(10*time.Minute), models.RequestSuccess, "1.1.1.4")

	// Outside the one-hour window, never reported.
	addOutcome(t, db, base.Add(-2*time.Hour), models.RequestSuccess, "1.1.1.5")

	usage, err := stats.APIUsage()
	require.NoError(t, err)
	require.Len(t, usage, 2)

	var first *UsagePoint
	for i := range usage {
		if usage[i].Time == base.Format("15:04") {
			first = &usage[i]
		}
	}
	require.NotNil(t, first)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, 3, first.Success)
	assert.Equal(t, 2, first.Errors)

	for _, point := range usage {
		// Buckets balance and align to 5-minute marks.
		assert.Equal(t, point.Total, point.Success+point.Errors)
		parts := strings.Split(point.Time, ":")
		require.Len(t, parts, 2)
		var minute int
		_, err := fmt.Sscanf(parts[1], "%d", &minute)
		require.NoError(t, err)
		assert.Zero(t, minute%5, "bucket %s not aligned", point.Time)
	}
}

func TestStats_APIUsageEmpty(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	usage, err := stats.APIUsage()
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestStats_BlockedSeries(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	base := time.Now().Local().Truncate(5 * time.Minute).Add(-20 * time.Minute)
	addIncident(t, db, base.Add(time.Minute), "SQLInjection", "p", "1.1.1.1")
	addIncident(t, db, base.Add(2*time.Minute), "XSS", "p", "1.1.1.1")
	addIncident(t, db, base.Add(10*time.Minute), "SQLInjection", "p", "1.1.1.2")

	series, err := stats.BlockedSeries()
	require.NoError(t, err)
	require.Len(t, series, 2)

	counts := map[string]int{}
	for _, point := range series {
		counts[point.Time] = point.Blocked
	}
	assert.Equal(t, 2, counts[base.Format("15:04")])
	assert.Equal(t, 1, counts[base.Add(10*time.Minute).Format("15:04")])
}

func TestStats_TTPRollup(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	now := time.Now().UTC()
	longPayload := strings.Repeat("A", 400)

	addIncident(t, db, now.Add(-3*time.Minute), "SQLInjection", "old payload", "9.9.9.1")
	addIncident(t, db, now.Add(-2*time.Minute), "SQLInjection", "mid payload", "9.9.9.2")
	addIncident(t, db, now.Add(-1*time.Minute), "SQLInjection", longPayload, "9.9.9.3")
	addIncident(t, db, now.Add(-30*time.Second), "CustomRule", "odd payload", "9.9.9.4")

	rollup, err := stats.TTPRollup(10)
	require.NoError(t, err)
	require.Len(t, rollup, 2)

	top := rollup[0]
	assert.Equal(t, "SQLInjection", top.Name)
	assert.EqualValues(t, 3, top.Count)
	assert.Equal(t, "T1190", top.ID)
	assert.Equal(t, "Execution", top.Tactic)
	// The newest incident supplies the sample, truncated with a marker.
	assert.Len(t, top.Example, 253)
	assert.True(t, strings.HasSuffix(top.Example, "..."))
	assert.Contains(t, top.Description, "9.9.9.3")

	other := rollup[1]
	assert.Equal(t, "CustomRule", other.Name)
	assert.Equal(t, mitre.UnknownID, other.ID)
	assert.Equal(t, mitre.UnmappedTactic, other.Tactic)
	assert.EqualValues(t, 1, other.Count)
}

func TestStats_TTPRollupHonorsLimit(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	now := time.Now().UTC()
	addIncident(t, db, now, "RuleA", "p", "1.1.1.1")
	addIncident(t, db, now, "RuleB", "p", "1.1.1.1")
	addIncident(t, db, now, "RuleC", "p", "1.1.1.1")

	rollup, err := stats.TTPRollup(2)
	require.NoError(t, err)
	assert.Len(t, rollup, 2)
}

func TestStats_RecentIncidentsNewestFirst(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	now := time.Now().UTC()
	addIncident(t, db, now.Add(-2*time.Minute), "Old", "p", "1.1.1.1")
	addIncident(t, db, now.Add(-1*time.Minute), "New", "p", "1.1.1.1")

	incidents, err := stats.RecentIncidents()
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, "New", incidents[0].RuleTriggered)
}

func TestStats_RecentAlerts(t *testing.T) {
	db := setupStatsTestDB(t)
	stats := NewStats(db)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.GatewayAlert{
			Timestamp: now.Add(time.Duration(-i) * time.Minute),
			Source:    "192.168.0.1",
			Signature: fmt.Sprintf("SURICATA alert %d", i),
			Category:  "Suricata Alert",
			Severity:  2,
		}).Error)
	}

	alerts, err := stats.RecentAlerts(3)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, "SURICATA alert 0", alerts[0].Signature)
}
