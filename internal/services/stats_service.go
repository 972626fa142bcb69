package services

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/medsecurex/gateway/internal/mitre"
	"github.com/medsecurex/gateway/internal/models"
	"github.com/medsecurex/gateway/internal/util"
)

const (
	bucketSize      = 5 * time.Minute
	recentRowLimit  = 500
	sampleMaxLength = 250
)

// Stats is the read side of the verdict store: it turns persisted incidents
// and request outcomes into the time-bucketed series and technique roll-ups
// the dashboard consumes. It never writes.
type Stats struct {
	db *gorm.DB
}

// NewStats returns a Stats reader using the provided DB.
func NewStats(db *gorm.DB) *Stats {
	return &Stats{db: db}
}

// UsagePoint is one 5-minute bucket of request outcomes.
type UsagePoint struct {
	Time    string `json:"time"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Errors  int    `json:"errors"`
}

// BlockedPoint is one 5-minute bucket of blocked requests.
type BlockedPoint struct {
	Time    string `json:"time"`
	Blocked int    `json:"blocked"`
}

// TTPSummary is one row of the technique roll-up.
type TTPSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tactic      string `json:"tactic"`
	Count       int64  `json:"count"`
	LastSeen    string `json:"lastSeen"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// APIUsage groups the last hour of request outcomes into 5-minute buckets,
// ordered by time. Rows may have been persisted out of arrival order, so
// bucketing goes by the stored timestamp. success + errors == total holds
// for every bucket.
func (s *Stats) APIUsage() ([]UsagePoint, error) {
	since := time.Now().UTC().Add(-1 * time.Hour)
	var rows []models.RequestLog
	if err := s.db.Where("timestamp > ?", since).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("fetch request outcomes: %w", err)
	}

	buckets := map[string]*UsagePoint{}
	for _, row := range rows {
		key := bucketKey(row.Timestamp)
		point, ok := buckets[key]
		if !ok {
			point = &UsagePoint{Time: key}
			buckets[key] = point
		}
		point.Total++
		switch row.Status {
		case models.RequestSuccess:
			point.Success++
		case models.RequestError:
			point.Errors++
		}
	}

	usage := make([]UsagePoint, 0, len(buckets))
	for _, point := range buckets {
		usage = append(usage, *point)
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].Time < usage[j].Time })
	return usage, nil
}

// BlockedSeries groups the most recent incidents into 5-minute buckets by
// local time of day.
func (s *Stats) BlockedSeries() ([]BlockedPoint, error) {
	var incidents []models.Incident
	if err := s.db.Order("timestamp desc").Limit(recentRowLimit).Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}

	buckets := map[string]int{}
	for _, inc := range incidents {
		buckets[bucketKey(inc.Timestamp.Local())]++
	}

	series := make([]BlockedPoint, 0, len(buckets))
	for key, count := range buckets {
		series = append(series, BlockedPoint{Time: key, Blocked: count})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Time < series[j].Time })
	return series, nil
}

// TTPRollup groups incidents by triggering rule, attaching the technique
// id/tactic from the static mapping table and the most recent payload/source
// as a sample. Sorted by count descending, capped at limit.
func (s *Stats) TTPRollup(limit int) ([]TTPSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	var incidents []models.Incident
	if err := s.db.Where("rule_triggered <> ''").
		Order("timestamp desc").Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}

	// Rows arrive newest first, so the first row seen per rule supplies the
	// sample payload, source and last-seen timestamp.
	byRule := map[string]*TTPSummary{}
	order := []string{}
	for _, inc := range incidents {
		summary, ok := byRule[inc.RuleTriggered]
		if !ok {
			technique := mitre.DashboardLookup(inc.RuleTriggered)
			example := util.Truncate(inc.Payload, sampleMaxLength)
			if example == "" {
				example = "N/A"
			}
			summary = &TTPSummary{
				ID:          technique.ID,
				Name:        inc.RuleTriggered,
				Tactic:      technique.Tactic,
				LastSeen:    inc.Timestamp.Format(time.RFC3339),
				Description: fmt.Sprintf("Latest detection of %s from %s", inc.RuleTriggered, inc.IP),
				Example:     example,
			}
			byRule[inc.RuleTriggered] = summary
			order = append(order, inc.RuleTriggered)
		}
		summary.Count++
	}

	summaries := make([]TTPSummary, 0, len(order))
	for _, rule := range order {
		summaries = append(summaries, *byRule[rule])
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Count > summaries[j].Count })
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// RecentIncidents returns the newest incidents, newest first, capped at 500.
func (s *Stats) RecentIncidents() ([]models.Incident, error) {
	var incidents []models.Incident
	if err := s.db.Order("timestamp desc").Limit(recentRowLimit).Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}
	return incidents, nil
}

// RecentAlerts returns the newest external alerts, newest first.
func (s *Stats) RecentAlerts(limit int) ([]models.GatewayAlert, error) {
	if limit <= 0 || limit > recentRowLimit {
		limit = 100
	}
	var alerts []models.GatewayAlert
	if err := s.db.Order("timestamp desc").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("fetch alerts: %w", err)
	}
	return alerts, nil
}

// bucketKey floors a timestamp to its 5-minute mark and renders it as HH:MM.
func bucketKey(t time.Time) string {
	return t.Truncate(bucketSize).Format("15:04")
}
