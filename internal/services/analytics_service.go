// Package services – AnalyticsService
//
// This file implements the read-only aggregate views shown on the
// dashboard: a user's overall donation and request counts, their monthly
// donation trend for the current year, and an "impact" summary relating
// their activity to the platform totals. Everything is computed with plain
// aggregate queries at read time; nothing is precomputed or cached.
package services

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/repo"
)

// StatsRepo defines the aggregate queries required by AnalyticsService.
type StatsRepo interface {
	CountUsers(ctx context.Context, db *gorm.DB) (int64, error)
	CountDonations(ctx context.Context, db *gorm.DB, userID, kind string, activeAfter *time.Time) (int64, error)
	CountDonationItems(ctx context.Context, db *gorm.DB, userID, kind string) (int64, error)
	CountRequests(ctx context.Context, db *gorm.DB, userID, kind, status string) (int64, error)
	MonthlyDonationStats(ctx context.Context, db *gorm.DB, userID, kind string, year int) ([]repo.MonthlyDonationStat, error)
}

// AnalyticsService computes dashboard aggregates.
type AnalyticsService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo provides the aggregate queries.
	Repo StatsRepo

	// Now is the clock; tests may override it.
	Now func() time.Time
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(db *gorm.DB, r StatsRepo) *AnalyticsService {
	return &AnalyticsService{DB: db, Repo: r, Now: time.Now}
}

// KindBreakdown splits a count between the two donation kinds.
type KindBreakdown struct {
	Food    int64 `json:"food"`
	NonFood int64 `json:"nonfood"`
}

// OverallStats is the response of the overall analytics view.
type OverallStats struct {
	Donations        KindBreakdown `json:"donations"`
	ActiveDonations  KindBreakdown `json:"active_donations"`
	Items            KindBreakdown `json:"items"`
	RequestsMade     int64         `json:"requests_made"`
	RequestsAccepted int64         `json:"requests_accepted"`
	CommunityUsers   int64         `json:"community_users"`
	CommunityTotal   int64         `json:"community_donations"`
}

// Overall returns the user's counts next to the community totals.
func (s *AnalyticsService) Overall(ctx context.Context, userID string) (*OverallStats, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "Overall",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.Now().UTC()
	out := &OverallStats{}

	var err error
	if out.Donations.Food, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindFood, nil); err != nil {
		return nil, err
	}
	if out.Donations.NonFood, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindNonFood, nil); err != nil {
		return nil, err
	}
	if out.ActiveDonations.Food, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindFood, &now); err != nil {
		return nil, err
	}
	if out.ActiveDonations.NonFood, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindNonFood, &now); err != nil {
		return nil, err
	}
	if out.Items.Food, err = s.Repo.CountDonationItems(ctx, s.DB, userID, domain.KindFood); err != nil {
		return nil, err
	}
	if out.Items.NonFood, err = s.Repo.CountDonationItems(ctx, s.DB, userID, domain.KindNonFood); err != nil {
		return nil, err
	}
	if out.RequestsMade, err = s.Repo.CountRequests(ctx, s.DB, userID, "", ""); err != nil {
		return nil, err
	}
	if out.RequestsAccepted, err = s.Repo.CountRequests(ctx, s.DB, userID, "", domain.RequestAccepted); err != nil {
		return nil, err
	}
	if out.CommunityUsers, err = s.Repo.CountUsers(ctx, s.DB); err != nil {
		return nil, err
	}
	if out.CommunityTotal, err = s.Repo.CountDonations(ctx, s.DB, "", "", nil); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyTrend is a user's per-month donation activity for one year.
type MonthlyTrend struct {
	Year    int                        `json:"year"`
	Food    []repo.MonthlyDonationStat `json:"food"`
	NonFood []repo.MonthlyDonationStat `json:"nonfood"`
}

// UserStats is the response of the per-user analytics view.
type UserStats struct {
	Trend           MonthlyTrend  `json:"trend"`
	ActiveDonations KindBreakdown `json:"active_donations"`
	// SuccessRate is the share of the user's requests that were accepted,
	// as a rounded percentage. Zero when no requests were made.
	SuccessRate int `json:"success_rate_percent"`
}

// User returns the per-user dashboard: this year's monthly trend, active
// donation counts, and the request success rate.
func (s *AnalyticsService) User(ctx context.Context, userID string) (*UserStats, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "User",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.Now().UTC()
	year := now.Year()
	out := &UserStats{Trend: MonthlyTrend{Year: year}}

	var err error
	if out.Trend.Food, err = s.Repo.MonthlyDonationStats(ctx, s.DB, userID, domain.KindFood, year); err != nil {
		return nil, err
	}
	if out.Trend.NonFood, err = s.Repo.MonthlyDonationStats(ctx, s.DB, userID, domain.KindNonFood, year); err != nil {
		return nil, err
	}
	if out.Trend.Food == nil {
		out.Trend.Food = []repo.MonthlyDonationStat{}
	}
	if out.Trend.NonFood == nil {
		out.Trend.NonFood = []repo.MonthlyDonationStat{}
	}
	if out.ActiveDonations.Food, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindFood, &now); err != nil {
		return nil, err
	}
	if out.ActiveDonations.NonFood, err = s.Repo.CountDonations(ctx, s.DB, userID, domain.KindNonFood, &now); err != nil {
		return nil, err
	}

	made, err := s.Repo.CountRequests(ctx, s.DB, userID, "", "")
	if err != nil {
		return nil, err
	}
	accepted, err := s.Repo.CountRequests(ctx, s.DB, userID, "", domain.RequestAccepted)
	if err != nil {
		return nil, err
	}
	out.SuccessRate = percent(accepted, made)
	return out, nil
}

// ImpactStats is the response of the impact analytics view.
type ImpactStats struct {
	ItemsShared        int64 `json:"items_shared"`
	SuccessfulRequests int64 `json:"successful_requests"`
	// ShareOfDonations is the user's donations as a rounded percentage of
	// all donations on the platform.
	ShareOfDonations int `json:"share_of_donations_percent"`
}

// Impact relates the user's activity to the platform totals.
func (s *AnalyticsService) Impact(ctx context.Context, userID string) (*ImpactStats, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "Impact",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	out := &ImpactStats{}

	items, err := s.Repo.CountDonationItems(ctx, s.DB, userID, "")
	if err != nil {
		return nil, err
	}
	out.ItemsShared = items

	if out.SuccessfulRequests, err = s.Repo.CountRequests(ctx, s.DB, userID, "", domain.RequestAccepted); err != nil {
		return nil, err
	}

	mine, err := s.Repo.CountDonations(ctx, s.DB, userID, "", nil)
	if err != nil {
		return nil, err
	}
	all, err := s.Repo.CountDonations(ctx, s.DB, "", "", nil)
	if err != nil {
		return nil, err
	}
	out.ShareOfDonations = percent(mine, all)
	return out, nil
}

// percent rounds part/whole to an integer percentage; zero when whole is 0.
func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
