package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/export"
)

type earningsRepository interface {
	ListTutorEarnings(ctx context.Context, tutorID string) ([]models.EarningsEntry, error)
}

// EarningsFile is a rendered earnings statement.
type EarningsFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// EarningsService reports tutor payouts from completed payments.
type EarningsService struct {
	repo     earningsRepository
	tutors   tutorProfileFinder
	currency string
	logger   *zap.Logger
	now      func() time.Time
}

// NewEarningsService constructs an EarningsService.
func NewEarningsService(repo earningsRepository, tutors tutorProfileFinder, currency string, logger *zap.Logger) *EarningsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "EUR"
	}
	return &EarningsService{repo: repo, tutors: tutors, currency: currency, logger: logger, now: time.Now}
}

// Summary returns the caller's total payout and its monthly breakdown in
// chronological order. Refunded payments are excluded.
func (s *EarningsService) Summary(ctx context.Context, actor *models.JWTClaims) (*models.EarningsSummary, error) {
	profile, err := actorTutorProfile(ctx, s.tutors, actor)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListTutorEarnings(ctx, profile.ID)
	if err != nil {
		return nil, storageError(err, "failed to load earnings")
	}
	return summarize(profile.ID, s.currency, entries), nil
}

// Export renders the caller's earnings statement as CSV or PDF.
func (s *EarningsService) Export(ctx context.Context, actor *models.JWTClaims, format string) (*EarningsFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUnsupportedFormat, "format must be csv or pdf")
	}
	renderer, err := export.NewRenderer(f)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrUnsupportedFormat, "")
	}

	summary, err := s.Summary(ctx, actor)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   fmt.Sprintf("Earnings statement - %s", actor.Username),
		Columns: []string{"Session date", "Student", "Amount", "Platform fee", "Payout", "Paid on"},
	}
	for _, e := range summary.Entries {
		table.Rows = append(table.Rows, []string{
			scheduling.FormatDate(e.BookingDate),
			e.StudentUsername,
			money(e.Amount),
			money(e.PlatformFee),
			money(e.TutorPayout),
			scheduling.FormatDate(e.PaymentDate),
		})
	}
	for _, m := range summary.Monthly {
		table.Summary = append(table.Summary, []string{m.Month, fmt.Sprintf("%d sessions", m.Sessions), "", "", money(m.Payout)})
	}
	table.Summary = append(table.Summary, []string{"Total", "", "", "", money(summary.Total) + " " + summary.Currency})

	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render earnings statement")
	}

	s.logger.Info("earnings exported", zap.String("tutor_id", summary.TutorID), zap.String("format", string(f)))
	return &EarningsFile{
		Filename:    fmt.Sprintf("earnings-%s.%s", s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func summarize(tutorID, currency string, entries []models.EarningsEntry) *models.EarningsSummary {
	summary := &models.EarningsSummary{
		TutorID:  tutorID,
		Currency: currency,
		Monthly:  []models.MonthlyEarnings{},
		Entries:  entries,
	}
	if summary.Entries == nil {
		summary.Entries = []models.EarningsEntry{}
	}

	byMonth := map[string]*models.MonthlyEarnings{}
	for _, e := range entries {
		summary.Total += e.TutorPayout
		key := e.PaymentDate.UTC().Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &models.MonthlyEarnings{Month: key}
			byMonth[key] = m
		}
		m.Payout += e.TutorPayout
		m.Sessions++
	}
	summary.Total = scheduling.RoundCents(summary.Total)

	for _, m := range byMonth {
		m.Payout = scheduling.RoundCents(m.Payout)
		summary.Monthly = append(summary.Monthly, *m)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool { return summary.Monthly[i].Month < summary.Monthly[j].Month })
	return summary
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
