package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/repository"
	"github.com/noah-isme/lingua-tutor-api/internal/service"
	"github.com/noah-isme/lingua-tutor-api/pkg/config"
	"github.com/noah-isme/lingua-tutor-api/pkg/database"
	"github.com/noah-isme/lingua-tutor-api/pkg/lock"
	"github.com/noah-isme/lingua-tutor-api/pkg/logger"
)

const demoPassword = "password123"

var (
	languages = []string{"Spanish", "French", "German", "Italian", "Portuguese", "Japanese", "Mandarin", "Korean", "Arabic", "Dutch"}
	levels    = []string{"Native", "C2", "C1"}
)

func main() {
	tutors := flag.Int("tutors", 20, "number of tutors to create")
	students := flag.Int("students", 50, "number of students to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	gofakeit.Seed(0)

	users := repository.NewUserRepository(db)
	profiles := repository.NewTutorRepository(db)
	auth := service.NewAuthService(users, profiles, nil, zapLogger, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		DefaultHourlyRate: cfg.Tutors.DefaultHourlyRate,
	})
	tutorSvc := service.NewTutorService(profiles, nil, zapLogger)
	availability := service.NewAvailabilityService(repository.NewAvailabilityRepository(db), profiles, lock.NewLocalLocker(cfg.Booking.LockWait), nil, nil, zapLogger)

	s := seeder{auth: auth, tutors: tutorSvc, availability: availability, logger: zapLogger}
	created := s.seedTutors(ctx, *tutors)
	zapLogger.Info("tutors seeded", zap.Int("requested", *tutors), zap.Int("created", created))

	created = s.seedStudents(ctx, *students)
	zapLogger.Info("students seeded", zap.Int("requested", *students), zap.Int("created", created))
}

type seeder struct {
	auth         *service.AuthService
	tutors       *service.TutorService
	availability *service.AvailabilityService
	logger       *zap.Logger
}

func (s seeder) seedTutors(ctx context.Context, count int) int {
	created := 0
	for i := 0; i < count; i++ {
		info, err := s.register(ctx, models.RoleTutor)
		if err != nil {
			s.logger.Warn("register tutor", zap.Error(err))
			continue
		}
		actor := &models.JWTClaims{UserID: info.ID, Username: info.Username, Role: models.RoleTutor}

		years := gofakeit.Number(1, 25)
		_, err = s.tutors.UpdateProfile(ctx, actor, models.UpdateTutorProfileRequest{
			Bio:              fmt.Sprintf("%s from %s, teaching for %d years.", gofakeit.JobTitle(), gofakeit.City(), years),
			HourlyRate:       float64(gofakeit.Number(15, 60)),
			YearsExperience:  years,
			ProficiencyLevel: levels[gofakeit.Number(0, len(levels)-1)],
			Specialization:   languages[gofakeit.Number(0, len(languages)-1)],
		})
		if err != nil {
			s.logger.Warn("update tutor profile", zap.String("user_id", info.ID), zap.Error(err))
		}

		s.seedWindows(ctx, actor)
		created++
	}
	return created
}

// seedWindows opens a morning or afternoon block on three to five weekdays.
func (s seeder) seedWindows(ctx context.Context, actor *models.JWTClaims) {
	days := gofakeit.Number(3, 5)
	for day := 0; day < days; day++ {
		start := gofakeit.Number(8, 14)
		length := gofakeit.Number(2, 4)
		dayOfWeek := day
		_, err := s.availability.AddWindow(ctx, actor, models.CreateAvailabilityRequest{
			DayOfWeek: &dayOfWeek,
			StartTime: fmt.Sprintf("%02d:00", start),
			EndTime:   fmt.Sprintf("%02d:00", start+length),
		})
		if err != nil {
			s.logger.Warn("add availability window", zap.String("user_id", actor.UserID), zap.Int("day", day), zap.Error(err))
		}
	}
}

func (s seeder) seedStudents(ctx context.Context, count int) int {
	created := 0
	for i := 0; i < count; i++ {
		if _, err := s.register(ctx, models.RoleStudent); err != nil {
			s.logger.Warn("register student", zap.Error(err))
			continue
		}
		created++
	}
	return created
}

func (s seeder) register(ctx context.Context, role models.UserRole) (*models.UserInfo, error) {
	username := strings.ToLower(alphanumeric(gofakeit.FirstName())) + fmt.Sprint(gofakeit.Number(100, 99999))
	return s.auth.Register(ctx, models.RegisterRequest{
		Username: username,
		Email:    username + "@" + strings.ToLower(alphanumeric(gofakeit.DomainName())) + ".test",
		Password: demoPassword,
		Role:     role,
	})
}

func alphanumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
