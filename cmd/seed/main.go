package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"agrirent/internal/config"
	"agrirent/internal/database"
	"agrirent/internal/domain"
	jwtsvc "agrirent/internal/pkg/jwt"
	"agrirent/internal/pkg/logger"
	"agrirent/internal/repository"
)

type place struct {
	district string
	village  string
	lat, lng float64
}

var places = []place{
	{"Thrissur", "Ollur", 10.4760, 76.2370},
	{"Thrissur", "Irinjalakuda", 10.3426, 76.2114},
	{"Palakkad", "Alathur", 10.6480, 76.5380},
	{"Ernakulam", "Perumbavoor", 10.1150, 76.4780},
	{"Kottayam", "Pala", 9.7130, 76.6830},
}

var machines = []struct {
	name, category string
	price          float64
}{
	{"Mahindra 575 Tractor", "tractor", 800},
	{"Kubota Power Tiller", "tiller", 450},
	{"Combine Harvester", "harvester", 2500},
	{"Battery Sprayer", "sprayer", 120},
	{"Paddy Transplanter", "transplanter", 1200},
}

var owners = []struct{ id, name, contact string }{
	{"owner-anil", "Anil Kumar", "+91 94470 11111"},
	{"owner-latha", "Latha Menon", "+91 94470 22222"},
	{"owner-joseph", "Joseph Varghese", "+91 94470 33333"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: "console"})

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("DB connection failed")
	}

	logger.Info().Msg("running AutoMigrate")
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	// children first, no foreign keys are assumed
	logger.Info().Msg("cleaning old data")
	db.Exec("DELETE FROM equipment_time_slots")
	db.Exec("DELETE FROM equipment_availability")
	db.Exec("DELETE FROM equipment")

	repo := repository.NewEquipmentRepository(db)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	today := time.Now().UTC()

	created := 0
	for i, p := range places {
		for j, m := range machines {
			if (i+j)%2 == 1 {
				continue
			}
			owner := owners[(i+j)%len(owners)]
			// jitter so listings in one village do not share a point
			lat := p.lat + (rng.Float64()-0.5)*0.02
			lng := p.lng + (rng.Float64()-0.5)*0.02

			e := &domain.Equipment{
				OwnerID:      owner.id,
				OwnerName:    owner.name,
				OwnerContact: owner.contact,
				Name:         m.name,
				Description:  fmt.Sprintf("%s available in %s", m.name, p.village),
				Category:     m.category,
				PricePerHour: m.price,
				Images:       []string{},
				Location:     domain.NewGeoPoint(lat, lng),
				Address:      p.village + ", " + p.district,
				District:     p.district,
				Village:      p.village,
				Availability: calendar(today, 5),
				CreatedAt:    time.Now().UTC(),
			}
			if err := repo.Create(ctx, e); err != nil {
				logger.Fatal().Err(err).Str("name", m.name).Msg("create equipment")
			}
			created++
		}
	}
	logger.Info().Int("equipment", created).Msg("equipment created")

	if cfg.JWTSecret != "" {
		j := jwtsvc.New(cfg.JWTSecret, 7*24*time.Hour)
		for _, o := range owners {
			token, err := j.GenerateToken(o.id, o.name)
			if err != nil {
				logger.Fatal().Err(err).Msg("generate token")
			}
			fmt.Printf("%s\t%s\n", o.id, token)
		}
	}

	logger.Info().Msg("seed completed")
}

// calendar builds three slots a day for the next n days.
func calendar(from time.Time, n int) []domain.Availability {
	windows := [][2]string{{"06:00", "09:00"}, {"10:00", "13:00"}, {"14:00", "17:00"}}
	days := make([]domain.Availability, 0, n)
	for d := 0; d < n; d++ {
		date := from.AddDate(0, 0, d).Format(domain.DateLayout)
		slots := make([]domain.TimeSlot, 0, len(windows))
		for k, w := range windows {
			slots = append(slots, domain.TimeSlot{
				ID:        fmt.Sprintf("s%d", k+1),
				StartTime: w[0],
				EndTime:   w[1],
			})
		}
		days = append(days, domain.Availability{Date: date, Slots: slots})
	}
	return days
}
