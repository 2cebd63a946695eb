// Command seedadmin creates or updates the initial admin user.
// Usage: seedadmin -username admin -email admin@example.org -password secret
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/uid0/openmakersuite/internal/config"
	"github.com/uid0/openmakersuite/internal/infra"
	"github.com/uid0/openmakersuite/internal/model"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal().Msg("-email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	user := &model.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Active:       true,
	}

	// Upsert on username so re-running rotates the password.
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "active", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	log.Info().Str("username", *username).Msg("admin user seeded")
}
