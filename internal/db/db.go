package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"unishare/internal/config"
	"unishare/internal/models"
	"unishare/internal/utils"
)

// Open connects to Postgres, migrates the schema and optionally seeds demo data.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseDSN()
	if cfg.DBSecretARN != "" {
		creds, err := getDBCredentials(ctx, cfg.DBSecretARN)
		if err != nil {
			return nil, fmt.Errorf("get db credentials: %w", err)
		}
		dsn = creds.DSN()
	}

	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.AppEnv == "production" {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	conn, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	if err := seedRanks(conn); err != nil {
		return nil, err
	}
	if cfg.SeedData {
		seedCatalog(conn, cfg.AdminPassword)
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.PointLog{},
		&models.Rank{},
		&models.Session{},
		&models.Program{},
		&models.Course{},
		&models.ClassInstance{},
		&models.Unit{},
		&models.Resource{},
		&models.Completion{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	log.Info("Database migration completed")
	return nil
}

// seedRanks upserts the rank table so that it always mirrors utils.Ranks.
func seedRanks(conn *gorm.DB) error {
	ranks := append([]models.Rank(nil), utils.Ranks...)
	err := conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "min", "max", "icon"}),
	}).Create(&ranks).Error
	if err != nil {
		return fmt.Errorf("seed ranks: %w", err)
	}
	return nil
}

// seedCatalog creates one program down to a unit plus an admin account on an
// empty database.
func seedCatalog(conn *gorm.DB, adminPassword string) {
	var count int64
	conn.Model(&models.Program{}).Count(&count)
	if count > 0 {
		log.Debug("Catalog already seeded, skipping")
		return
	}
	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.WithError(err).Error("Failed to hash admin password")
		return
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		program := models.Program{Name: "Bachelor of Science in Computer Science"}
		if err := tx.Create(&program).Error; err != nil {
			return err
		}
		course := models.Course{ProgramID: program.ID, Name: "Computer Science"}
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		class := models.ClassInstance{CourseID: course.ID, Year: 2, Semester: 1, Group: "A"}
		if err := tx.Create(&class).Error; err != nil {
			return err
		}
		units := []models.Unit{
			{ClassInstanceID: class.ID, Code: "CSC201", Name: "Data Structures and Algorithms"},
			{ClassInstanceID: class.ID, Code: "CSC202", Name: "Database Systems"},
			{ClassInstanceID: class.ID, Code: "CSC203", Name: "Operating Systems"},
		}
		if err := tx.Create(&units).Error; err != nil {
			return err
		}
		admin := models.User{
			AdmissionNumber: "ADMIN001",
			Email:           "admin@unishare.local",
			DisplayName:     "Portal Admin",
			Password:        hash,
			Role:            models.RoleSuperAdmin,
			Rank:            utils.RankFor(0).Level,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		log.WithError(err).Error("Failed to seed catalog")
		return
	}
	log.Info("Initial catalog created successfully")
}
