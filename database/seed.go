package database

import (
	"fmt"
	"log"

	"github.com/learnhub/api/config"
	"github.com/learnhub/api/model"
	"github.com/learnhub/api/utils/auth"
	"gorm.io/gorm"
)

// poolInitialBalance is the coin balance minted into the pool account when it
// is first created. Every payout draws this balance down.
const poolInitialBalance int64 = 1_000_000

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminPoolAccount(); err != nil {
		return fmt.Errorf("failed to seed admin pool account: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminPoolAccount creates the pooled admin account that funds coin
// rewards. The initial balance is minted with a matching ledger row so the
// balance always equals the ledger sum.
func (s *Seeder) SeedAdminPoolAccount() error {
	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	if getEnv.ADMIN_POOL_EMAIL == "" || getEnv.ADMIN_PASSWORD == "" {
		log.Println("⚠️  ADMIN_POOL_EMAIL and ADMIN_PASSWORD not set, skipping pool account creation")
		return nil
	}

	var count int64
	err = s.db.Model(&model.User{}).
		Where("email = ?", getEnv.ADMIN_POOL_EMAIL).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("⏭️  Admin pool account already exists, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword(getEnv.ADMIN_PASSWORD)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		pool := model.User{
			Email:        getEnv.ADMIN_POOL_EMAIL,
			PasswordHash: passwordHash,
			Name:         "Platform Admin",
			Role:         model.RoleAdmin,
			IsActive:     true,
			Coins:        poolInitialBalance,
		}
		if err := tx.Create(&pool).Error; err != nil {
			return err
		}

		mint := model.CoinTransaction{
			UserID: pool.ID,
			Amount: poolInitialBalance,
			Type:   model.CoinTransactionEarned,
			Reason: "Initial pool allocation",
		}
		if err := tx.Create(&mint).Error; err != nil {
			return err
		}

		log.Printf("✅ Created admin pool account: %s", pool.Email)
		return nil
	})
}

// SeedCourses creates a starter catalog on an empty database
func (s *Seeder) SeedCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{
			Title:       "Introduction to Go",
			Description: "Syntax, tooling, and the standard library from the ground up.",
			Instructor:  "Priya Sharma",
			Duration:    "6 weeks",
			Price:       49.99,
			Status:      model.CourseStatusPublished,
			Category:    "Programming",
			Level:       "beginner",
		},
		{
			Title:       "Relational Databases in Practice",
			Description: "Schema design, indexing, and transactions with PostgreSQL.",
			Instructor:  "Daniel Okafor",
			Duration:    "8 weeks",
			Price:       79.99,
			Status:      model.CourseStatusPublished,
			Category:    "Databases",
			Level:       "intermediate",
		},
		{
			Title:       "Distributed Systems Fundamentals",
			Description: "Consistency, consensus, and failure handling in distributed services.",
			Instructor:  "Mei Lin",
			Duration:    "10 weeks",
			Price:       129.99,
			Status:      model.CourseStatusDraft,
			Category:    "Systems",
			Level:       "advanced",
		},
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d courses", len(courses))
	return nil
}
