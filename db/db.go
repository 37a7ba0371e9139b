package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ar-navigation/config"
	"ar-navigation/model"

	"github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRouteNotFound is returned by LoadRoute for an unknown route name.
var ErrRouteNotFound = errors.New("route not found")

// Store wraps the gorm handle with the queries the service needs.
type Store struct {
	DB *gorm.DB
}

// retryDelay is the pause between connection attempts while the database starts up.
var retryDelay = 2 * time.Second

// Open connects with retries and migrates the schema.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var gdb *gorm.DB
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		gdb, err = gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
		if err == nil {
			break
		}
		log.Printf("waiting for database... (%d/%d): %v", i+1, attempts, err)
		time.Sleep(retryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Driver, err)
	}

	if err := gdb.AutoMigrate(&model.User{}, &model.Route{}, &model.RouteInstruction{}, &model.NavigationEvent{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Printf("%s database connected and migrated", cfg.Driver)
	return &Store{DB: gdb}, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port,
		)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	}
	return nil, &config.ConfigError{Field: "database.driver", Reason: fmt.Sprintf("unsupported driver %q", cfg.Driver)}
}

// DefaultRoute is the fixed campus route seeded into an empty database.
func DefaultRoute(name string) *model.Route {
	return &model.Route{
		Name:        name,
		Description: "Fixed demonstration route",
		Tags:        pq.StringArray{"default", "walking"},
		Instructions: []model.RouteInstruction{
			{Seq: 0, X: 332.1, Z: -221.4, Direction: model.DirectionStraight.String(), Text: "Navigation started. Go straight."},
			{Seq: 1, X: 3, Z: 6.1, Direction: model.DirectionLeft.String(), Text: "Turn left."},
			{Seq: 2, X: -85.5, Z: -60.5, Direction: model.DirectionGoal.String(), Text: "You have arrived at your destination."},
		},
	}
}

// SeedDefaultRoute stores DefaultRoute(name) unless a route with that name exists.
func (s *Store) SeedDefaultRoute(name string) error {
	var count int64
	if err := s.DB.Model(&model.Route{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return fmt.Errorf("count routes: %w", err)
	}
	if count > 0 {
		return nil
	}
	log.Printf("route %q not found, seeding the default route", name)
	return s.SaveRoute(DefaultRoute(name))
}

// SaveRoute inserts a route with its instructions in one transaction.
func (s *Store) SaveRoute(r *model.Route) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("save route %s: %w", r.Name, err)
		}
		return nil
	})
}

// LoadRoute returns the named route with its instructions in sequence order.
func (s *Store) LoadRoute(name string) (*model.Route, error) {
	var r model.Route
	err := s.DB.Preload("Instructions", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	}).Where("name = ?", name).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load route %s: %w", name, err)
	}
	return &r, nil
}

// CreateUser inserts u. The password must already be hashed.
func (s *Store) CreateUser(u *model.User) error {
	return s.DB.Create(u).Error
}

// FindUser looks a user up by name. It returns gorm.ErrRecordNotFound for unknown names.
func (s *Store) FindUser(username string) (*model.User, error) {
	var u model.User
	if err := s.DB.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordEvent appends one navigation event.
func (s *Store) RecordEvent(ev *model.NavigationEvent) error {
	return s.DB.Create(ev).Error
}

// RecentEvents returns up to limit events of a session, newest first.
func (s *Store) RecentEvents(sessionID string, limit int) ([]model.NavigationEvent, error) {
	var events []model.NavigationEvent
	err := s.DB.Where("session_id = ?", sessionID).Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
