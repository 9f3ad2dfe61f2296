// Package runlog keeps an append-only SQLite audit trail: one row per run
// plus the order rows it emitted. The engine never reads it back; signal
// generation carries no state between runs.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunModel is one generator run.
type RunModel struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	RunDate            string    `gorm:"size:10;index"`
	BuyingPower        float64   `gorm:"not null"`
	GrossPositionValue float64   `gorm:"not null"`
	NetLiquidation     float64   `gorm:"not null"`
	UsableCapital      float64   `gorm:"not null"`
	OrderCount         int       `gorm:"not null"`
	FailedStrategies   string    `gorm:"size:512"`
	Status             string    `gorm:"size:16;not null"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

func (RunModel) TableName() string { return "signal_runs" }

// OrderModel is one emitted order row, tied to its run.
type OrderModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"size:36;index;not null"`
	Strategy     string `gorm:"size:32;index;not null"`
	Symbol       string `gorm:"size:16;not null"`
	Action       string `gorm:"size:12;not null"`
	Quantity     int64  `gorm:"not null"`
	OrderType    string `gorm:"size:8;not null"`
	LimitPrice   string `gorm:"size:16"`
	TimeInForce  string `gorm:"size:8"`
	GoodTillDate string `gorm:"size:32"`
	AttachMOC    string `gorm:"size:4"`
}

func (OrderModel) TableName() string { return "signal_orders" }

// Store wraps the gorm handle. Safe for the single-writer batch process.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runlog: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&RunModel{}, &OrderModel{}); err != nil {
		return nil, fmt.Errorf("runlog: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun persists the run row and its orders in one transaction and
// returns the generated run ID.
func (s *Store) RecordRun(run RunModel, orders []OrderModel) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		for i := range orders {
			orders[i].RunID = run.ID
		}
		if len(orders) == 0 {
			return nil
		}
		return tx.Create(&orders).Error
	})
	if err != nil {
		return "", fmt.Errorf("runlog: record run: %w", err)
	}
	return run.ID, nil
}
