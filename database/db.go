// Package database persists detection results so operators can compare
// runs over time.
package database

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vmtell/vmtell/platform"
	"github.com/vmtell/vmtell/vmdetect"
)

var (
	dbInstance *gorm.DB
	dbOnce     sync.Once
	dbErr      error
)

// ScanRecord is one persisted detection run.
type ScanRecord struct {
	ID         string    `gorm:"primaryKey"`
	CreatedAt  time.Time `gorm:"index"`
	Hostname   string
	OS         string
	Flags      uint64
	Verdict    bool
	Percentage uint8
	Brand      string
}

// GetDB opens (once) the history database at path. An empty path uses
// ~/.vmtell/history.db.
func GetDB(path string) (*gorm.DB, error) {
	dbOnce.Do(func() {
		if path == "" {
			path = defaultPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			dbErr = errors.Wrap(err, "create history directory")
			return
		}
		dbInstance, dbErr = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if dbErr != nil {
			dbErr = errors.Wrap(dbErr, "open history database")
			return
		}
		dbErr = dbInstance.AutoMigrate(&ScanRecord{})
	})
	return dbInstance, dbErr
}

func defaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".vmtell", "history.db")
}

// SaveResult appends one detection result to the history.
func SaveResult(db *gorm.DB, flags vmdetect.Flag, res vmdetect.Result) (*ScanRecord, error) {
	rec := &ScanRecord{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Hostname:   platform.Hostname(),
		OS:         platform.OS(),
		Flags:      uint64(flags),
		Verdict:    res.Verdict,
		Percentage: res.Percentage,
		Brand:      res.Brand.String(),
	}
	if err := db.Create(rec).Error; err != nil {
		return nil, errors.Wrap(err, "save scan record")
	}
	return rec, nil
}

// RecentScans returns the newest n records, newest first.
func RecentScans(db *gorm.DB, n int) ([]ScanRecord, error) {
	var recs []ScanRecord
	err := db.Order("created_at DESC").Limit(n).Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "load scan history")
	}
	return recs, nil
}

// CloseDB closes the underlying connection. Safe to call when GetDB was
// never reached.
func CloseDB() error {
	if dbInstance == nil {
		return nil
	}
	sqlDB, err := dbInstance.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
