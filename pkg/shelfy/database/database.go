package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the SQLite database at the given path and returns the
// handle. Handlers receive the *gorm.DB explicitly; there is no package
// level connection.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
