package db

import (
	"errors"
	"log"

	"wedding/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

func Init() {
	var dialector gorm.Dialector
	if config.MYSQL_DSN != "" {
		dialector = mysql.Open(config.MYSQL_DSN)
	} else if config.SQLITE_FILE != "" {
		log.Printf("Using SQLite database %s", config.SQLITE_FILE)
		dialector = sqlite.Open(config.SQLITE_FILE)
	} else {
		panic(errors.New("no database configured, set MYSQL_DSN or SQLITE_FILE"))
	}
	if err := Open(dialector); err != nil {
		panic(err)
	}
}

// Open connects Instance to the given dialector
func Open(dialector gorm.Dialector) error {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	}
	if !config.DEBUG_MODE {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("gorm returned nil db")
	}
	Instance = db
	return nil
}
