package models

import (
	"wedding/db"
	"wedding/storage"
)

func Init() {
	if err := Migrate(); err != nil {
		panic(err)
	}
}

func Migrate() error {
	return db.Instance.AutoMigrate(
		&storage.Bucket{},
		&User{},
		&Grant{},
		&Contact{},
		&Attendee{},
		&MainImage{},
		&Photo{},
		&DetectedFace{},
	)
}
