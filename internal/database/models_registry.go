package database

import "chirp/internal/models"

// PersistentModels lists every model managed by AutoMigrate, parents first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tweet{},
		&models.Comment{},
		&models.Like{},
	}
}
