package database

import (
	"gorm.io/gorm"
)

// CreateUser inserts a new user
func CreateUser(db *gorm.DB, user *User) error {
	return db.Create(user).Error
}

// GetUserByUUID retrieves a user by UUID
func GetUserByUUID(db *gorm.DB, uuid string) (*User, error) {
	var user User
	if err := db.Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func GetUserByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
