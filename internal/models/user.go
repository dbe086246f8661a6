// Package models defines the persistent records and error taxonomy shared across layers.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a registered account.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	ProfileImage string    `gorm:"size:100" json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Tweets []Tweet `gorm:"foreignKey:UserID" json:"-"`
}

// SetPassword stores a salted bcrypt hash of plaintext.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plaintext matches the stored hash.
func (u *User) CheckPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}
