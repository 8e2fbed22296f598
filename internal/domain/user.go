package domain

import "time"

// User Model
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`                                   // Primary key
	Email          string     `gorm:"size:255;uniqueIndex;not null" json:"email"`             // Unique login email, lower-cased
	HashedPassword string     `gorm:"not null" json:"-"`                                      // bcrypt hash, never serialized
	FirstName      string     `gorm:"size:100;not null" json:"first_name"`                    // Given name
	LastName       string     `gorm:"size:100;not null" json:"last_name"`                     // Family name
	CreatedAt      time.Time  `json:"created_at"`                                             // Registration time
	Categories     []Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Owned categories
	Expenses       []Expense  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Owned expenses
}
