package domain

import "time"

// Expense Model. A single dated money movement; whether it is income or
// spending follows from the type of its category.
type Expense struct {
	ID          uint      `gorm:"primaryKey"`        // Primary key
	UserID      uint      `gorm:"index;not null"`    // Owner
	CategoryID  uint      `gorm:"index;not null"`    // Category, owned by the same user
	AmountCents int64     `gorm:"not null"`          // Amount in minor units, always positive
	Description string    `gorm:"size:255;not null"` // What it was for
	Date        time.Time `gorm:"index;not null"`    // Calendar day at UTC midnight
	CreatedAt   time.Time `gorm:"autoCreateTime"`    // Row creation time
}
