package domain

// CategoryType tells whether amounts booked under a category count as income or expense
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"  // Money coming in
	CategoryExpense CategoryType = "expense" // Money going out
)

// Valid reports whether t is one of the known category types
func (t CategoryType) Valid() bool {
	return t == CategoryIncome || t == CategoryExpense
}

// Category Model
type Category struct {
	ID       uint         `gorm:"primaryKey" json:"id"`                                   // Primary key
	UserID   uint         `gorm:"index;not null" json:"user_id"`                          // Owner
	Name     string       `gorm:"size:100;not null" json:"name"`                          // Label such as "Groceries"
	Type     CategoryType `gorm:"size:16;not null" json:"type"`                           // income or expense
	Expenses []Expense    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Expenses booked under this category
}
