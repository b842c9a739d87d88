package models

import "time"

// CategoryType says whether a custom category is meant for income or expenses
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// DefaultIcon is shown for categories without a known icon
const DefaultIcon = "📌"

// Category is a user-defined category. Transactions reference it loosely by name.
type Category struct {
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	Icon      string       `json:"icon"`
	CreatedAt time.Time    `json:"createdAt"`
}

// BuiltinIcons maps the built-in category labels to their icons
var BuiltinIcons = map[string]string{
	"Food":          "🍕",
	"Transport":     "🚌",
	"Shopping":      "🛍️",
	"Bills":         "📄",
	"Education":     "📚",
	"Health":        "🏥",
	"Entertainment": "🎬",
	"Rent":          "🏠",
	"Salary":        "💰",
	"Freelance":     "💼",
	"Business":      "📊",
	"Investment":    "📈",
	"Gift":          "🎁",
	"Other":         "📌",
}
