package models

import "time"

// Backup is the full JSON export of one user's data.
// Budgets and CustomCategories are pointers so an import can tell "absent" from "empty".
type Backup struct {
	User             string        `json:"user"`
	ExportDate       time.Time     `json:"exportDate"`
	Transactions     []Transaction `json:"transactions"`
	Budgets          *[]Budget     `json:"budgets,omitempty"`
	CustomCategories *[]Category   `json:"customCategories,omitempty"`
	Balance          string        `json:"balance"`
}
