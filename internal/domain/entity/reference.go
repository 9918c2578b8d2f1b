package entity

// Project is a cost center of type project
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// GeneralExpenseType is a cost center of type general_expense
type GeneralExpenseType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Supplier is an entry of the supplier directory
type Supplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExpenseCategory is a category with its allowed subcategories
type ExpenseCategory struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories,omitempty"`
}

// CreditCard is a company card that can pay for an expense
type CreditCard struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastFour string `json:"last_four,omitempty"`
}
