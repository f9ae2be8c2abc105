package types

import "time"

// Folder groups saved products
type Folder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"isDefault"`
	IsSystem    bool      `json:"isSystem"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Tag is a free-form label that can be attached to products
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Product is a saved product listing
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	URL       string    `json:"url"`
	Site      string    `json:"site"`
	FolderID  string    `json:"folderId"`
	TagIDs    []string  `json:"tagIds"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShoppingList groups products under a budget and a planned purchase date
type ShoppingList struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BudgetMax       *float64  `json:"budgetMax"`
	Currency        string    `json:"currency"`
	PlannedDate     *string   `json:"plannedDate"`
	PlannedDateType string    `json:"plannedDateType"`
	ProductIDs      []string  `json:"productIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Settings holds user preferences
type Settings struct {
	DefaultFolderID string `json:"defaultFolderId"`
	SortBy          string `json:"sortBy"`
	SortOrder       string `json:"sortOrder"`
}

// StoreData is the whole persisted blob
type StoreData struct {
	Folders       []Folder       `json:"folders"`
	Tags          []Tag          `json:"tags"`
	Products      []Product      `json:"products"`
	ShoppingLists []ShoppingList `json:"shoppingLists"`
	Settings      Settings       `json:"settings"`
}

// ProductFilter narrows and orders a product listing. Zero values disable a filter.
type ProductFilter struct {
	FolderID  string
	TagIDs    []string
	Site      string
	PriceMin  *float64
	PriceMax  *float64
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	SortBy    string
	SortOrder string
}

// ListTotal summarizes the products of a shopping list
type ListTotal struct {
	Total              float64 `json:"total"`
	Currency           string  `json:"currency"`
	HasMixedCurrencies bool    `json:"hasMixedCurrencies"`
	ProductCount       int     `json:"productCount"`
	BudgetPercentage   *int    `json:"budgetPercentage,omitempty"`
	BudgetStatus       string  `json:"budgetStatus"`
}
