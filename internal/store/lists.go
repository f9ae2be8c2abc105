package store

import (
	"context"
	"strings"

	"benchmarkbox/internal/pricing"
	"benchmarkbox/internal/types"
)

const defaultListName = "Nouvelle liste"

// NewShoppingList describes a shopping list to create. When PlannedDate is nil
// it is derived from PlannedDateType.
type NewShoppingList struct {
	Name            string   `json:"name"`
	BudgetMax       *float64 `json:"budgetMax"`
	Currency        string   `json:"currency"`
	PlannedDate     *string  `json:"plannedDate"`
	PlannedDateType string   `json:"plannedDateType"`
	ProductIDs      []string `json:"productIds"`
}

// ShoppingListUpdate lists the fields to change; nil fields are left alone
type ShoppingListUpdate struct {
	Name            *string   `json:"name"`
	BudgetMax       *float64  `json:"budgetMax"`
	ClearBudget     bool      `json:"clearBudget"`
	Currency        *string   `json:"currency"`
	PlannedDate     *string   `json:"plannedDate"`
	PlannedDateType *string   `json:"plannedDateType"`
	ProductIDs      *[]string `json:"productIds"`
}

// ShoppingLists returns every shopping list
func (s *Store) ShoppingLists(ctx context.Context) ([]types.ShoppingList, error) {
	var lists []types.ShoppingList
	err := s.view(ctx, func(data *types.StoreData) error {
		lists = data.ShoppingLists
		return nil
	})
	return lists, err
}

// ShoppingList returns the shopping list with the given id
func (s *Store) ShoppingList(ctx context.Context, id string) (*types.ShoppingList, error) {
	var list *types.ShoppingList
	err := s.view(ctx, func(data *types.StoreData) error {
		i := listIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		list = &data.ShoppingLists[i]
		return nil
	})
	return list, err
}

// CreateShoppingList adds a shopping list
func (s *Store) CreateShoppingList(ctx context.Context, in NewShoppingList) (*types.ShoppingList, error) {
	now := s.now()
	list := types.ShoppingList{
		ID:              s.newID(),
		Name:            strings.TrimSpace(in.Name),
		Currency:        pricing.NormalizeCurrency(in.Currency),
		PlannedDateType: in.PlannedDateType,
		ProductIDs:      append([]string{}, in.ProductIDs...),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if list.Name == "" {
		list.Name = defaultListName
	}
	if list.PlannedDateType == "" {
		list.PlannedDateType = pricing.PlannedNone
	}
	if in.BudgetMax != nil && *in.BudgetMax > 0 {
		budget := *in.BudgetMax
		list.BudgetMax = &budget
	}
	list.PlannedDate = s.resolvePlannedDate(list.PlannedDateType, in.PlannedDate)

	err := s.update(ctx, func(data *types.StoreData) error {
		data.ShoppingLists = append(data.ShoppingLists, list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// resolvePlannedDate prefers an explicit date and otherwise computes one from dateType
func (s *Store) resolvePlannedDate(dateType string, explicit *string) *string {
	if explicit != nil && *explicit != "" {
		date := *explicit
		return &date
	}
	if date := pricing.PlannedDate(dateType, "", s.now()); date != "" {
		return &date
	}
	return nil
}

// UpdateShoppingList changes a shopping list and bumps its update time
func (s *Store) UpdateShoppingList(ctx context.Context, id string, update ShoppingListUpdate) (*types.ShoppingList, error) {
	var list types.ShoppingList
	err := s.update(ctx, func(data *types.StoreData) error {
		i := listIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}

		l := &data.ShoppingLists[i]
		if update.Name != nil {
			l.Name = strings.TrimSpace(*update.Name)
		}
		if update.ClearBudget {
			l.BudgetMax = nil
		} else if update.BudgetMax != nil {
			budget := *update.BudgetMax
			l.BudgetMax = &budget
		}
		if update.Currency != nil {
			l.Currency = pricing.NormalizeCurrency(*update.Currency)
		}
		if update.PlannedDateType != nil {
			l.PlannedDateType = *update.PlannedDateType
			l.PlannedDate = s.resolvePlannedDate(l.PlannedDateType, update.PlannedDate)
		} else if update.PlannedDate != nil {
			date := *update.PlannedDate
			l.PlannedDate = &date
		}
		if update.ProductIDs != nil {
			l.ProductIDs = append([]string{}, (*update.ProductIDs)...)
		}
		l.UpdatedAt = s.now()
		list = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteShoppingList removes a shopping list
func (s *Store) DeleteShoppingList(ctx context.Context, id string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		i := listIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		data.ShoppingLists = append(data.ShoppingLists[:i], data.ShoppingLists[i+1:]...)
		return nil
	})
}

// AddProductToShoppingList appends a product to a list unless it is already there
func (s *Store) AddProductToShoppingList(ctx context.Context, listID, productID string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		i := listIndex(data, listID)
		if i < 0 {
			return ErrNotFound
		}
		if productIndex(data, productID) < 0 {
			return ErrNotFound
		}

		l := &data.ShoppingLists[i]
		if !contains(l.ProductIDs, productID) {
			l.ProductIDs = append(l.ProductIDs, productID)
			l.UpdatedAt = s.now()
		}
		return nil
	})
}

// RemoveProductFromShoppingList drops a product from a list
func (s *Store) RemoveProductFromShoppingList(ctx context.Context, listID, productID string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		i := listIndex(data, listID)
		if i < 0 {
			return ErrNotFound
		}

		l := &data.ShoppingLists[i]
		l.ProductIDs = without(l.ProductIDs, productID)
		l.UpdatedAt = s.now()
		return nil
	})
}

// ClearShoppingList empties a list
func (s *Store) ClearShoppingList(ctx context.Context, listID string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		i := listIndex(data, listID)
		if i < 0 {
			return ErrNotFound
		}

		data.ShoppingLists[i].ProductIDs = []string{}
		data.ShoppingLists[i].UpdatedAt = s.now()
		return nil
	})
}

// ProductShoppingLists returns the lists containing productID
func (s *Store) ProductShoppingLists(ctx context.Context, productID string) ([]types.ShoppingList, error) {
	lists := []types.ShoppingList{}
	err := s.view(ctx, func(data *types.StoreData) error {
		for _, l := range data.ShoppingLists {
			if contains(l.ProductIDs, productID) {
				lists = append(lists, l)
			}
		}
		return nil
	})
	return lists, err
}

// ShoppingListTotal sums the prices of a list's products. Amounts in different
// currencies are added as-is and flagged with HasMixedCurrencies.
func (s *Store) ShoppingListTotal(ctx context.Context, listID string) (*types.ListTotal, error) {
	var total types.ListTotal
	err := s.view(ctx, func(data *types.StoreData) error {
		i := listIndex(data, listID)
		if i < 0 {
			return ErrNotFound
		}
		list := data.ShoppingLists[i]

		currencies := make(map[string]bool)
		for _, p := range data.Products {
			if !contains(list.ProductIDs, p.ID) {
				continue
			}
			total.Total += p.Price
			total.ProductCount++
			currencies[firstNonEmpty(p.Currency, types.DefaultCurrency)] = true
		}

		total.Currency = firstNonEmpty(list.Currency, types.DefaultCurrency)
		total.HasMixedCurrencies = len(currencies) > 1
		total.BudgetPercentage = pricing.BudgetPercentage(total.Total, list.BudgetMax)
		total.BudgetStatus = pricing.BudgetStatus(total.BudgetPercentage)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &total, nil
}

func listIndex(data *types.StoreData, id string) int {
	for i, l := range data.ShoppingLists {
		if l.ID == id {
			return i
		}
	}
	return -1
}
