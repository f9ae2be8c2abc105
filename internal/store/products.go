package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"benchmarkbox/internal/pricing"
	"benchmarkbox/internal/types"
)

// unnamedProduct is used when a captured page yields no name at all
const unnamedProduct = "Produit sans nom"

// PriceInput is a user-entered price. It accepts JSON numbers as well as
// strings such as "1 234,56 €".
type PriceInput string

// UnmarshalJSON accepts a number, a string or null
func (p *PriceInput) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PriceInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price must be a number or a string: %w", err)
	}
	*p = PriceInput(n.String())
	return nil
}

// Value parses the price, returning 0 for unparseable input
func (p PriceInput) Value() float64 {
	return pricing.ParsePrice(string(p))
}

// PriceFrom formats an amount as a PriceInput
func PriceFrom(v float64) PriceInput {
	return PriceInput(strconv.FormatFloat(v, 'f', -1, 64))
}

// NewProduct describes a product to save
type NewProduct struct {
	Name     string     `json:"name"`
	Price    PriceInput `json:"price"`
	Currency string     `json:"currency"`
	URL      string     `json:"url"`
	Site     string     `json:"site"`
	FolderID string     `json:"folderId"`
	TagIDs   []string   `json:"tagIds"`
	Notes    string     `json:"notes"`
}

// ProductUpdate lists the product fields to change; nil fields are left alone
type ProductUpdate struct {
	Name     *string     `json:"name"`
	Price    *PriceInput `json:"price"`
	Currency *string     `json:"currency"`
	URL      *string     `json:"url"`
	Site     *string     `json:"site"`
	FolderID *string     `json:"folderId"`
	TagIDs   *[]string   `json:"tagIds"`
	Notes    *string     `json:"notes"`
}

// Products returns the products matching filter in the requested order. Empty
// sort fields fall back to the stored settings.
func (s *Store) Products(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	var products []types.Product
	err := s.view(ctx, func(data *types.StoreData) error {
		products = filterProducts(data, filter)

		sortBy := firstNonEmpty(filter.SortBy, data.Settings.SortBy, defaultSort)
		sortOrder := firstNonEmpty(filter.SortOrder, data.Settings.SortOrder, defaultOrder)
		sortProducts(products, sortBy, sortOrder)
		return nil
	})
	return products, err
}

func filterProducts(data *types.StoreData, f types.ProductFilter) []types.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	tagNames := make(map[string]string, len(data.Tags))
	for _, t := range data.Tags {
		tagNames[t.ID] = strings.ToLower(t.Name)
	}

	products := make([]types.Product, 0, len(data.Products))
	for _, p := range data.Products {
		if f.FolderID != "" && p.FolderID != f.FolderID {
			continue
		}
		if len(f.TagIDs) > 0 && !anyTag(p.TagIDs, f.TagIDs) {
			continue
		}
		if f.Site != "" && p.Site != f.Site {
			continue
		}
		if f.PriceMin != nil && p.Price < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && p.Price > *f.PriceMax {
			continue
		}
		if f.DateFrom != nil && p.CreatedAt.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && p.CreatedAt.After(*f.DateTo) {
			continue
		}
		if search != "" && !matchesSearch(p, search, tagNames) {
			continue
		}
		products = append(products, p)
	}
	return products
}

func anyTag(have, want []string) bool {
	for _, id := range want {
		if contains(have, id) {
			return true
		}
	}
	return false
}

func matchesSearch(p types.Product, search string, tagNames map[string]string) bool {
	if strings.Contains(strings.ToLower(p.Name), search) || strings.Contains(strings.ToLower(p.Notes), search) {
		return true
	}
	for _, id := range p.TagIDs {
		if name, ok := tagNames[id]; ok && strings.Contains(name, search) {
			return true
		}
	}
	return false
}

// sortProducts orders products in place. Names and sites are compared with
// French collation rules.
func sortProducts(products []types.Product, sortBy, sortOrder string) {
	collator := collate.New(language.French)

	compare := func(a, b types.Product) int {
		switch sortBy {
		case SortByPrice:
			switch {
			case a.Price < b.Price:
				return -1
			case a.Price > b.Price:
				return 1
			}
			return 0
		case SortByName:
			return collator.CompareString(a.Name, b.Name)
		case SortBySite:
			return collator.CompareString(a.Site, b.Site)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		c := compare(products[i], products[j])
		if sortOrder == SortDesc {
			return c > 0
		}
		return c < 0
	})
}

// Product returns the product with the given id
func (s *Store) Product(ctx context.Context, id string) (*types.Product, error) {
	var product *types.Product
	err := s.view(ctx, func(data *types.StoreData) error {
		i := productIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		product = &data.Products[i]
		return nil
	})
	return product, err
}

// ProductByURL returns the first product saved from url
func (s *Store) ProductByURL(ctx context.Context, url string) (*types.Product, error) {
	var product *types.Product
	err := s.view(ctx, func(data *types.StoreData) error {
		for i := range data.Products {
			if data.Products[i].URL == url {
				product = &data.Products[i]
				return nil
			}
		}
		return ErrNotFound
	})
	return product, err
}

// CreateProduct saves a product, filing it in the default folder when no
// folder is given.
func (s *Store) CreateProduct(ctx context.Context, in NewProduct) (*types.Product, error) {
	var product types.Product
	err := s.update(ctx, func(data *types.StoreData) error {
		product = s.buildProduct(data, in)
		data.Products = append(data.Products, product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) buildProduct(data *types.StoreData, in NewProduct) types.Product {
	folderID := in.FolderID
	if folderID == "" {
		folderID = data.Settings.DefaultFolderID
	}
	tagIDs := in.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}

	return types.Product{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price.Value(),
		Currency:  pricing.NormalizeCurrency(in.Currency),
		URL:       in.URL,
		Site:      in.Site,
		FolderID:  folderID,
		TagIDs:    tagIDs,
		Notes:     in.Notes,
		CreatedAt: s.now(),
	}
}

// SaveRecord turns an extracted record into a saved product
func (s *Store) SaveRecord(ctx context.Context, record types.ProductRecord, folderID string, tagIDs []string, notes string) (*types.Product, error) {
	in := NewProduct{
		Name:     record.Name,
		Currency: record.Currency,
		URL:      record.SourceURL,
		Site:     record.SiteID,
		FolderID: folderID,
		TagIDs:   tagIDs,
		Notes:    notes,
	}
	if in.Name == "" {
		in.Name = unnamedProduct
	}
	if record.Price != nil {
		in.Price = PriceFrom(*record.Price)
	}
	return s.CreateProduct(ctx, in)
}

// UpdateProduct changes a product
func (s *Store) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*types.Product, error) {
	var product types.Product
	err := s.update(ctx, func(data *types.StoreData) error {
		i := productIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}

		p := &data.Products[i]
		if update.Name != nil {
			p.Name = strings.TrimSpace(*update.Name)
		}
		if update.Price != nil {
			p.Price = update.Price.Value()
		}
		if update.Currency != nil {
			p.Currency = pricing.NormalizeCurrency(*update.Currency)
		}
		if update.URL != nil {
			p.URL = *update.URL
		}
		if update.Site != nil {
			p.Site = *update.Site
		}
		if update.FolderID != nil {
			p.FolderID = *update.FolderID
		}
		if update.TagIDs != nil {
			p.TagIDs = append([]string{}, (*update.TagIDs)...)
		}
		if update.Notes != nil {
			p.Notes = *update.Notes
		}
		product = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product and drops it from every shopping list
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		i := productIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		data.Products = append(data.Products[:i], data.Products[i+1:]...)

		for j := range data.ShoppingLists {
			data.ShoppingLists[j].ProductIDs = without(data.ShoppingLists[j].ProductIDs, id)
		}
		return nil
	})
}

// MoveProduct files a product in another folder
func (s *Store) MoveProduct(ctx context.Context, id, folderID string) (*types.Product, error) {
	return s.UpdateProduct(ctx, id, ProductUpdate{FolderID: &folderID})
}

// DuplicateProduct copies a product into toFolderID under a new identity
func (s *Store) DuplicateProduct(ctx context.Context, id, toFolderID string) (*types.Product, error) {
	var product types.Product
	err := s.update(ctx, func(data *types.StoreData) error {
		i := productIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}

		product = data.Products[i]
		product.ID = s.newID()
		product.CreatedAt = s.now()
		product.TagIDs = append([]string{}, product.TagIDs...)
		product.FolderID = firstNonEmpty(toFolderID, data.Settings.DefaultFolderID)

		data.Products = append(data.Products, product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ClearFolderProducts deletes every product filed in folderID
func (s *Store) ClearFolderProducts(ctx context.Context, folderID string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		kept := data.Products[:0]
		for _, p := range data.Products {
			if p.FolderID != folderID {
				kept = append(kept, p)
			}
		}
		data.Products = kept
		return nil
	})
}

// Sites returns the distinct sites products were saved from, sorted
func (s *Store) Sites(ctx context.Context) ([]string, error) {
	var sites []string
	err := s.view(ctx, func(data *types.StoreData) error {
		seen := make(map[string]bool)
		sites = []string{}
		for _, p := range data.Products {
			if !seen[p.Site] {
				seen[p.Site] = true
				sites = append(sites, p.Site)
			}
		}
		sort.Strings(sites)
		return nil
	})
	return sites, err
}

func productIndex(data *types.StoreData, id string) int {
	for i, p := range data.Products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
