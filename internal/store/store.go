// Package store keeps folders, tags, products and shopping lists in a single
// JSON document persisted through a pluggable Backend.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"benchmarkbox/internal/types"
)

// DefaultKey is the backend key holding the store document
const DefaultKey = "benchmarkbox"

// Identifiers and values of the built-in "unclassified" folder
const (
	UnclassifiedFolderID = "default-unclassified"
	unclassifiedName     = "Non classé"
	unclassifiedColor    = "#6b7280"
	unclassifiedDesc     = "Produits non classés"
	defaultColor         = "#f97316"
)

// Default product ordering
const (
	SortByDate   = "date"
	SortByPrice  = "price"
	SortByName   = "name"
	SortBySite   = "site"
	SortAsc      = "asc"
	SortDesc     = "desc"
	defaultSort  = SortByDate
	defaultOrder = SortDesc
)

var (
	// ErrSystemFolder is returned when deleting the built-in folder
	ErrSystemFolder = errors.New("system folder cannot be deleted")

	// ErrInvalidImport is returned when imported data lacks required collections
	ErrInvalidImport = errors.New("invalid import data")
)

// Store is the product catalogue. All methods are safe for concurrent use.
type Store struct {
	backend Backend
	key     string
	logger  *logrus.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// Option customizes a Store
type Option func(*Store)

// WithKey stores the document under key instead of DefaultKey
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the identifier generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a store on top of backend
func New(backend Backend, logger *logrus.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// defaultData returns the document a fresh store starts with
func (s *Store) defaultData() *types.StoreData {
	return &types.StoreData{
		Folders: []types.Folder{{
			ID:          UnclassifiedFolderID,
			Name:        unclassifiedName,
			Color:       unclassifiedColor,
			Description: unclassifiedDesc,
			IsDefault:   true,
			IsSystem:    true,
			CreatedAt:   s.now(),
		}},
		Tags:          []types.Tag{},
		Products:      []types.Product{},
		ShoppingLists: []types.ShoppingList{},
		Settings: types.Settings{
			DefaultFolderID: UnclassifiedFolderID,
			SortBy:          defaultSort,
			SortOrder:       defaultOrder,
		},
	}
}

// load reads the document, initializing the backend with defaults when empty.
// Callers must hold s.mu.
func (s *Store) load(ctx context.Context) (*types.StoreData, error) {
	raw, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.logger.WithFields(logrus.Fields{"key": s.key}).Info("No existing data, initializing with defaults")
		data := s.defaultData()
		if err := s.save(ctx, data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load store data: %w", err)
	}

	var data types.StoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode store data: %w", err)
	}
	normalize(&data)
	return &data, nil
}

// save writes the document. Callers must hold s.mu.
func (s *Store) save(ctx context.Context, data *types.StoreData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode store data: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, raw); err != nil {
		s.logger.WithFields(logrus.Fields{"key": s.key, "error": err}).Error("Failed to save store data")
		return fmt.Errorf("failed to save store data: %w", err)
	}
	return nil
}

// view runs fn against the current document
func (s *Store) view(ctx context.Context, fn func(data *types.StoreData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(data)
}

// update runs fn against the current document and saves it when fn succeeds
func (s *Store) update(ctx context.Context, fn func(data *types.StoreData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return s.save(ctx, data)
}

// normalize replaces null collections, e.g. from older exports, with empty ones
func normalize(data *types.StoreData) {
	if data.Folders == nil {
		data.Folders = []types.Folder{}
	}
	if data.Tags == nil {
		data.Tags = []types.Tag{}
	}
	if data.Products == nil {
		data.Products = []types.Product{}
	}
	if data.ShoppingLists == nil {
		data.ShoppingLists = []types.ShoppingList{}
	}
	for i := range data.Products {
		if data.Products[i].TagIDs == nil {
			data.Products[i].TagIDs = []string{}
		}
	}
	for i := range data.ShoppingLists {
		if data.ShoppingLists[i].ProductIDs == nil {
			data.ShoppingLists[i].ProductIDs = []string{}
		}
	}
	if data.Settings.DefaultFolderID == "" {
		data.Settings.DefaultFolderID = UnclassifiedFolderID
	}
	if data.Settings.SortBy == "" {
		data.Settings.SortBy = defaultSort
	}
	if data.Settings.SortOrder == "" {
		data.Settings.SortOrder = defaultOrder
	}
}

// Data returns a snapshot of the whole document
func (s *Store) Data(ctx context.Context) (*types.StoreData, error) {
	var out *types.StoreData
	err := s.view(ctx, func(data *types.StoreData) error {
		out = data
		return nil
	})
	return out, err
}

// SettingsUpdate lists the settings to change; nil fields are left alone
type SettingsUpdate struct {
	DefaultFolderID *string `json:"defaultFolderId"`
	SortBy          *string `json:"sortBy"`
	SortOrder       *string `json:"sortOrder"`
}

// Settings returns the user preferences
func (s *Store) Settings(ctx context.Context) (types.Settings, error) {
	var settings types.Settings
	err := s.view(ctx, func(data *types.StoreData) error {
		settings = data.Settings
		return nil
	})
	return settings, err
}

// UpdateSettings applies update and returns the resulting settings
func (s *Store) UpdateSettings(ctx context.Context, update SettingsUpdate) (types.Settings, error) {
	var settings types.Settings
	err := s.update(ctx, func(data *types.StoreData) error {
		if update.DefaultFolderID != nil {
			data.Settings.DefaultFolderID = *update.DefaultFolderID
		}
		if update.SortBy != nil {
			data.Settings.SortBy = *update.SortBy
		}
		if update.SortOrder != nil {
			data.Settings.SortOrder = *update.SortOrder
		}
		settings = data.Settings
		return nil
	})
	return settings, err
}

// Export returns the whole document as indented JSON
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	var out []byte
	err := s.view(ctx, func(data *types.StoreData) error {
		var err error
		out, err = json.MarshalIndent(data, "", "  ")
		return err
	})
	return out, err
}

// Import replaces the whole document with raw. The input must carry at least
// the folders, tags and products collections.
func (s *Store) Import(ctx context.Context, raw []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	for _, required := range []string{"folders", "tags", "products"} {
		value, ok := probe[required]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return fmt.Errorf("%w: missing %s", ErrInvalidImport, required)
		}
	}

	var data types.StoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	normalize(&data)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, &data)
}

// Reset restores the default document
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, s.defaultData())
}

// pending is the record captured by the save shortcut, waiting for the popup
type pending struct {
	Product   types.ProductRecord `json:"pendingProduct"`
	Timestamp int64               `json:"pendingTimestamp"` // milliseconds since the epoch
}

func (s *Store) pendingKey() string {
	return s.key + ":pending"
}

// SetPendingProduct remembers record for the next TakePendingProduct call
func (s *Store) SetPendingProduct(ctx context.Context, record types.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(pending{Product: record, Timestamp: s.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("failed to encode pending product: %w", err)
	}
	if err := s.backend.Save(ctx, s.pendingKey(), raw); err != nil {
		return fmt.Errorf("failed to save pending product: %w", err)
	}
	return nil
}

// TakePendingProduct returns the pending record if it is younger than maxAge.
// The pending record is cleared either way; nil means nothing usable was waiting.
func (s *Store) TakePendingProduct(ctx context.Context, maxAge time.Duration) (*types.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.backend.Load(ctx, s.pendingKey())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending product: %w", err)
	}

	if err := s.backend.Delete(ctx, s.pendingKey()); err != nil {
		return nil, fmt.Errorf("failed to clear pending product: %w", err)
	}

	var p pending
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.WithFields(logrus.Fields{"error": err}).Warn("Discarding unreadable pending product")
		return nil, nil
	}

	age := s.now().Sub(time.UnixMilli(p.Timestamp))
	if age >= maxAge {
		s.logger.WithFields(logrus.Fields{"age": age}).Debug("Pending product expired")
		return nil, nil
	}
	return &p.Product, nil
}
