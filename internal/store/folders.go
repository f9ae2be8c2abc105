package store

import (
	"context"
	"strings"

	"benchmarkbox/internal/types"
)

// NewFolder describes a folder to create
type NewFolder struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// FolderUpdate lists the folder fields to change; nil fields are left alone
type FolderUpdate struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

// Folders returns every folder
func (s *Store) Folders(ctx context.Context) ([]types.Folder, error) {
	var folders []types.Folder
	err := s.view(ctx, func(data *types.StoreData) error {
		folders = data.Folders
		return nil
	})
	return folders, err
}

// Folder returns the folder with the given id
func (s *Store) Folder(ctx context.Context, id string) (*types.Folder, error) {
	var folder *types.Folder
	err := s.view(ctx, func(data *types.StoreData) error {
		i := folderIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		folder = &data.Folders[i]
		return nil
	})
	return folder, err
}

// CreateFolder adds a folder
func (s *Store) CreateFolder(ctx context.Context, in NewFolder) (*types.Folder, error) {
	folder := types.Folder{
		ID:          s.newID(),
		Name:        strings.TrimSpace(in.Name),
		Color:       in.Color,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if folder.Color == "" {
		folder.Color = defaultColor
	}

	err := s.update(ctx, func(data *types.StoreData) error {
		data.Folders = append(data.Folders, folder)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder changes a folder. The system folder cannot be renamed.
func (s *Store) UpdateFolder(ctx context.Context, id string, update FolderUpdate) (*types.Folder, error) {
	var folder types.Folder
	err := s.update(ctx, func(data *types.StoreData) error {
		i := folderIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}

		f := &data.Folders[i]
		if update.Name != nil && !f.IsSystem {
			f.Name = *update.Name
		}
		if update.Color != nil {
			f.Color = *update.Color
		}
		if update.Description != nil {
			f.Description = *update.Description
		}
		folder = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder removes a folder after moving its products to moveTo, or to the
// unclassified folder when moveTo is empty.
func (s *Store) DeleteFolder(ctx context.Context, id, moveTo string) error {
	if moveTo == "" {
		moveTo = UnclassifiedFolderID
	}

	return s.update(ctx, func(data *types.StoreData) error {
		i := folderIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		if data.Folders[i].IsSystem {
			return ErrSystemFolder
		}

		for j := range data.Products {
			if data.Products[j].FolderID == id {
				data.Products[j].FolderID = moveTo
			}
		}

		data.Folders = append(data.Folders[:i], data.Folders[i+1:]...)

		if data.Settings.DefaultFolderID == id {
			data.Settings.DefaultFolderID = UnclassifiedFolderID
			if k := folderIndex(data, UnclassifiedFolderID); k >= 0 {
				data.Folders[k].IsDefault = true
			}
		}
		return nil
	})
}

// SetDefaultFolder makes id the folder new products land in
func (s *Store) SetDefaultFolder(ctx context.Context, id string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		if folderIndex(data, id) < 0 {
			return ErrNotFound
		}
		for i := range data.Folders {
			data.Folders[i].IsDefault = data.Folders[i].ID == id
		}
		data.Settings.DefaultFolderID = id
		return nil
	})
}

// DefaultFolder returns the default folder, or the first folder if the
// configured default no longer exists.
func (s *Store) DefaultFolder(ctx context.Context) (*types.Folder, error) {
	var folder *types.Folder
	err := s.view(ctx, func(data *types.StoreData) error {
		if i := folderIndex(data, data.Settings.DefaultFolderID); i >= 0 {
			folder = &data.Folders[i]
			return nil
		}
		if len(data.Folders) == 0 {
			return ErrNotFound
		}
		folder = &data.Folders[0]
		return nil
	})
	return folder, err
}

// ProductCountByFolder counts the products filed in a folder
func (s *Store) ProductCountByFolder(ctx context.Context, folderID string) (int, error) {
	count := 0
	err := s.view(ctx, func(data *types.StoreData) error {
		for _, p := range data.Products {
			if p.FolderID == folderID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func folderIndex(data *types.StoreData, id string) int {
	for i, f := range data.Folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// NewTag describes a tag to create
type NewTag struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// TagUpdate lists the tag fields to change; nil fields are left alone
type TagUpdate struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// Tags returns every tag
func (s *Store) Tags(ctx context.Context) ([]types.Tag, error) {
	var tags []types.Tag
	err := s.view(ctx, func(data *types.StoreData) error {
		tags = data.Tags
		return nil
	})
	return tags, err
}

// Tag returns the tag with the given id
func (s *Store) Tag(ctx context.Context, id string) (*types.Tag, error) {
	var tag *types.Tag
	err := s.view(ctx, func(data *types.StoreData) error {
		i := tagIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		tag = &data.Tags[i]
		return nil
	})
	return tag, err
}

// CreateTag adds a tag, or returns the existing tag with the same name
// compared case-insensitively.
func (s *Store) CreateTag(ctx context.Context, in NewTag) (*types.Tag, error) {
	name := strings.TrimSpace(in.Name)

	var tag types.Tag
	err := s.update(ctx, func(data *types.StoreData) error {
		for _, t := range data.Tags {
			if strings.EqualFold(t.Name, name) {
				tag = t
				return nil
			}
		}

		tag = types.Tag{ID: s.newID(), Name: name, Color: in.Color}
		if tag.Color == "" {
			tag.Color = defaultColor
		}
		data.Tags = append(data.Tags, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// UpdateTag changes a tag
func (s *Store) UpdateTag(ctx context.Context, id string, update TagUpdate) (*types.Tag, error) {
	var tag types.Tag
	err := s.update(ctx, func(data *types.StoreData) error {
		i := tagIndex(data, id)
		if i < 0 {
			return ErrNotFound
		}
		if update.Name != nil {
			data.Tags[i].Name = *update.Name
		}
		if update.Color != nil {
			data.Tags[i].Color = *update.Color
		}
		tag = data.Tags[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag removes a tag and detaches it from every product
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	return s.update(ctx, func(data *types.StoreData) error {
		for i := range data.Products {
			data.Products[i].TagIDs = without(data.Products[i].TagIDs, id)
		}

		if i := tagIndex(data, id); i >= 0 {
			data.Tags = append(data.Tags[:i], data.Tags[i+1:]...)
		}
		return nil
	})
}

func tagIndex(data *types.StoreData, id string) int {
	for i, t := range data.Tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// without returns ids minus every occurrence of id
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
