package categories

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"khazana/internal/models"
	"khazana/internal/services/storage"
)

// Store holds one user's custom categories
type Store struct {
	ns  *storage.Namespace
	mu  sync.Mutex
	now func() time.Time

	// cache of the last loaded list, used by Icon
	cached []models.Category
}

// New creates a category store
func New(ns *storage.Namespace, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{ns: ns, now: now}
}

// List returns the custom categories in creation order
func (s *Store) List(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if _, err := s.ns.GetJSON(ctx, storage.KeyCategories, &cats); err != nil {
		if models.IsParse(err) {
			cats = nil
		} else {
			return nil, fmt.Errorf("load categories: %w", err)
		}
	}
	if cats == nil {
		cats = []models.Category{}
	}
	s.cached = cats
	return cats, nil
}

// Add creates a custom category. Names are unique and case-sensitive.
// The type defaults to expense and the icon to DefaultIcon.
func (s *Store) Add(ctx context.Context, name string, typ models.CategoryType, icon string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, models.Invalid("name", "category name is required")
	}
	if typ == "" {
		typ = models.CategoryExpense
	}
	if typ != models.CategoryExpense && typ != models.CategoryIncome {
		return models.Category{}, models.Invalid("type", "category type must be income or expense")
	}
	if strings.TrimSpace(icon) == "" {
		icon = models.DefaultIcon
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.load(ctx)
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range cats {
		if c.Name == name {
			return models.Category{}, models.Invalid("name", "category %q already exists", name)
		}
	}

	cat := models.Category{Name: name, Type: typ, Icon: icon, CreatedAt: s.now().UTC()}
	cats = append(cats, cat)
	if err := s.ns.PutJSON(ctx, storage.KeyCategories, cats); err != nil {
		return models.Category{}, err
	}
	s.cached = cats
	return cat, nil
}

// ReplaceAll overwrites the custom categories (restore)
func (s *Store) ReplaceAll(ctx context.Context, cats []models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cats == nil {
		cats = []models.Category{}
	}
	if err := s.ns.PutJSON(ctx, storage.KeyCategories, cats); err != nil {
		return err
	}
	s.cached = cats
	return nil
}

// Icon resolves the display icon of a category: custom icon, then the
// built-in table, then DefaultIcon. It uses the last loaded list.
func (s *Store) Icon(name string) string {
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()
	return IconFor(name, cached)
}

// IconFor resolves an icon against an explicit list of custom categories
func IconFor(name string, custom []models.Category) string {
	for _, c := range custom {
		if c.Name == name && c.Icon != "" {
			return c.Icon
		}
	}
	if icon, ok := models.BuiltinIcons[name]; ok {
		return icon
	}
	return models.DefaultIcon
}
