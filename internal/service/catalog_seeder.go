package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/domain"
)

var ErrInvalidCatalog = errors.New("invalid catalog file")

type catalogFile struct {
	Restaurants map[string]domain.RestaurantDocument `json:"restaurants"`
}

// CatalogSeeder loads restaurant catalogs from YAML files into the document
// tree.
type CatalogSeeder struct {
	docs *DocumentService
}

func NewCatalogSeeder(docs *DocumentService) *CatalogSeeder {
	return &CatalogSeeder{docs: docs}
}

// ParseCatalog validates a YAML catalog and returns its entries by key.
func ParseCatalog(data []byte) (map[string]domain.RestaurantDocument, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if len(file.Restaurants) == 0 {
		return nil, fmt.Errorf("%w: no restaurants", ErrInvalidCatalog)
	}
	for id, r := range file.Restaurants {
		switch {
		case !doctree.ValidKey(id):
			return nil, fmt.Errorf("%w: illegal key %q", ErrInvalidCatalog, id)
		case strings.TrimSpace(r.Name) == "":
			return nil, fmt.Errorf("%w: %s has no name", ErrInvalidCatalog, id)
		case r.LikesCount < 0:
			return nil, fmt.Errorf("%w: %s has negative likesCount", ErrInvalidCatalog, id)
		}
	}
	return file.Restaurants, nil
}

// Load writes the catalog in data. With replace the whole restaurants subtree
// is overwritten; otherwise only the listed entries are.
func (s *CatalogSeeder) Load(ctx context.Context, data []byte, replace bool) ([]string, error) {
	entries, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if replace {
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		if err := s.docs.Seed(ctx, RestaurantsRoot, raw); err != nil {
			return nil, err
		}
		return ids, nil
	}

	for _, id := range ids {
		raw, err := json.Marshal(entries[id])
		if err != nil {
			return nil, err
		}
		if err := s.docs.Seed(ctx, doctree.Join(RestaurantsRoot, id), raw); err != nil {
			return nil, fmt.Errorf("seed %s: %w", id, err)
		}
	}
	return ids, nil
}
