package search

import (
	"errors"

	"github.com/hyperjump/vitrine/internal/models"
)

// ProcessQuery validates and applies defaults to the search query.
func ProcessQuery(query *models.SearchQuery, cfg *Config) error {
	if query == nil {
		return errors.New("query is required")
	}
	return query.Validate(cfg.PageSize, cfg.MaxPageSize)
}
