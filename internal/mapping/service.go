package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/finboard-hq/finboard/internal/coa"
	"github.com/finboard-hq/finboard/internal/platform/store"
)

const mappingKey = "mapping"

// ErrInvalidRow indicates an upload row failed boundary validation.
var ErrInvalidRow = errors.New("mapping: invalid upload row")

// Service persists learned source-to-CoA mappings per company and runs the
// resolution pipeline.
type Service struct {
	store    store.Store
	coa      *coa.Service
	validate *validator.Validate
}

// NewService constructs the mapping service.
func NewService(st store.Store, coaSvc *coa.Service) *Service {
	return &Service{store: st, coa: coaSvc, validate: validator.New()}
}

// Saved returns the learned mapping for a company, empty when none exists.
func (s *Service) Saved(ctx context.Context, companyID string) (map[string]string, error) {
	doc, err := s.store.Get(ctx, companyID, store.CollectionMappings, mappingKey)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var mapping map[string]string
	if err := json.Unmarshal(doc, &mapping); err != nil {
		return nil, fmt.Errorf("mapping: decode: %w", err)
	}
	return mapping, nil
}

// Save merges the given pairs into the company's learned mapping. Learned
// pairs survive across uploads, so a manual selection is only ever made once.
func (s *Service) Save(ctx context.Context, companyID string, mapping map[string]string) error {
	return s.store.Update(ctx, companyID, store.CollectionMappings, mappingKey, func(current []byte) ([]byte, error) {
		merged := make(map[string]string)
		if current != nil {
			if err := json.Unmarshal(current, &merged); err != nil {
				return nil, fmt.Errorf("mapping: decode: %w", err)
			}
		}
		for source, target := range mapping {
			merged[source] = target
		}
		return json.Marshal(merged)
	})
}

// ResolveRows validates the rows and maps them against the company's CoA,
// honouring previously learned mappings.
func (s *Service) ResolveRows(ctx context.Context, companyID string, rows []RawAccountRow) (Resolution, error) {
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			return Resolution{}, fmt.Errorf("%w: row %d: %v", ErrInvalidRow, i, err)
		}
	}
	accounts, err := s.coa.List(ctx, companyID)
	if err != nil {
		return Resolution{}, err
	}
	learned, err := s.Saved(ctx, companyID)
	if err != nil {
		return Resolution{}, err
	}
	return Resolve(rows, accounts, learned), nil
}
