package services

import (
	"context"
	"errors"
	"fmt"

	"bloom-portal/internal/builder"
	"bloom-portal/internal/fixtures"
	"bloom-portal/internal/logger"
	"bloom-portal/internal/models"
	"bloom-portal/internal/repositories"
)

// BuilderService keeps one server-side draft per service and publishes it
// through the portal. Concurrent editors of the same service overwrite
// each other.
type BuilderService struct {
	portal    *PortalService
	drafts    repositories.DraftRepository
	validator *models.ValidationService
	logger    *logger.Logger
}

// NewBuilderService creates a new builder service
func NewBuilderService(portal *PortalService, drafts repositories.DraftRepository, validator *models.ValidationService, log *logger.Logger) *BuilderService {
	return &BuilderService{
		portal:    portal,
		drafts:    drafts,
		validator: validator,
		logger:    log,
	}
}

// Open returns the stored draft of a service, starting one from the
// published tables and config when none exists.
func (s *BuilderService) Open(ctx context.Context, serviceID string) (*builder.Draft, error) {
	draft, err := s.drafts.Get(ctx, serviceID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, repositories.ErrDraftNotFound) {
		return nil, err
	}

	svc, err := s.portal.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, repositories.ErrServiceNotFound
	}
	tables, err := s.portal.GetServiceTables(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	published, err := s.portal.GetServiceConfiguration(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	draft = builder.NewDraft(serviceID, tables)
	if published != nil {
		draft.RestoreConfig(published.Config)
	}
	return draft, nil
}

// edit loads the draft, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *BuilderService) edit(ctx context.Context, serviceID string, fn func(d *builder.Draft) error) (*builder.Draft, error) {
	draft, err := s.Open(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// AddTable selects a table from the catalog
func (s *BuilderService) AddTable(ctx context.Context, serviceID, catalogID string) (*builder.Draft, error) {
	catalog, err := s.portal.ListTableCatalog(ctx)
	if err != nil {
		return nil, err
	}
	var entry *models.TableCatalogEntry
	for i := range catalog {
		if catalog[i].ID == catalogID {
			entry = &catalog[i]
			break
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", builder.ErrTableNotFound, catalogID)
	}

	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		_, err := d.AddTable(*entry)
		return err
	})
}

// RemoveTable drops a table from the draft
func (s *BuilderService) RemoveTable(ctx context.Context, serviceID, tableID string) (*builder.Draft, error) {
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		return d.RemoveTable(tableID)
	})
}

// ToggleField flips a field's visibility
func (s *BuilderService) ToggleField(ctx context.Context, serviceID, tableID, fieldID string) (*builder.Draft, error) {
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		_, err := d.ToggleFieldVisibility(tableID, fieldID)
		return err
	})
}

// AddFilter appends a filter to the draft
func (s *BuilderService) AddFilter(ctx context.Context, serviceID string, filter models.TableFilter) (*builder.Draft, error) {
	if filter.Operator != "" {
		if err := s.validator.ValidateStruct(filter); err != nil {
			return nil, err
		}
	}
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		d.AddFilter(filter)
		return nil
	})
}

// UpdateFilter changes a filter in place
func (s *BuilderService) UpdateFilter(ctx context.Context, serviceID, filterID string, update builder.FilterUpdate) (*builder.Draft, error) {
	if err := s.validator.ValidateStruct(update); err != nil {
		return nil, err
	}
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		_, err := d.UpdateFilter(filterID, update)
		return err
	})
}

// RemoveFilter drops a filter
func (s *BuilderService) RemoveFilter(ctx context.Context, serviceID, filterID string) (*builder.Draft, error) {
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		return d.RemoveFilter(filterID)
	})
}

// UpdateConfig merges component settings into the draft
func (s *BuilderService) UpdateConfig(ctx context.Context, serviceID string, update builder.ConfigUpdate) (*builder.Draft, error) {
	if err := s.validator.ValidateStruct(update); err != nil {
		return nil, err
	}
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		d.UpdateConfig(update)
		return nil
	})
}

// Reset restores the draft to the published tables and default settings
func (s *BuilderService) Reset(ctx context.Context, serviceID string) (*builder.Draft, error) {
	return s.edit(ctx, serviceID, func(d *builder.Draft) error {
		d.Reset()
		return nil
	})
}

// SaveDraft persists the current draft without publishing it
func (s *BuilderService) SaveDraft(ctx context.Context, serviceID string) (*builder.Draft, error) {
	return s.edit(ctx, serviceID, func(d *builder.Draft) error { return nil })
}

// Preview renders the draft against the sample rows
func (s *BuilderService) Preview(ctx context.Context, serviceID string) (*builder.Preview, error) {
	draft, err := s.Open(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	preview := draft.Preview(fixtures.SampleRows())
	return &preview, nil
}

// Publish saves the draft as the service's configuration. The draft is
// cleared only after the save succeeded and is kept otherwise.
func (s *BuilderService) Publish(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	draft, err := s.Open(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	payload := draft.Payload()
	if err := s.portal.SaveServiceConfiguration(ctx, serviceID, payload.Tables, payload.Config); err != nil {
		s.logger.WithService(serviceID).WithError(err).Warn("Publishing configuration failed; draft kept")
		return nil, err
	}

	if err := s.drafts.Delete(context.WithoutCancel(ctx), serviceID); err != nil {
		s.logger.WithService(serviceID).WithError(err).Warn("Configuration published but draft could not be cleared")
	}

	s.logger.WithService(serviceID).WithField("tables", len(payload.Tables)).Info("Configuration published")
	return &payload, nil
}
