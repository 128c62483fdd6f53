package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// ResourceService calls the /resources endpoints.
type ResourceService struct {
	client *api.Client
}

var _ Resources = (*ResourceService)(nil)

// NewResourceService creates a ResourceService.
func NewResourceService(client *api.Client) *ResourceService {
	return &ResourceService{client: client}
}

// List fetches resources of one type; the empty type lists all.
func (s *ResourceService) List(ctx context.Context, resourceType model.ResourceType) ([]model.Resource, error) {
	query := url.Values{"type": {string(resourceType)}}

	var list model.ResourceList
	if err := s.client.Get(ctx, "/resources/", query, &list); err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	return list.Resources, nil
}

func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("/resources/%d", id)); err != nil {
		return fmt.Errorf("deleting resource %d: %w", id, err)
	}
	return nil
}
