package service

import (
	"context"
	"fmt"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// HospitalService calls the /hospital endpoint. A 404 from Get means no
// hospital record exists yet; callers check it with api.IsNotFound.
type HospitalService struct {
	client *api.Client
}

var _ Hospitals = (*HospitalService)(nil)

// NewHospitalService creates a HospitalService.
func NewHospitalService(client *api.Client) *HospitalService {
	return &HospitalService{client: client}
}

func (s *HospitalService) Get(ctx context.Context) (*model.Hospital, error) {
	var h model.Hospital
	if err := s.client.Get(ctx, "/hospital/", nil, &h); err != nil {
		return nil, fmt.Errorf("fetching hospital: %w", err)
	}
	return &h, nil
}

func (s *HospitalService) Create(ctx context.Context, h model.Hospital) (*model.Hospital, error) {
	var created model.Hospital
	if err := s.client.Post(ctx, "/hospital/", h, &created); err != nil {
		return nil, fmt.Errorf("creating hospital: %w", err)
	}
	return &created, nil
}

func (s *HospitalService) Update(ctx context.Context, h model.Hospital) (*model.Hospital, error) {
	var updated model.Hospital
	if err := s.client.Put(ctx, "/hospital/", h, &updated); err != nil {
		return nil, fmt.Errorf("updating hospital: %w", err)
	}
	return &updated, nil
}
