package model

import "time"

// ResourceType is the closed set of hospital resource kinds.
type ResourceType string

const (
	ResourceBed              ResourceType = "bed"
	ResourceOperationTheatre ResourceType = "operation_theatre"
	ResourceMachine          ResourceType = "machine"
)

// ResourceTypeFilters is the cycle order of the resource type filter.
// The empty value means "all types".
var ResourceTypeFilters = []ResourceType{"", ResourceBed, ResourceOperationTheatre, ResourceMachine}

// Label returns a human-readable name for the type.
func (t ResourceType) Label() string {
	switch t {
	case ResourceBed:
		return "Bed"
	case ResourceOperationTheatre:
		return "Operation theatre"
	case ResourceMachine:
		return "Machine"
	default:
		return "All types"
	}
}

// ResourceStatus is the availability of a resource.
type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "available"
	ResourceOccupied    ResourceStatus = "occupied"
	ResourceMaintenance ResourceStatus = "maintenance"
)

// Resource is a bed, operation theatre or machine.
type Resource struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Type        ResourceType   `json:"type"`
	Status      ResourceStatus `json:"status"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ResourceList is the response of the resource list endpoint.
type ResourceList struct {
	Resources []Resource `json:"resources"`
}
