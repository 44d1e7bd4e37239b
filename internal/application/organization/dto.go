package organization

import (
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/organization"
)

// CreateOrganizationRequest provisions a tenant
type CreateOrganizationRequest struct {
	Name      string         `json:"organization_name" binding:"required,min=1,max=200"`
	Code      string         `json:"organization_code" binding:"required,min=1,max=50"`
	SmartCode string         `json:"smart_code" binding:"omitempty,smartcode"`
	Settings  map[string]any `json:"settings"`
}

// UpdateSettingsRequest replaces the settings document
type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
}

// ListOrganizationsRequest filters the organization listing
type ListOrganizationsRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=active inactive"`
	Search string `form:"search" binding:"max=100"`
	Limit  int    `form:"limit" binding:"min=0,max=1000"`
	Offset int    `form:"offset" binding:"min=0"`
}

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"organization_name"`
	Code      string         `json:"organization_code"`
	Status    string         `json:"status"`
	SmartCode string         `json:"smart_code"`
	Settings  map[string]any `json:"settings"`
	Apps      []string       `json:"apps"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	CreatedBy uuid.UUID      `json:"created_by"`
	UpdatedBy uuid.UUID      `json:"updated_by"`
	Version   int            `json:"version"`
}

// ToOrganizationResponse converts a domain Organization to a response
func ToOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Code:      o.Code,
		Status:    string(o.Status),
		SmartCode: o.SmartCode,
		Settings:  o.Settings,
		Apps:      o.Apps(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
		CreatedBy: o.CreatedBy,
		UpdatedBy: o.UpdatedBy,
		Version:   o.Version,
	}
}

// ToOrganizationResponses converts a slice of organizations
func ToOrganizationResponses(orgs []organization.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, len(orgs))
	for i := range orgs {
		out[i] = ToOrganizationResponse(&orgs[i])
	}
	return out
}
