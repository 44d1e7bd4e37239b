package organization

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/domain/smartcode"
)

// AggregateType for organization events
const AggregateType = "Organization"

// DefaultPlatformOrganizationID is the reserved sentinel organization that
// holds cross-tenant identity objects such as USER entities.
var DefaultPlatformOrganizationID = uuid.Nil

// Smart codes stamped on rows the platform creates itself
const (
	SmartCodeTenant    = "HERA.PLATFORM.ORG.ENTITY.TENANT.v1"
	SmartCodeOrgEntity = "HERA.PLATFORM.ORG.ENTITY.PROFILE.v1"
)

// Status represents the organization status
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Organization is the tenant root. It is never deleted, only deactivated.
type Organization struct {
	shared.BaseAggregateRoot
	Name      string
	Code      string
	Status    Status
	Settings  map[string]any
	SmartCode string
}

// NewOrganization creates a new active organization
func NewOrganization(name, code, smartCode string, settings map[string]any, actor uuid.UUID) (*Organization, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))
	if name == "" {
		return nil, shared.NewValidationError("organization_name is required")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("organization_name cannot exceed 200 characters")
	}
	if code == "" {
		return nil, shared.NewValidationError("organization_code is required")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("organization_code cannot exceed 50 characters")
	}
	if err := smartcode.Validate(smartCode); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = map[string]any{}
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(actor),
		Name:              name,
		Code:              code,
		Status:            StatusActive,
		Settings:          settings,
		SmartCode:         smartCode,
	}
	org.AddDomainEvent(NewCreatedEvent(org, actor))
	return org, nil
}

// IsActive reports whether procedures may write into this organization
func (o *Organization) IsActive() bool {
	return o.Status == StatusActive
}

// Deactivate soft-deactivates the organization
func (o *Organization) Deactivate(actor uuid.UUID) error {
	if o.Status == StatusInactive {
		return shared.NewDomainError(shared.CodeInvalidState, "organization is already inactive")
	}
	o.Status = StatusInactive
	o.Touch(actor)
	o.IncrementVersion()
	return nil
}

// ReplaceSettings swaps the settings document
func (o *Organization) ReplaceSettings(settings map[string]any, actor uuid.UUID) {
	if settings == nil {
		settings = map[string]any{}
	}
	o.Settings = settings
	o.Touch(actor)
	o.IncrementVersion()
}

// Apps returns the app/feature entitlements listed under settings.apps.
// Entries may be plain strings or objects with a "code" key. The result is
// sorted and free of duplicates.
func (o *Organization) Apps() []string {
	return AppsFromSettings(o.Settings)
}

// AppsFromSettings extracts entitlements from a settings document.
func AppsFromSettings(settings map[string]any) []string {
	raw, ok := settings["apps"]
	if !ok {
		return []string{}
	}
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}

	seen := make(map[string]struct{}, len(items))
	apps := make([]string, 0, len(items))
	add := func(code string) {
		code = strings.TrimSpace(code)
		if code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		apps = append(apps, code)
	}

	for _, item := range items {
		switch v := item.(type) {
		case string:
			add(v)
		case map[string]any:
			if enabled, ok := v["enabled"].(bool); ok && !enabled {
				continue
			}
			if code, ok := v["code"].(string); ok {
				add(code)
			}
		}
	}
	sort.Strings(apps)
	return apps
}
