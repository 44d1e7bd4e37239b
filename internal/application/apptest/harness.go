// Package apptest wires application services over a throwaway SQLite
// database for service tests.
package apptest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/organization"
	"github.com/heraerp/platform/internal/application/procedure"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/persistence"
	"github.com/heraerp/platform/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlatformOrgID is the platform organization used by harnesses
var PlatformOrgID = uuid.Nil

// Actor is the default acting user entity
var Actor = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// Publisher records published events
type Publisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish implements shared.EventPublisher
func (p *Publisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Types lists the published event types in order
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// Reset forgets recorded events
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// Harness holds the shared wiring of a service test
type Harness struct {
	DB            *gorm.DB
	Runtime       *procedure.Runtime
	Events        *Publisher
	Organizations *organization.Service

	OrgRepo     *persistence.GormOrganizationRepository
	EntityRepo  *persistence.GormEntityRepository
	FieldRepo   *persistence.GormDynamicDataRepository
	RelRepo     *persistence.GormRelationshipRepository
	TxnRepo     *persistence.GormTransactionRepository
	RefCounter  *persistence.GormReferenceCounter
	UnitOfWork  *persistence.GormUnitOfWork
	PlatformOrg uuid.UUID
}

// New builds a harness on a fresh database
func New(t testing.TB) *Harness {
	t.Helper()
	db := persistencetest.NewDB(t)
	require.NoError(t, persistence.RegisterOrganizationGuard(db))
	h := &Harness{
		DB:          db,
		Events:      &Publisher{},
		OrgRepo:     persistence.NewGormOrganizationRepository(db),
		EntityRepo:  persistence.NewGormEntityRepository(db),
		FieldRepo:   persistence.NewGormDynamicDataRepository(db),
		RelRepo:     persistence.NewGormRelationshipRepository(db),
		TxnRepo:     persistence.NewGormTransactionRepository(db),
		RefCounter:  persistence.NewGormReferenceCounter(db),
		UnitOfWork:  persistence.NewGormUnitOfWork(db),
		PlatformOrg: PlatformOrgID,
	}
	h.Runtime = procedure.NewRuntime(h.UnitOfWork, zap.NewNop(), procedure.WithEventPublisher(h.Events))
	h.Organizations = organization.NewService(h.OrgRepo, h.EntityRepo, h.Runtime, PlatformOrgID)
	return h
}

// CreateOrg provisions an active organization and returns its id
func (h *Harness) CreateOrg(t testing.TB, name, code string) uuid.UUID {
	t.Helper()
	resp, err := h.Organizations.Create(context.Background(), organization.CreateOrganizationRequest{
		Name: name,
		Code: code,
	}, Actor)
	require.NoError(t, err)
	h.Events.Reset()
	return resp.ID
}
