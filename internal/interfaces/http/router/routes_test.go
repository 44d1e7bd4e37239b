package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/apptest"
	appdynamic "github.com/heraerp/platform/internal/application/dynamicdata"
	appentity "github.com/heraerp/platform/internal/application/entity"
	appidentity "github.com/heraerp/platform/internal/application/identity"
	appledger "github.com/heraerp/platform/internal/application/ledger"
	apprel "github.com/heraerp/platform/internal/application/relationship"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/identity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/domain/shared"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/infrastructure/cache"
	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/heraerp/platform/internal/interfaces/http/handler"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type memberResolver struct {
	orgID uuid.UUID
}

func (r memberResolver) Introspect(_ context.Context, externalID string) (*appidentity.IntrospectionResponse, error) {
	if externalID != "idp|member" {
		return nil, shared.NewDomainError(shared.CodeNotFound, "no USER entity for subject")
	}
	return &appidentity.IntrospectionResponse{
		ExternalID: externalID,
		Introspection: identity.Introspection{
			UserEntityID:  apptest.Actor,
			Organizations: []identity.OrganizationAccess{{ID: r.orgID, Code: "SALON", PrimaryRole: "owner"}},
		},
	}, nil
}

type platform struct {
	*apptest.Harness
	jwt    *auth.JWTService
	orgID  uuid.UUID
	engine http.Handler
}

func newPlatform(t *testing.T, db handler.Pinger, limiter middleware.RateLimiter) *platform {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	h := apptest.New(t)
	p := &platform{
		Harness: h,
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:      "routes-test-secret-at-least-32-chars",
			Issuer:      "https://idp.test",
			Audience:    "authenticated",
			ServiceRole: "service_role",
		}),
	}
	p.orgID = h.CreateOrg(t, "Salon", "SALON")

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	rule := relationship.IdentityEdgeRule{PlatformOrganizationID: h.PlatformOrg, UserEntityType: entity.TypeUser}
	entities := appentity.NewService(h.EntityRepo, h.FieldRepo, h.RelRepo, h.RefCounter, h.Organizations, h.Runtime, appentity.Config{
		DeletePolicy:           entity.DefaultDeletePolicy(),
		PlatformOrganizationID: h.PlatformOrg,
	})
	identities := appidentity.NewService(h.EntityRepo, h.FieldRepo, h.RelRepo, h.OrgRepo, h.Organizations, rule, h.Runtime)

	engine, err := New(Config{
		ServiceName: "hera-platform-test",
		CORS:        middleware.DefaultCORSConfig(),
		Security:    middleware.DefaultSecurityConfig(),
		JWT:         p.jwt,
		Resolver:    memberResolver{orgID: p.orgID},
		RateLimiter: limiter,
	}, Handlers{
		Health:       handler.NewHealthHandler(db, "test"),
		Auth:         handler.NewAuthHandler(identities),
		Organization: handler.NewOrganizationHandler(h.Organizations),
		Entity:       handler.NewEntityHandler(entities),
		DynamicData:  handler.NewDynamicDataHandler(appdynamic.NewService(h.FieldRepo, h.EntityRepo, nil, h.Organizations, h.Runtime)),
		Relationship: handler.NewRelationshipHandler(apprel.NewService(h.RelRepo, h.EntityRepo, h.Organizations, rule, h.Runtime)),
		Transaction: handler.NewTransactionHandler(appledger.NewService(h.TxnRepo, h.EntityRepo, h.Organizations, store, h.Runtime, appledger.Config{
			Reconciliation: ledger.DefaultReconciliationPolicy(),
		})),
	})
	require.NoError(t, err)
	p.engine = engine
	return p
}

func (p *platform) token(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := p.jwt.GenerateToken(auth.GenerateTokenInput{Subject: subject, Role: role})
	require.NoError(t, err)
	return token
}

func (p *platform) call(t *testing.T, method, path, token string, headers ...string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	p.engine.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestNew_RequiresAuthDependencies(t *testing.T) {
	_, err := New(Config{}, Handlers{})
	assert.Error(t, err)

	_, err = New(Config{JWT: auth.NewJWTService(config.JWTConfig{Secret: "x"})}, Handlers{})
	assert.Error(t, err)
}

func TestNew_Health(t *testing.T) {
	p := newPlatform(t, pinger{}, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		w, resp := p.call(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, resp.Success, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
	}

	down := newPlatform(t, pinger{err: errors.New("connection refused")}, nil)
	w, _ := down.call(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNew_UnknownRoute(t *testing.T) {
	p := newPlatform(t, pinger{}, nil)

	w, resp := p.call(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRouteNotFound, resp.Error.Code)
}

func TestNew_Authentication(t *testing.T) {
	p := newPlatform(t, pinger{}, nil)
	entities := "/api/v1/orgs/" + p.orgID.String() + "/entities"

	t.Run("missing token", func(t *testing.T) {
		w, resp := p.call(t, http.MethodGet, entities, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, shared.CodeUnauthorized, resp.Error.Code)
	})

	t.Run("member lists entities", func(t *testing.T) {
		w, resp := p.call(t, http.MethodGet, entities, p.token(t, "idp|member", ""))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("unknown user", func(t *testing.T) {
		w, _ := p.call(t, http.MethodGet, entities, p.token(t, "idp|stranger", ""))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("member of another organization", func(t *testing.T) {
		other := "/api/v1/orgs/" + uuid.NewString() + "/entities"
		w, resp := p.call(t, http.MethodGet, other, p.token(t, "idp|member", ""))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, shared.CodeForbidden, resp.Error.Code)
	})

	t.Run("service routes reject users", func(t *testing.T) {
		w, _ := p.call(t, http.MethodGet, "/api/v1/organizations", p.token(t, "idp|member", ""))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("service role lists organizations", func(t *testing.T) {
		w, resp := p.call(t, http.MethodGet, "/api/v1/organizations", p.token(t, "svc", "service_role"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("service writes name an actor", func(t *testing.T) {
		w, resp := p.call(t, http.MethodPost, "/api/v1/onboard", p.token(t, "svc", "service_role"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, shared.CodeValidationFailure, resp.Error.Code)
	})

	t.Run("service role in organization scope", func(t *testing.T) {
		w, _ := p.call(t, http.MethodGet, entities, p.token(t, "svc", "service_role"),
			middleware.ActorHeader, apptest.Actor.String())
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestNew_RateLimit(t *testing.T) {
	p := newPlatform(t, pinger{}, cache.NewInMemoryRateLimiter(2, time.Minute))
	token := p.token(t, "idp|member", "")
	entities := "/api/v1/orgs/" + p.orgID.String() + "/entities"

	for i := 0; i < 2; i++ {
		w, _ := p.call(t, http.MethodGet, entities, token)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, resp := p.call(t, http.MethodGet, entities, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// health stays outside the limiter
	w, _ = p.call(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// a different subject has its own window
	w, _ = p.call(t, http.MethodGet, "/api/v1/organizations", p.token(t, "svc", "service_role"))
	assert.Equal(t, http.StatusOK, w.Code)
}
