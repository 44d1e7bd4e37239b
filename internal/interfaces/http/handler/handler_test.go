package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/heraerp/platform/internal/application/apptest"
	appdynamic "github.com/heraerp/platform/internal/application/dynamicdata"
	appentity "github.com/heraerp/platform/internal/application/entity"
	appidentity "github.com/heraerp/platform/internal/application/identity"
	appledger "github.com/heraerp/platform/internal/application/ledger"
	apprel "github.com/heraerp/platform/internal/application/relationship"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/infrastructure/cache"
	"github.com/heraerp/platform/internal/interfaces/http/dto"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
)

const (
	customerSmartCode = "HERA.SALON.CUSTOMER.ENTITY.PERSON.v1"
	emailSmartCode    = "HERA.SALON.CUSTOMER.FIELD.EMAIL.v1"
	referralSmartCode = "HERA.SALON.CUSTOMER.REL.REFERRAL.v1"
	saleSmartCode     = "HERA.SALON.POS.TXN.SALE.v1"
	serviceLine       = "HERA.SALON.POS.LINE.SERVICE.v1"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer mounts the handlers over a throwaway database. The
// organization and actor come from the path and a fixed user, standing in
// for the JWT and OrganizationScope middleware.
type testServer struct {
	*apptest.Harness
	router  *gin.Engine
	orgID   uuid.UUID
	subject string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	h := apptest.New(t)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	rule := relationship.IdentityEdgeRule{PlatformOrganizationID: h.PlatformOrg, UserEntityType: entity.TypeUser}
	entities := appentity.NewService(h.EntityRepo, h.FieldRepo, h.RelRepo, h.RefCounter, h.Organizations, h.Runtime, appentity.Config{
		DeletePolicy:           entity.DefaultDeletePolicy(),
		PlatformOrganizationID: h.PlatformOrg,
	})
	fields := appdynamic.NewService(h.FieldRepo, h.EntityRepo, nil, h.Organizations, h.Runtime)
	rels := apprel.NewService(h.RelRepo, h.EntityRepo, h.Organizations, rule, h.Runtime)
	txns := appledger.NewService(h.TxnRepo, h.EntityRepo, h.Organizations, store, h.Runtime, appledger.Config{
		Reconciliation: ledger.DefaultReconciliationPolicy(),
	})
	identities := appidentity.NewService(h.EntityRepo, h.FieldRepo, h.RelRepo, h.OrgRepo, h.Organizations, rule, h.Runtime)

	s := &testServer{Harness: h, subject: "auth0|tester"}
	s.orgID = h.CreateOrg(t, "Hair Talkz", "HAIRTALKZ")

	router := gin.New()
	router.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{RegisteredClaims: jwtClaims(s.subject)})
		c.Set(middleware.ActorIDKey, apptest.Actor)
		c.Next()
	})

	authH := NewAuthHandler(identities)
	router.GET("/auth/introspect", authH.Introspect)
	router.POST("/onboard", authH.Onboard)

	orgH := NewOrganizationHandler(h.Organizations)
	router.POST("/organizations", orgH.Create)
	router.GET("/organizations", orgH.List)
	router.GET("/organizations/:org_id", orgH.GetByID)
	router.PATCH("/organizations/:org_id/settings", orgH.UpdateSettings)
	router.POST("/organizations/:org_id/deactivate", orgH.Deactivate)

	scoped := router.Group("/orgs/:org_id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param(middleware.OrganizationParam))
		require.NoError(t, err)
		c.Set(middleware.OrganizationIDKey, id)
		c.Next()
	})
	entityH := NewEntityHandler(entities)
	scoped.POST("/entities", entityH.Upsert)
	scoped.GET("/entities", entityH.List)
	scoped.POST("/entities/search", entityH.Search)
	scoped.GET("/entities/:id", entityH.GetByID)
	scoped.DELETE("/entities/:id", entityH.Delete)
	scoped.POST("/entities/:id/archive", entityH.Archive)
	scoped.POST("/entities/:id/recover", entityH.Recover)

	fieldH := NewDynamicDataHandler(fields)
	scoped.PUT("/entities/:id/fields", fieldH.SetFields)
	scoped.GET("/entities/:id/fields", fieldH.GetFields)
	scoped.POST("/dynamic-data/delete", fieldH.Delete)
	scoped.POST("/dynamic-data/batch-delete", fieldH.BatchDelete)

	relH := NewRelationshipHandler(rels)
	scoped.POST("/relationships", relH.Create)
	scoped.GET("/relationships", relH.List)
	scoped.GET("/relationships/:id", relH.GetByID)
	scoped.POST("/relationships/:id/deactivate", relH.Deactivate)
	scoped.DELETE("/relationships/:id", relH.Delete)

	txnH := NewTransactionHandler(txns)
	scoped.POST("/transactions", txnH.Create)
	scoped.GET("/transactions", txnH.List)
	scoped.POST("/transactions/crud", txnH.Crud)
	scoped.GET("/transactions/:id", txnH.GetByID)
	scoped.PATCH("/transactions/:id", txnH.Update)
	scoped.POST("/transactions/:id/reverse", txnH.Reverse)

	s.router = router
	return s
}

func (s *testServer) orgPath(path string) string {
	return "/orgs/" + s.orgID.String() + path
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

// decode re-marshals resp.Data into dst
func decode(t *testing.T, data any, dst any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func (s *testServer) createCustomer(t *testing.T, name, code string) uuid.UUID {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, s.orgPath("/entities"), gin.H{
		"entity_type": "CUSTOMER",
		"entity_name": name,
		"entity_code": code,
		"smart_code":  customerSmartCode,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID uuid.UUID `json:"id"`
	}
	decode(t, resp.Data, &out)
	return out.ID
}

func jwtClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: subject}
}
