package management

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// Default page parameters for user listings.
const (
	DefaultPage     = 0
	DefaultPageSize = 10
)

func segment(id string) string {
	return "/" + url.PathEscape(id)
}

// UsersService manages console users.
type UsersService struct{ c *Client }

// List fetches one page of users. A negative page or non-positive size falls
// back to the defaults.
func (s *UsersService) List(ctx context.Context, page, size int) (json.RawMessage, error) {
	if page < 0 {
		page = DefaultPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return s.c.do(ctx, "fetch users", http.MethodGet, s.c.protectedURL("/users", q), nil)
}

func (s *UsersService) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch user details", http.MethodGet, s.c.protectedURL("/users"+segment(id), nil), nil)
}

func (s *UsersService) Create(ctx context.Context, user any) (json.RawMessage, error) {
	return s.c.do(ctx, "create user", http.MethodPost, s.c.protectedURL("/users", nil), user)
}

func (s *UsersService) Update(ctx context.Context, id string, user any) (json.RawMessage, error) {
	return s.c.do(ctx, "update user", http.MethodPut, s.c.protectedURL("/users"+segment(id), nil), user)
}

func (s *UsersService) Delete(ctx context.Context, id string) error {
	_, err := s.c.do(ctx, "delete user", http.MethodDelete, s.c.protectedURL("/users"+segment(id), nil), nil)
	return err
}

// RolesService manages roles and their assignment.
type RolesService struct{ c *Client }

func (s *RolesService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch roles", http.MethodGet, s.c.protectedURL("/roles", nil), nil)
}

func (s *RolesService) Create(ctx context.Context, role any) (json.RawMessage, error) {
	return s.c.do(ctx, "create role", http.MethodPost, s.c.protectedURL("/roles", nil), role)
}

func (s *RolesService) Update(ctx context.Context, id string, role any) (json.RawMessage, error) {
	return s.c.do(ctx, "update role", http.MethodPut, s.c.protectedURL("/roles"+segment(id), nil), role)
}

func (s *RolesService) Delete(ctx context.Context, id string) error {
	_, err := s.c.do(ctx, "delete role", http.MethodDelete, s.c.protectedURL("/roles"+segment(id), nil), nil)
	return err
}

// Assign posts the role names for username.
func (s *RolesService) Assign(ctx context.Context, username string, roles []string) (json.RawMessage, error) {
	if roles == nil {
		roles = []string{}
	}
	return s.c.do(ctx, "assign roles", http.MethodPost, s.c.protectedURL("/roles"+segment(username)+"/assign", nil), roles)
}

// PermissionsService manages the permission catalog.
type PermissionsService struct{ c *Client }

func (s *PermissionsService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch permissions", http.MethodGet, s.c.protectedURL("/permissions", nil), nil)
}

func (s *PermissionsService) Create(ctx context.Context, permission any) (json.RawMessage, error) {
	return s.c.do(ctx, "create permission", http.MethodPost, s.c.protectedURL("/permissions", nil), permission)
}

func (s *PermissionsService) Update(ctx context.Context, id string, permission any) (json.RawMessage, error) {
	return s.c.do(ctx, "update permission", http.MethodPut, s.c.protectedURL("/permissions"+segment(id), nil), permission)
}

// ProductTypesService manages product types.
type ProductTypesService struct{ c *Client }

func (s *ProductTypesService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch product types", http.MethodGet, s.c.managementURL("/product-types", nil), nil)
}

func (s *ProductTypesService) Create(ctx context.Context, productType any) (json.RawMessage, error) {
	return s.c.do(ctx, "create product type", http.MethodPost, s.c.managementURL("/product-types", nil), productType)
}

// ProductsService manages products.
type ProductsService struct{ c *Client }

func (s *ProductsService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch products", http.MethodGet, s.c.managementURL("/products", nil), nil)
}

// Create posts a product. withTraceability asks the server to register it
// for supply-chain tracing as well.
func (s *ProductsService) Create(ctx context.Context, product any, withTraceability bool) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("withTraceability", strconv.FormatBool(withTraceability))
	return s.c.do(ctx, "create product", http.MethodPost, s.c.managementURL("/products", q), product)
}

// AggregationCentersService manages aggregation centers.
type AggregationCentersService struct{ c *Client }

func (s *AggregationCentersService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch aggregation centers", http.MethodGet, s.c.managementURL("/aggregation-centers", nil), nil)
}

func (s *AggregationCentersService) Create(ctx context.Context, center any) (json.RawMessage, error) {
	return s.c.do(ctx, "create aggregation center", http.MethodPost, s.c.managementURL("/aggregation-centers", nil), center)
}

// FarmersService manages farmers.
type FarmersService struct{ c *Client }

func (s *FarmersService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch farmers", http.MethodGet, s.c.managementURL("/farmers", nil), nil)
}

func (s *FarmersService) Create(ctx context.Context, farmer any) (json.RawMessage, error) {
	return s.c.do(ctx, "create farmer", http.MethodPost, s.c.managementURL("/farmers", nil), farmer)
}

// GeoLocationsService manages the location hierarchy.
type GeoLocationsService struct{ c *Client }

// ListByParent fetches the children of parentID. An empty parentID asks for
// the top level.
func (s *GeoLocationsService) ListByParent(ctx context.Context, parentID string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("parentId", parentID)
	return s.c.do(ctx, "fetch geo locations", http.MethodGet, s.c.managementURL("/locations/by-parent", q), nil)
}

func (s *GeoLocationsService) Create(ctx context.Context, location any) (json.RawMessage, error) {
	return s.c.do(ctx, "create geo location", http.MethodPost, s.c.managementURL("/locations", nil), location)
}

// SmartContractsService manages smart contracts.
type SmartContractsService struct{ c *Client }

func (s *SmartContractsService) List(ctx context.Context) (json.RawMessage, error) {
	return s.c.do(ctx, "fetch smart contracts", http.MethodGet, s.c.managementURL("/smart-contracts", nil), nil)
}

func (s *SmartContractsService) Create(ctx context.Context, contract any) (json.RawMessage, error) {
	return s.c.do(ctx, "create smart contract", http.MethodPost, s.c.managementURL("/smart-contracts", nil), contract)
}

type statusUpdate struct {
	Status string `json:"status"`
}

func (s *SmartContractsService) UpdateStatus(ctx context.Context, id, status string) (json.RawMessage, error) {
	return s.c.do(ctx, "update smart contract status", http.MethodPatch, s.c.managementURL("/smart-contracts"+segment(id), nil), statusUpdate{Status: status})
}
