package fixtures

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/apiclient"
)

// Entity types of the built-in factories.
const (
	TypeUser    = "user"
	TypeProduct = "product"
	TypeOrder   = "order"
)

const (
	UsersPath    = "/api/users"
	ProductsPath = "/api/products"
	OrdersPath   = "/api/orders"

	DefaultPassword = "Password123!"
)

// OrderScenario is a user with some products and one order for all of them.
type OrderScenario struct {
	User     *Entity
	Products []*Entity
	Order    *Entity
}

// CreateUser creates a user with a unique email address. Top-level fields of overrides replace
// the defaults.
func (b *Builder) CreateUser(ctx context.Context, overrides ldvalue.Value) (*Entity, error) {
	return b.CreateEntity(ctx, TypeUser, overrides)
}

// CreateProduct creates a product with a unique SKU.
func (b *Builder) CreateProduct(ctx context.Context, overrides ldvalue.Value) (*Entity, error) {
	return b.CreateEntity(ctx, TypeProduct, overrides)
}

// CreateOrder creates an order for a user referencing the given products.
func (b *Builder) CreateOrder(
	ctx context.Context,
	userID string,
	productIDs []string,
	overrides ldvalue.Value,
) (*Entity, error) {
	ids := ldvalue.ArrayBuild()
	for _, id := range productIDs {
		ids = ids.Add(ldvalue.String(id))
	}
	refs := ldvalue.ObjectBuild().
		Set("userId", ldvalue.String(userID)).
		Set("productIds", ids.Build()).
		Build()
	return b.CreateEntity(ctx, TypeOrder, merge(refs, overrides))
}

// CreateOrderScenario creates a user, productCount products, and an order placed by the user for
// all of the products, in that order. Cleanup therefore removes the order first, then the
// products, then the user.
func (b *Builder) CreateOrderScenario(
	ctx context.Context,
	productCount int,
	userOverrides ldvalue.Value,
) (*OrderScenario, error) {
	user, err := b.CreateUser(ctx, userOverrides)
	if err != nil {
		return nil, err
	}
	products, err := b.CreateEntities(ctx, TypeProduct, productCount, nil)
	if err != nil {
		return nil, err
	}
	productIDs := make([]string, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}
	order, err := b.CreateOrder(ctx, user.ID, productIDs, ldvalue.Null())
	if err != nil {
		return nil, err
	}
	return &OrderScenario{User: user, Products: products, Order: order}, nil
}

func createUserEntity(
	ctx context.Context,
	client apiclient.Client,
	custom ldvalue.Value,
	_ *TestDataContext,
) (*Entity, error) {
	defaults := ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Test User")).
		Set("email", ldvalue.String(fmt.Sprintf("test-%s@example.com", shortID()))).
		Set("password", ldvalue.String(DefaultPassword)).
		Set("role", ldvalue.String("customer")).
		Build()
	return createViaAPI(ctx, client, TypeUser, UsersPath, merge(defaults, custom))
}

func createProductEntity(
	ctx context.Context,
	client apiclient.Client,
	custom ldvalue.Value,
	_ *TestDataContext,
) (*Entity, error) {
	defaults := ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Test Product")).
		Set("sku", ldvalue.String("SKU-"+shortID())).
		Set("price", ldvalue.Float64(19.99)).
		Set("stock", ldvalue.Int(100)).
		Build()
	return createViaAPI(ctx, client, TypeProduct, ProductsPath, merge(defaults, custom))
}

func createOrderEntity(
	ctx context.Context,
	client apiclient.Client,
	custom ldvalue.Value,
	_ *TestDataContext,
) (*Entity, error) {
	defaults := ldvalue.ObjectBuild().
		Set("productIds", ldvalue.ArrayOf()).
		Set("status", ldvalue.String("pending")).
		Build()
	return createViaAPI(ctx, client, TypeOrder, OrdersPath, merge(defaults, custom))
}

func createViaAPI(
	ctx context.Context,
	client apiclient.Client,
	entityType string,
	collectionPath string,
	payload ldvalue.Value,
) (*Entity, error) {
	resp, err := client.Post(ctx, collectionPath, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", entityType, err)
	}
	if !resp.OK() {
		return nil, &EntityCreationFailedError{
			EntityType: entityType,
			Status:     resp.Status,
			StatusText: resp.StatusText,
			Body:       string(resp.Body),
		}
	}
	data, err := resp.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", entityType, err)
	}
	id, ok := entityID(data)
	if !ok {
		return nil, fmt.Errorf("failed to create %s: response did not include an id: %s", entityType, string(resp.Body))
	}
	return &Entity{
		ID:      id,
		Type:    entityType,
		Data:    data,
		Cleanup: DeleteCleanup(client, collectionPath+"/"+id),
	}, nil
}

// DeleteCleanup returns a cleanup action that deletes the resource at path. A 404 response
// counts as success, since the resource is already gone.
func DeleteCleanup(client apiclient.Client, path string) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := client.Delete(ctx, path)
		if err != nil {
			return err
		}
		if !resp.OK() && resp.Status != http.StatusNotFound {
			return fmt.Errorf("DELETE %s returned %s", path, resp)
		}
		return nil
	}
}

func entityID(data ldvalue.Value) (string, bool) {
	id := data.GetByKey("id")
	switch id.Type() {
	case ldvalue.StringType:
		return id.StringValue(), id.StringValue() != ""
	case ldvalue.NumberType:
		return strconv.FormatFloat(id.Float64Value(), 'f', -1, 64), true
	default:
		return "", false
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}
