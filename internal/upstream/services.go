package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yungbote/neurobridge-bff/internal/domain/commerce"
)

type UserService interface {
	UserByID(ctx context.Context, id int) (commerce.User, error)
}

type OrderService interface {
	OrdersByUserID(ctx context.Context, userID int) ([]commerce.Order, error)
}

type ProductService interface {
	ProductByID(ctx context.Context, id int) (commerce.Product, error)
	PopularProducts(ctx context.Context) ([]commerce.Product, error)
}

type userClient struct{ c *Client }

func NewUserService(c *Client) UserService { return &userClient{c: c} }

// GET /users/:id
func (u *userClient) UserByID(ctx context.Context, id int) (commerce.User, error) {
	var out commerce.User
	err := u.c.Get(ctx, "/users/"+strconv.Itoa(id), &out)
	return out, err
}

type orderClient struct{ c *Client }

func NewOrderService(c *Client) OrderService { return &orderClient{c: c} }

// GET /orders?userId=:id
func (o *orderClient) OrdersByUserID(ctx context.Context, userID int) ([]commerce.Order, error) {
	q := url.Values{"userId": []string{strconv.Itoa(userID)}}
	out := []commerce.Order{}
	if err := o.c.Get(ctx, "/orders?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []commerce.Order{}
	}
	return out, nil
}

type productClient struct{ c *Client }

func NewProductService(c *Client) ProductService { return &productClient{c: c} }

// GET /products/:id
func (p *productClient) ProductByID(ctx context.Context, id int) (commerce.Product, error) {
	var out commerce.Product
	err := p.c.Get(ctx, "/products/"+strconv.Itoa(id), &out)
	return out, err
}

// GET /products/popular
func (p *productClient) PopularProducts(ctx context.Context) ([]commerce.Product, error) {
	out := []commerce.Product{}
	if err := p.c.Get(ctx, "/products/popular", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []commerce.Product{}
	}
	return out, nil
}

// Services bundles the three upstream accessors a BFF fans out to.
type Services struct {
	Users    UserService
	Orders   OrderService
	Products ProductService
}

type ServicesConfig struct {
	UserURL    string
	OrderURL   string
	ProductURL string
	Options    Options
}

// NewServices builds one Client per upstream sharing the transport, logger and
// metrics carried in cfg.Options.
func NewServices(cfg ServicesConfig) (Services, error) {
	build := func(service, baseURL string) (*Client, error) {
		opts := cfg.Options
		opts.Service = service
		opts.BaseURL = baseURL
		c, err := New(opts)
		if err != nil {
			return nil, fmt.Errorf("init %s client: %w", service, err)
		}
		return c, nil
	}
	users, err := build("user", cfg.UserURL)
	if err != nil {
		return Services{}, err
	}
	orders, err := build("order", cfg.OrderURL)
	if err != nil {
		return Services{}, err
	}
	products, err := build("product", cfg.ProductURL)
	if err != nil {
		return Services{}, err
	}
	return Services{
		Users:    NewUserService(users),
		Orders:   NewOrderService(orders),
		Products: NewProductService(products),
	}, nil
}

// MaxIdleConnsPerHost sizes the shared pool; enrichment opens one product
// lookup per order item against the same host.
const MaxIdleConnsPerHost = 32

// DefaultHTTPClient is the shared transport for upstream calls.
func DefaultHTTPClient() *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = MaxIdleConnsPerHost
	return &http.Client{Transport: tr}
}
