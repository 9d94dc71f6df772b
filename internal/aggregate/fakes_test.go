package aggregate

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/yungbote/neurobridge-bff/internal/domain/commerce"
	"github.com/yungbote/neurobridge-bff/internal/upstream"
)

type fakeUsers struct {
	users map[int]commerce.User
	err   error
	calls atomic.Int32
}

func (f *fakeUsers) UserByID(_ context.Context, id int) (commerce.User, error) {
	f.calls.Add(1)
	if f.err != nil {
		return commerce.User{}, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return commerce.User{}, &upstream.Error{Service: "user", StatusCode: http.StatusNotFound, Message: "User not found"}
	}
	return u, nil
}

type fakeOrders struct {
	orders map[int][]commerce.Order
	err    error
	calls  atomic.Int32
}

func (f *fakeOrders) OrdersByUserID(_ context.Context, userID int) ([]commerce.Order, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.orders[userID], nil
}

type fakeProducts struct {
	products map[int]commerce.Product
	panicIDs map[int]bool
	popular  []commerce.Product
	err      error

	mu     sync.Mutex
	lookup []int
}

func (f *fakeProducts) ProductByID(_ context.Context, id int) (commerce.Product, error) {
	f.mu.Lock()
	f.lookup = append(f.lookup, id)
	f.mu.Unlock()
	if f.panicIDs[id] {
		panic("corrupt product record")
	}
	p, ok := f.products[id]
	if !ok {
		return commerce.Product{}, &upstream.Error{Service: "product", StatusCode: http.StatusNotFound, Message: "Product not found"}
	}
	return p, nil
}

func (f *fakeProducts) PopularProducts(context.Context) ([]commerce.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.popular, nil
}

func fixture() (*fakeUsers, *fakeOrders, *fakeProducts) {
	users := &fakeUsers{users: map[int]commerce.User{
		1: {ID: 1, Name: "Ivan Petrov", Email: "ivan@example.com", Phone: "+7 900 123-45-67", Avatar: "https://i.pravatar.cc/150?img=1"},
		2: {ID: 2, Name: "Maria Sidorova", Email: "maria@example.com", Phone: "+7 900 765-43-21", Avatar: "https://i.pravatar.cc/150?img=2"},
	}}
	orders := &fakeOrders{orders: map[int][]commerce.Order{
		1: {
			{ID: 1, UserID: 1, ProductIDs: []int{1, 2}, Total: 5990, Status: "completed", Date: "2024-01-15"},
			{ID: 2, UserID: 1, ProductIDs: []int{3}, Total: 2990, Status: "pending", Date: "2024-01-20"},
		},
	}}
	products := &fakeProducts{
		products: map[int]commerce.Product{
			1: {ID: 1, Name: "Laptop", Price: 49990, Category: "electronics", InStock: true},
			2: {ID: 2, Name: "Mouse", Price: 990, Category: "accessories", InStock: true},
			3: {ID: 3, Name: "Headphones", Price: 2990, Category: "audio", InStock: false},
		},
		popular: []commerce.Product{{ID: 1, Name: "Laptop", Price: 49990}},
	}
	return users, orders, products
}
