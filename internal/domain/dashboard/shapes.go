package dashboard

import "github.com/yungbote/neurobridge-bff/internal/domain/commerce"

// ---- mobile ----

type MobileUser struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type OrderSummary struct {
	ID     int    `json:"id"`
	Total  int64  `json:"total"`
	Status string `json:"status"`
	Date   string `json:"date"`
}

type Summary struct {
	TotalOrders int   `json:"totalOrders"`
	TotalSpent  int64 `json:"totalSpent"`
}

type MobileDashboard struct {
	User    MobileUser     `json:"user"`
	Orders  []OrderSummary `json:"orders"`
	Summary Summary        `json:"summary"`
}

type MobileProfile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ---- web ----

// ProductRef is the product detail attached to an enriched order.
type ProductRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// UnknownProduct is substituted when a product lookup fails.
func UnknownProduct(id int) ProductRef {
	return ProductRef{ID: id, Name: "Unknown", Price: 0}
}

type EnrichedOrder struct {
	commerce.Order
	Products []ProductRef `json:"products"`
}

type Statistics struct {
	TotalOrders       int            `json:"totalOrders"`
	TotalSpent        int64          `json:"totalSpent"`
	AverageOrderValue int64          `json:"averageOrderValue"`
	StatusBreakdown   map[string]int `json:"statusBreakdown"`
}

type WebDashboard struct {
	User            commerce.User      `json:"user"`
	Orders          []EnrichedOrder    `json:"orders"`
	PopularProducts []commerce.Product `json:"popularProducts"`
	Statistics      Statistics         `json:"statistics"`
}

type WebProfile struct {
	commerce.User
	OrderHistory []commerce.Order `json:"orderHistory"`
	Stats        Summary          `json:"stats"`
}
