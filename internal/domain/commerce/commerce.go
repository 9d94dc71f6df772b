package commerce

// User is the record served by the user service at GET /users/:id.
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

// Order is one element of GET /orders?userId=:id. Total is in minor currency units.
type Order struct {
	ID         int    `json:"id"`
	UserID     int    `json:"userId"`
	ProductIDs []int  `json:"productIds"`
	Total      int64  `json:"total"`
	Status     string `json:"status"`
	Date       string `json:"date"`
}

// Product is served by GET /products/:id and GET /products/popular.
type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	InStock     bool   `json:"inStock"`
	Description string `json:"description"`
}
