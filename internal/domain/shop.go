package domain

// Customer is the subset of the shop's customer resource this service uses.
type Customer struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewCustomer is the payload for creating a customer upstream.
type NewCustomer struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	VerifiedEmail        bool   `json:"verified_email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	SendEmailWelcome     bool   `json:"send_email_welcome"`
}

type Image struct {
	Src string `json:"src"`
}

type LineItem struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
	Image     *Image `json:"image,omitempty"`
}

type OrderCustomer struct {
	ID int64 `json:"id"`
}

type Order struct {
	ID              int64          `json:"id,omitempty"`
	Name            string         `json:"name,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	FinancialStatus string         `json:"financial_status,omitempty"`
	TotalPrice      string         `json:"total_price,omitempty"`
	Currency        string         `json:"currency,omitempty"`
	Customer        *OrderCustomer `json:"customer,omitempty"`
	LineItems       []LineItem     `json:"line_items"`
}

// OrderItem is one requested line of a new order.
type OrderItem struct {
	VariantID int64 `json:"variant_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"omitempty,min=1"`
}

type Variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
}
