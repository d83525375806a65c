package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a buyer of finished goods.
type Customer struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name" db:"name" binding:"required"`
	Email   *string `json:"email,omitempty" db:"email"`
	Phone   *string `json:"phone,omitempty" db:"phone"`
	Address *string `json:"address,omitempty" db:"address"`
}

// Order statuses
const (
	OrderStatusNew        = "NEW"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// Order is a customer order, optionally handled by a staff member.
type Order struct {
	ID         int64        `json:"id"`
	CustomerID int64        `json:"customer_id" db:"customer_id" binding:"required"`
	EmployeeID *int64       `json:"employee_id,omitempty" db:"employee_id"`
	OrderDate  time.Time    `json:"order_date" db:"order_date"`
	Status     string       `json:"status" db:"status"`
	Customer   *Customer    `json:"customer,omitempty"`
	Employee   *StaffMember `json:"employee,omitempty"`
	Items      []OrderItem  `json:"items,omitempty"`
}

// OrderItem is a single order line.
type OrderItem struct {
	ID       int64   `json:"id"`
	OrderID  int64   `json:"order_id" db:"order_id" binding:"required"`
	ItemID   int64   `json:"item_id" db:"item_id" binding:"required"`
	Quantity int     `json:"quantity" db:"quantity"`
	Notes    *string `json:"notes,omitempty" db:"notes"`
	Status   *string `json:"status,omitempty" db:"status"`
	Item     *Item   `json:"item,omitempty"`
}

// OrderDetailLine is an order line joined with catalog data for the
// order detail rollup.
type OrderDetailLine struct {
	ID          int64           `json:"id"`
	SKU         *string         `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Notes       *string         `json:"notes"`
}

// OrderDetails is the full order rollup returned by the detail endpoint.
type OrderDetails struct {
	OrderID     int64             `json:"order_id"`
	Customer    string            `json:"customer"`
	Date        time.Time         `json:"date"`
	Status      string            `json:"status"`
	Employee    *string           `json:"employee"`
	Items       []OrderDetailLine `json:"items"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	CustomerID *int64  `form:"customer_id"`
	EmployeeID *int64  `form:"employee_id"`
	Status     *string `form:"status"`
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
