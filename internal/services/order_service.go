package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerHasOrders  = errors.New("customer has orders and cannot be deleted")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInsufficientStock  = errors.New("insufficient stock for item")
	ErrOrderItemNotFound  = errors.New("order item not found")
)

// --- DTOs ---

// CreateCustomerRequest DTO
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateOrderItemRequest is one requested order line.
type CreateOrderItemRequest struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Notes    string `json:"notes"`
}

// CreateOrderRequest DTO
type CreateOrderRequest struct {
	CustomerID int64                    `json:"customer_id" binding:"required"`
	EmployeeID *int64                   `json:"employee_id"`
	Items      []CreateOrderItemRequest `json:"items" binding:"required,dive"`
}

// UpdateOrderItemRequest edits an existing order line.
type UpdateOrderItemRequest struct {
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Notes    *string `json:"notes"`
}

// UpdateOrderStatusRequest DTO
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- OrderService Interface ---
type OrderService interface {
	CreateCustomer(req CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(id int64) (*models.Customer, error)
	GetCustomers(search string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(id int64, req CreateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(id int64) error

	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrderDetails(orderID int64) (*models.OrderDetails, error)
	UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
	DeleteOrder(orderID int64) error

	AddOrderItem(orderID int64, req CreateOrderItemRequest) (*models.Order, error)
	UpdateOrderItem(orderID, lineID int64, req UpdateOrderItemRequest) (*models.Order, error)
	RemoveOrderItem(orderID, lineID int64) (*models.Order, error)
}

type orderService struct {
	orderRepo     repositories.OrderRepository
	inventoryRepo repositories.InventoryRepository
	db            *sql.DB // For managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(or repositories.OrderRepository, ir repositories.InventoryRepository, db *sql.DB) OrderService {
	return &orderService{orderRepo: or, inventoryRepo: ir, db: db}
}

// --- Customers ---

func (s *orderService) CreateCustomer(req CreateCustomerRequest) (*models.Customer, error) {
	customer := models.Customer{
		Name:    req.Name,
		Email:   models.NewNullString(req.Email),
		Phone:   models.NewNullString(req.Phone),
		Address: models.NewNullString(req.Address),
	}
	if _, err := s.orderRepo.CreateCustomer(s.db, &customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}

func (s *orderService) GetCustomerByID(id int64) (*models.Customer, error) {
	customer, err := s.orderRepo.GetCustomerByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (s *orderService) GetCustomers(search string, page, pageSize int) ([]models.Customer, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	customers, totalCount, err := s.orderRepo.GetCustomers(search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, totalCount, nil
}

func (s *orderService) UpdateCustomer(id int64, req CreateCustomerRequest) (*models.Customer, error) {
	customer := models.Customer{
		ID:      id,
		Name:    req.Name,
		Email:   models.NewNullString(req.Email),
		Phone:   models.NewNullString(req.Phone),
		Address: models.NewNullString(req.Address),
	}
	if err := s.orderRepo.UpdateCustomer(s.db, &customer); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return &customer, nil
}

func (s *orderService) DeleteCustomer(id int64) error {
	if err := s.orderRepo.DeleteCustomer(s.db, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrCustomerHasOrders
		}
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// --- Orders ---

// CreateOrder validates stock for every line, creates the order with
// its items and decrements stock, all in one transaction.
func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	if _, err := s.orderRepo.GetCustomerByID(req.CustomerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to check customer: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	order := models.Order{
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
		Status:     models.OrderStatusNew,
	}
	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	for _, line := range req.Items {
		item, err := s.inventoryRepo.GetItemByID(line.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: item %d", ErrItemNotFound, line.ItemID)
			}
			return nil, fmt.Errorf("failed to fetch item %d: %w", line.ItemID, err)
		}
		if item.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s (have %d, requested %d)",
				ErrInsufficientStock, item.Name, item.Stock, line.Quantity)
		}

		orderItem := models.OrderItem{
			OrderID:  orderID,
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Notes:    models.NewNullString(line.Notes),
		}
		if _, err := s.orderRepo.CreateOrderItem(tx, &orderItem); err != nil {
			return nil, fmt.Errorf("failed to create order line for item %d: %w", line.ItemID, err)
		}

		if _, err := s.inventoryRepo.UpdateStock(tx, line.ItemID, -line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to reserve stock for item %d: %w", line.ItemID, err)
		}
		activity := models.InventoryActivity{
			ItemID:       line.ItemID,
			ActivityType: models.ActivityRemove,
			Quantity:     line.Quantity,
		}
		if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
			return nil, fmt.Errorf("failed to record stock movement for item %d: %w", line.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	filters.Page, filters.PageSize = normalizePagination(filters.Page, filters.PageSize)
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	items, err := s.orderRepo.GetOrderItems(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	order.Items = items
	return order, nil
}

func (s *orderService) GetOrderDetails(orderID int64) (*models.OrderDetails, error) {
	details, err := s.orderRepo.GetOrderDetails(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order details: %w", err)
	}
	return details, nil
}

// AddOrderItem appends a line to an existing order, reserving stock
// the same way order creation does.
func (s *orderService) AddOrderItem(orderID int64, req CreateOrderItemRequest) (*models.Order, error) {
	if _, err := s.orderRepo.GetOrderByID(orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	item, err := s.inventoryRepo.GetItemByID(req.ItemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %d", ErrItemNotFound, req.ItemID)
		}
		return nil, fmt.Errorf("failed to fetch item %d: %w", req.ItemID, err)
	}
	if item.Stock < req.Quantity {
		return nil, fmt.Errorf("%w: %s (have %d, requested %d)",
			ErrInsufficientStock, item.Name, item.Stock, req.Quantity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	orderItem := models.OrderItem{
		OrderID:  orderID,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		Notes:    models.NewNullString(req.Notes),
	}
	if _, err := s.orderRepo.CreateOrderItem(tx, &orderItem); err != nil {
		return nil, fmt.Errorf("failed to add order line: %w", err)
	}
	if err := s.reserveStock(tx, req.ItemID, req.Quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order line: %w", err)
	}
	return s.GetOrderByID(orderID)
}

// UpdateOrderItem changes a line's quantity. The stock check counts
// the quantity already reserved by the line itself.
func (s *orderService) UpdateOrderItem(orderID, lineID int64, req UpdateOrderItemRequest) (*models.Order, error) {
	line, err := s.getOrderLine(orderID, lineID)
	if err != nil {
		return nil, err
	}

	item, err := s.inventoryRepo.GetItemByID(line.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item %d: %w", line.ItemID, err)
	}
	if item.Stock+line.Quantity < req.Quantity {
		return nil, fmt.Errorf("%w: %s (have %d incl. this line, requested %d)",
			ErrInsufficientStock, item.Name, item.Stock+line.Quantity, req.Quantity)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	delta := req.Quantity - line.Quantity
	line.Quantity = req.Quantity
	if req.Notes != nil {
		line.Notes = models.NewNullString(*req.Notes)
	}
	if err := s.orderRepo.UpdateOrderItem(tx, line); err != nil {
		return nil, fmt.Errorf("failed to update order line: %w", err)
	}
	if delta != 0 {
		if err := s.reserveStock(tx, line.ItemID, delta); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order line update: %w", err)
	}
	return s.GetOrderByID(orderID)
}

// RemoveOrderItem deletes a line and returns its stock.
func (s *orderService) RemoveOrderItem(orderID, lineID int64) (*models.Order, error) {
	line, err := s.getOrderLine(orderID, lineID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.DeleteOrderItem(tx, lineID); err != nil {
		return nil, fmt.Errorf("failed to remove order line: %w", err)
	}
	if err := s.reserveStock(tx, line.ItemID, -line.Quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order line removal: %w", err)
	}
	return s.GetOrderByID(orderID)
}

// getOrderLine fetches a line and checks it belongs to the order.
func (s *orderService) getOrderLine(orderID, lineID int64) (*models.OrderItem, error) {
	line, err := s.orderRepo.GetOrderItemByID(lineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("failed to fetch order line: %w", err)
	}
	if line.OrderID != orderID {
		return nil, fmt.Errorf("%w: line %d belongs to another order", ErrOrderItemNotFound, lineID)
	}
	return line, nil
}

// reserveStock moves qty units out of stock (negative qty returns
// them) and records the matching activity row.
func (s *orderService) reserveStock(tx repositories.SQLExecutor, itemID int64, qty int) error {
	if _, err := s.inventoryRepo.UpdateStock(tx, itemID, -qty); err != nil {
		return fmt.Errorf("failed to adjust stock for item %d: %w", itemID, err)
	}
	activityType := models.ActivityRemove
	moved := qty
	if qty < 0 {
		activityType = models.ActivityAdd
		moved = -qty
	}
	activity := models.InventoryActivity{
		ItemID:       itemID,
		ActivityType: activityType,
		Quantity:     moved,
	}
	if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
		return fmt.Errorf("failed to record stock movement for item %d: %w", itemID, err)
	}
	return nil
}

func isValidOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusNew, models.OrderStatusProcessing, models.OrderStatusShipped,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
		return true
	}
	return false
}

// UpdateOrderStatus moves an order to a new status. Cancelling an
// order returns its stock.
func (s *orderService) UpdateOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !isValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}

	currentOrder, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if req.Status == models.OrderStatusCancelled && currentOrder.Status != models.OrderStatusCancelled {
		items, err := s.orderRepo.GetOrderItems(orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch order items for stock return: %w", err)
		}
		for _, line := range items {
			if _, err := s.inventoryRepo.UpdateStock(tx, line.ItemID, line.Quantity); err != nil {
				return nil, fmt.Errorf("failed to return stock for item %d: %w", line.ItemID, err)
			}
			activity := models.InventoryActivity{
				ItemID:       line.ItemID,
				ActivityType: models.ActivityAdd,
				Quantity:     line.Quantity,
			}
			if _, err := s.inventoryRepo.CreateActivity(tx, &activity); err != nil {
				return nil, fmt.Errorf("failed to record stock return for item %d: %w", line.ItemID, err)
			}
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(tx, orderID, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}
	return s.GetOrderByID(orderID)
}

func (s *orderService) DeleteOrder(orderID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.orderRepo.DeleteOrder(tx, orderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order deletion: %w", err)
	}
	return nil
}
