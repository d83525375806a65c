package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for customer and order
// database operations.
type OrderRepository interface {
	// Customer methods
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error)
	GetCustomerByID(id int64) (*models.Customer, error)
	GetCustomers(search string, page, pageSize int) ([]models.Customer, int, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) error
	DeleteCustomer(executor SQLExecutor, id int64) error

	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(id int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(executor SQLExecutor, orderID int64, status string) error
	DeleteOrder(executor SQLExecutor, id int64) error

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, orderItem *models.OrderItem) (int64, error)
	GetOrderItemByID(id int64) (*models.OrderItem, error)
	GetOrderItems(orderID int64) ([]models.OrderItem, error)
	UpdateOrderItem(executor SQLExecutor, orderItem *models.OrderItem) error
	DeleteOrderItem(executor SQLExecutor, id int64) error

	// GetOrderDetails returns the joined rollup for a single order.
	GetOrderDetails(orderID int64) (*models.OrderDetails, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Customer Methods ---

func (r *orderRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (int64, error) {
	query := `INSERT INTO customers (name, email, phone, address)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRow(query, customer.Name, customer.Email, customer.Phone, customer.Address).Scan(&customer.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: customer already exists (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	return customer.ID, nil
}

func (r *orderRepository) GetCustomerByID(id int64) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT id, name, email, phone, address FROM customers WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting customer by ID %d: %v", ErrDatabaseError, id, err)
	}
	return customer, nil
}

func (r *orderRepository) GetCustomers(search string, page, pageSize int) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, email, phone, address, COUNT(*) OVER() AS total_count
	  FROM customers`)

	var args []interface{}
	if search != "" {
		queryBuilder.WriteString(` WHERE name ILIKE $1 OR email ILIKE $1 OR phone ILIKE $1`)
		args = append(args, "%"+search+"%")
	}
	argCount := len(args) + 1
	queryBuilder.WriteString(" ORDER BY name")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Email, &customer.Phone, &customer.Address, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customers: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *orderRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) error {
	query := `UPDATE customers SET name = $1, email = $2, phone = $3, address = $4 WHERE id = $5`
	result, err := executor.Exec(query, customer.Name, customer.Email, customer.Phone, customer.Address, customer.ID)
	if err != nil {
		return fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteCustomer(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("%w: customer %d has orders", ErrDuplicateKey, id)
		}
		return fmt.Errorf("%w: deleting customer ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders (customer_id, employee_id, order_date, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}
	var employeeID sql.NullInt64
	if order.EmployeeID != nil {
		employeeID = sql.NullInt64{Int64: *order.EmployeeID, Valid: true}
	}
	err := executor.QueryRow(query, order.CustomerID, employeeID, order.OrderDate, order.Status).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: customer or employee does not exist (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(id int64) (*models.Order, error) {
	order := &models.Order{}
	var customerName string
	var employeeID sql.NullInt64
	var employeeName sql.NullString
	query := `SELECT o.id, o.customer_id, o.employee_id, o.order_date, o.status,
	            c.name AS customer_name, u.full_name AS employee_name
	          FROM orders o
	          JOIN customers c ON o.customer_id = c.id
	          LEFT JOIN staff_members sm ON o.employee_id = sm.id
	          LEFT JOIN users u ON sm.user_id = u.id
	          WHERE o.id = $1`
	err := r.db.QueryRow(query, id).Scan(&order.ID, &order.CustomerID, &employeeID,
		&order.OrderDate, &order.Status, &customerName, &employeeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, id, err)
	}
	order.Customer = &models.Customer{ID: order.CustomerID, Name: customerName}
	if employeeID.Valid {
		order.EmployeeID = &employeeID.Int64
		if employeeName.Valid {
			order.Employee = &models.StaffMember{ID: employeeID.Int64, User: &models.User{FullName: &employeeName.String}}
		}
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT o.id, o.customer_id, o.employee_id, o.order_date, o.status,
	    c.name AS customer_name, u.full_name AS employee_name,
	    COUNT(*) OVER() AS total_count
	  FROM orders o
	  JOIN customers c ON o.customer_id = c.id
	  LEFT JOIN staff_members sm ON o.employee_id = sm.id
	  LEFT JOIN users u ON sm.user_id = u.id`)

	var conditions []string
	var args []interface{}
	argCount := 1
	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("o.employee_id = $%d", argCount))
		args = append(args, *filters.EmployeeID)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.order_date DESC, o.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var order models.Order
		var customerName string
		var employeeID sql.NullInt64
		var employeeName sql.NullString
		if err := rows.Scan(&order.ID, &order.CustomerID, &employeeID, &order.OrderDate,
			&order.Status, &customerName, &employeeName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		order.Customer = &models.Customer{ID: order.CustomerID, Name: customerName}
		if employeeID.Valid {
			order.EmployeeID = &employeeID.Int64
			if employeeName.Valid {
				order.Employee = &models.StaffMember{ID: employeeID.Int64, User: &models.User{FullName: &employeeName.String}}
			}
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, status string) error {
	result, err := executor.Exec(`UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order %d status: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrder(executor SQLExecutor, id int64) error {
	// order_items rows go first; no ON DELETE CASCADE on the FK.
	if _, err := executor.Exec(`DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("%w: deleting order items for order %d: %v", ErrDatabaseError, id, err)
	}
	result, err := executor.Exec(`DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting order ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, orderItem *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items (order_id, item_id, quantity, notes, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query, orderItem.OrderID, orderItem.ItemID, orderItem.Quantity,
		orderItem.Notes, orderItem.Status).Scan(&orderItem.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return 0, fmt.Errorf("%w: order or item does not exist (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return orderItem.ID, nil
}

func (r *orderRepository) GetOrderItemByID(id int64) (*models.OrderItem, error) {
	orderItem := &models.OrderItem{}
	query := `SELECT id, order_id, item_id, quantity, notes, status
	          FROM order_items
	          WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(&orderItem.ID, &orderItem.OrderID, &orderItem.ItemID,
		&orderItem.Quantity, &orderItem.Notes, &orderItem.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order item with ID %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting order item ID %d: %v", ErrDatabaseError, id, err)
	}
	return orderItem, nil
}

func (r *orderRepository) GetOrderItems(orderID int64) ([]models.OrderItem, error) {
	orderItems := []models.OrderItem{}
	query := `SELECT oi.id, oi.order_id, oi.item_id, oi.quantity, oi.notes, oi.status,
	            i.name AS item_name
	          FROM order_items oi
	          JOIN items i ON oi.item_id = i.id
	          WHERE oi.order_id = $1
	          ORDER BY oi.id`
	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order items for order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderItem models.OrderItem
		var itemName string
		if err := rows.Scan(&orderItem.ID, &orderItem.OrderID, &orderItem.ItemID,
			&orderItem.Quantity, &orderItem.Notes, &orderItem.Status, &itemName); err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		orderItem.Item = &models.Item{ID: orderItem.ItemID, Name: itemName}
		orderItems = append(orderItems, orderItem)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order items: %v", ErrDatabaseError, err)
	}
	return orderItems, nil
}

func (r *orderRepository) UpdateOrderItem(executor SQLExecutor, orderItem *models.OrderItem) error {
	query := `UPDATE order_items SET quantity = $1, notes = $2, status = $3 WHERE id = $4`
	result, err := executor.Exec(query, orderItem.Quantity, orderItem.Notes, orderItem.Status, orderItem.ID)
	if err != nil {
		return fmt.Errorf("%w: updating order item ID %d: %v", ErrDatabaseError, orderItem.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrderItem(executor SQLExecutor, id int64) error {
	result, err := executor.Exec(`DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting order item ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Order Details ---

// GetOrderDetails builds the order rollup: header plus priced lines.
// Line subtotals use the item's current selling price.
func (r *orderRepository) GetOrderDetails(orderID int64) (*models.OrderDetails, error) {
	details := &models.OrderDetails{OrderID: orderID}
	var employeeName sql.NullString
	headerQuery := `SELECT c.name, o.order_date, o.status, u.full_name
	                FROM orders o
	                JOIN customers c ON o.customer_id = c.id
	                LEFT JOIN staff_members sm ON o.employee_id = sm.id
	                LEFT JOIN users u ON sm.user_id = u.id
	                WHERE o.id = $1`
	err := r.db.QueryRow(headerQuery, orderID).Scan(&details.Customer, &details.Date, &details.Status, &employeeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order header for order %d: %v", ErrDatabaseError, orderID, err)
	}
	if employeeName.Valid {
		details.Employee = &employeeName.String
	}

	linesQuery := `SELECT oi.id, i.sku, i.name, oi.quantity, i.selling_price,
	                 i.selling_price * oi.quantity AS subtotal, oi.notes
	               FROM order_items oi
	               JOIN items i ON oi.item_id = i.id
	               WHERE oi.order_id = $1
	               ORDER BY oi.id`
	rows, err := r.db.Query(linesQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order lines for order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	details.Items = []models.OrderDetailLine{}
	for rows.Next() {
		var line models.OrderDetailLine
		var sku sql.NullString
		if err := rows.Scan(&line.ID, &sku, &line.ProductName, &line.Quantity,
			&line.Price, &line.Subtotal, &line.Notes); err != nil {
			return nil, fmt.Errorf("%w: scanning order line: %v", ErrDatabaseError, err)
		}
		if sku.Valid {
			v := sku.String
			line.SKU = &v
		}
		details.Items = append(details.Items, line)
		details.TotalAmount = details.TotalAmount.Add(line.Subtotal)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order lines: %v", ErrDatabaseError, err)
	}
	return details, nil
}
