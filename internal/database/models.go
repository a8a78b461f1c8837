package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusPENDING   OrderStatus = "PENDING"
	OrderStatusPREPARING OrderStatus = "PREPARING"
	OrderStatusSERVED    OrderStatus = "SERVED"
	OrderStatusCOMPLETED OrderStatus = "COMPLETED"
	OrderStatusCANCELED  OrderStatus = "CANCELED"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

func (e OrderStatus) Valid() bool {
	switch e {
	case OrderStatusPENDING,
		OrderStatusPREPARING,
		OrderStatusSERVED,
		OrderStatusCOMPLETED,
		OrderStatusCANCELED:
		return true
	}
	return false
}

type TableStatus string

const (
	TableStatusAVAILABLE TableStatus = "AVAILABLE"
	TableStatusOCCUPIED  TableStatus = "OCCUPIED"
	TableStatusRECEIPT   TableStatus = "RECEIPT"
)

func (e *TableStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = TableStatus(s)
	case string:
		*e = TableStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for TableStatus: %T", src)
	}
	return nil
}

type InvoiceStatus string

const (
	InvoiceStatusPAID    InvoiceStatus = "PAID"
	InvoiceStatusPARTIAL InvoiceStatus = "PARTIAL"
	InvoiceStatusPENDING InvoiceStatus = "PENDING"
)

func (e *InvoiceStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = InvoiceStatus(s)
	case string:
		*e = InvoiceStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for InvoiceStatus: %T", src)
	}
	return nil
}

type PaymentMethod string

const (
	PaymentMethodCASH     PaymentMethod = "CASH"
	PaymentMethodCARD     PaymentMethod = "CARD"
	PaymentMethodTRANSFER PaymentMethod = "TRANSFER"
)

type UserRole string

const (
	UserRoleADMIN   UserRole = "ADMIN"
	UserRoleMANAGER UserRole = "MANAGER"
	UserRoleCASHIER UserRole = "CASHIER"
	UserRoleWAITER  UserRole = "WAITER"
)

func (e *UserRole) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = UserRole(s)
	case string:
		*e = UserRole(s)
	default:
		return fmt.Errorf("unsupported scan type for UserRole: %T", src)
	}
	return nil
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           UserRole  `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Section struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Table struct {
	ID        uuid.UUID   `json:"id"`
	SectionID uuid.UUID   `json:"section_id"`
	Name      string      `json:"name"`
	Capacity  int32       `json:"capacity"`
	Status    TableStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Tax struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Rate      pgtype.Numeric `json:"rate"`
	CreatedAt time.Time      `json:"created_at"`
}

type Service struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Amount    pgtype.Numeric `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
}

type Discount struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Percentage pgtype.Numeric `json:"percentage"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Supply struct {
	ID                uuid.UUID      `json:"id"`
	CompanyID         pgtype.UUID    `json:"company_id"`
	Name              string         `json:"name"`
	RemainingQuantity int32          `json:"remaining_quantity"`
	UnitPrice         pgtype.Numeric `json:"unit_price"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type SupplyMovement struct {
	ID            uuid.UUID   `json:"id"`
	SupplyID      uuid.UUID   `json:"supply_id"`
	OrderID       pgtype.UUID `json:"order_id"`
	QuantityDelta int32       `json:"quantity_delta"`
	Reason        string      `json:"reason"`
	CreatedBy     pgtype.UUID `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
}

type MenuItem struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Price     pgtype.Numeric `json:"price"`
	SupplyID  pgtype.UUID    `json:"supply_id"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Order struct {
	ID                 uuid.UUID   `json:"id"`
	TableID            pgtype.UUID `json:"table_id"`
	UserID             uuid.UUID   `json:"user_id"`
	Status             OrderStatus `json:"status"`
	CancellationReason pgtype.Text `json:"cancellation_reason"`
	CanceledBy         pgtype.UUID `json:"canceled_by"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    uuid.UUID      `json:"order_id"`
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Title      string         `json:"title"`
	Quantity   int32          `json:"quantity"`
	Price      pgtype.Numeric `json:"price"`
	Notes      pgtype.Text    `json:"notes"`
	SortOrder  int32          `json:"sort_order"`
	CreatedAt  time.Time      `json:"created_at"`
}

type DeletedOrderItem struct {
	ID          uuid.UUID      `json:"id"`
	OrderItemID uuid.UUID      `json:"order_item_id"`
	OrderID     uuid.UUID      `json:"order_id"`
	InvoiceID   uuid.UUID      `json:"invoice_id"`
	MenuItemID  uuid.UUID      `json:"menu_item_id"`
	Title       string         `json:"title"`
	Quantity    int32          `json:"quantity"`
	Price       pgtype.Numeric `json:"price"`
	Notes       pgtype.Text    `json:"notes"`
	Reason      string         `json:"reason"`
	DeletedBy   pgtype.UUID    `json:"deleted_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

type InvoiceRef struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Invoice struct {
	ID                 uuid.UUID      `json:"id"`
	InvoiceRefID       uuid.UUID      `json:"invoice_ref_id"`
	Version            int32          `json:"version"`
	IsLatestVersion    bool           `json:"is_latest_version"`
	Subtotal           pgtype.Numeric `json:"subtotal"`
	Total              pgtype.Numeric `json:"total"`
	TaxID              pgtype.UUID    `json:"tax_id"`
	ServiceID          pgtype.UUID    `json:"service_id"`
	DiscountID         pgtype.UUID    `json:"discount_id"`
	TaxRate            pgtype.Numeric `json:"tax_rate"`
	ServiceAmount      pgtype.Numeric `json:"service_amount"`
	DiscountPercentage pgtype.Numeric `json:"discount_percentage"`
	PaymentMethod      pgtype.Text    `json:"payment_method"`
	Paid               bool           `json:"paid"`
	AmountPaid         pgtype.Numeric `json:"amount_paid"`
	Status             InvoiceStatus  `json:"status"`
	UserID             uuid.UUID      `json:"user_id"`
	TableID            pgtype.UUID    `json:"table_id"`
	CreatedAt          time.Time      `json:"created_at"`
}
