package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/gearhub-backend/pkg/db/models"
	"github.com/angelmondragon/gearhub-backend/pkg/enums"
	"github.com/angelmondragon/gearhub-backend/pkg/pagination"
)

// Repository persists orders, their items, payments and audit rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) locking(q *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items", "Payment").Create(order).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// SetPaymentReference stores the gateway id on the order's payment row.
func (r *Repository) SetPaymentReference(ctx context.Context, orderID uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Update("provider_ref", ref).Error
}

// LockInventory reads the inventory rows for variantIDs, locking them on Postgres.
func (r *Repository) LockInventory(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var rows []models.Inventory
	q := r.db.WithContext(ctx).Where("variant_id IN ?", variantIDs).Order("variant_id ASC")
	if err := r.locking(q).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VariantID] = row.Quantity
	}
	return out, nil
}

// DecrementInventory subtracts qty when enough stock remains. It reports
// false when the guarded update touched no row.
func (r *Repository) DecrementInventory(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("variant_id = ? AND quantity >= ?", variantID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payment")
}

func (r *Repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).Where("order_number = ?", number).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID loads the bare order row for an update.
func (r *Repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if err := r.locking(q).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status *enums.OrderStatus
	Query  string
}

// List returns a page of orders, newest first, plus the filtered total.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Page) ([]models.Order, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if filters.Status != nil {
			q = q.Where("status = ?", *filters.Status)
		}
		if term := strings.ToLower(strings.TrimSpace(filters.Query)); term != "" {
			like := "%" + term + "%"
			q = q.Where("LOWER(order_number) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := scoped().
		Preload("Items").
		Order("created_at DESC").
		Order("order_number DESC").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *Repository) InsertAudit(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
