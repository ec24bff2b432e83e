package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a catalog item. Rows are never physically removed; a
// delete flips IsActive so orders keep a valid product reference.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64     `bun:",pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	Price       float64   `bun:"price,notnull"`
	Category    string    `bun:"category,notnull"`
	Image       string    `bun:"image"`
	Stock       int       `bun:"stock,notnull,default:0"`
	IsActive    bool      `bun:"is_active,notnull,default:true"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}
