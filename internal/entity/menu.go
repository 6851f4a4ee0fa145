package entity

import "github.com/uptrace/bun"

// DefaultCategory is applied to menu items added without a category.
const DefaultCategory = "Main"

// MenuItem is a priced dish or drink offered by the kitchen.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu,alias:m"`

	ID       int64   `bun:",pk,autoincrement" json:"id"`
	Name     string  `bun:"name,notnull" json:"name"`
	Price    float64 `bun:"price,notnull" json:"price"`
	Category string  `bun:"category,notnull" json:"category"`
}
