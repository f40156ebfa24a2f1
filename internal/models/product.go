package models

import "time"

// Category is the product category. Only the values listed in ProductCategories are accepted.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryFurniture   Category = "Furniture"
	CategoryBooks       Category = "Books"
	CategoryToys        Category = "Toys"
	CategorySports      Category = "Sports"
	CategoryBeauty      Category = "Beauty"
	CategoryHome        Category = "Home"
	CategoryGrocery     Category = "Grocery"
	CategoryOther       Category = "Other"
)

// ProductCategories lists every accepted category in display order.
var ProductCategories = []Category{
	CategoryElectronics, CategoryClothing, CategoryFurniture, CategoryBooks, CategoryToys,
	CategorySports, CategoryBeauty, CategoryHome, CategoryGrocery, CategoryOther,
}

// Supplier is embedded in a product. It is never stored on its own.
type Supplier struct {
	Name         string `json:"name" bson:"name" gorm:"size:255" validate:"required,max=255"`
	ContactEmail string `json:"contactEmail" bson:"contactEmail" gorm:"size:255" validate:"required,email"`
	ContactPhone string `json:"contactPhone" bson:"contactPhone" gorm:"size:64" validate:"required,max=64"`
	Rating       int    `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
}

// Product represents a sellable item owned by the user who created it.
type Product struct {
	ID            string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID       string    `json:"ownerId" bson:"ownerId" gorm:"index;type:varchar(36);not null"`
	Title         string    `json:"title" bson:"title" gorm:"size:200;not null"`
	Category      Category  `json:"category" bson:"category" gorm:"type:varchar(32);not null"`
	Description   string    `json:"description" bson:"description" gorm:"not null"`
	Price         float64   `json:"price" bson:"price" gorm:"not null"`
	StockQuantity int       `json:"stockQuantity" bson:"stockQuantity" gorm:"not null"`
	Supplier      Supplier  `json:"supplier" bson:"supplier" gorm:"embedded;embeddedPrefix:supplier_"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" gorm:"index"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput is the body of a create request. Pointer fields let validation
// tell an absent field apart from a zero value.
type ProductInput struct {
	Title         *string   `json:"title" validate:"required,min=1,max=200"`
	Category      *Category `json:"category" validate:"required,oneof=Electronics Clothing Furniture Books Toys Sports Beauty Home Grocery Other"`
	Description   *string   `json:"description" validate:"required,min=1,max=2000"`
	Price         *float64  `json:"price" validate:"required,gte=0"`
	StockQuantity *int      `json:"stockQuantity" validate:"required,gte=0"`
	Supplier      *Supplier `json:"supplier" validate:"required"`
}

// NewProduct builds an unsaved product from a validated input.
func (in ProductInput) NewProduct(ownerID string) *Product {
	return &Product{
		OwnerID:       ownerID,
		Title:         *in.Title,
		Category:      *in.Category,
		Description:   *in.Description,
		Price:         *in.Price,
		StockQuantity: *in.StockQuantity,
		Supplier:      *in.Supplier,
	}
}

// ProductPatch lists the fields an owner may change. Anything else in the
// request body (id, ownerId, createdAt...) is dropped when decoding.
type ProductPatch struct {
	Title         *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Category      *Category `json:"category" validate:"omitnil,oneof=Electronics Clothing Furniture Books Toys Sports Beauty Home Grocery Other"`
	Description   *string   `json:"description" validate:"omitnil,min=1,max=2000"`
	Price         *float64  `json:"price" validate:"omitnil,gte=0"`
	StockQuantity *int      `json:"stockQuantity" validate:"omitnil,gte=0"`
	Supplier      *Supplier `json:"supplier"`
}

// ApplyTo copies the fields present in the patch onto p.
// The supplier is replaced as a whole.
func (patch ProductPatch) ApplyTo(p *Product) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = *patch.StockQuantity
	}
	if patch.Supplier != nil {
		p.Supplier = *patch.Supplier
	}
}
