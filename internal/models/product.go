package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Product categories. Variants are only valid for electronics,
// sizes only for clothing.
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryOthers      = "others"
)

// StringList stores a list of strings as a JSON text column so the same
// model works on both sqlite and postgres.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for string list", value)
	}
}

// Contains reports whether the list contains the given value.
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// Product represents a product document in the catalog.
//
// CODAvail, TotalStock and IsActive are pointers so that required fields can
// still carry their zero values (false, 0) while an absent field stays
// detectable for validation and partial updates.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string     `json:"name" gorm:"uniqueIndex:idx_products_name;uniqueIndex:idx_products_name_brand" validate:"required,min=3,max=100,prodname"`
	Brand       string     `json:"brand" gorm:"uniqueIndex:idx_products_name_brand" validate:"required,min=2,max=50"`
	Seller      string     `json:"seller" validate:"required,min=2,max=50"`
	Description string     `json:"product_description" validate:"required,min=20,max=1000"`
	Price       float64    `json:"price" validate:"required,gt=0,lte=999999.99"`
	Discount    float64    `json:"discount" validate:"gte=0,lte=100"`
	Ratings     float64    `json:"ratings" validate:"gte=0,lte=5"`
	CODAvail    *bool      `json:"cod_availability" validate:"required"`
	TotalStock  *int       `json:"total_stock_availability" validate:"required,gte=0,lte=999999"`
	Category    string     `json:"category" validate:"required,oneof=electronics clothing others"`
	Colors      StringList `json:"colors" gorm:"type:text" validate:"required,min=1,dive,min=2,max=20"`
	Variants    StringList `json:"variants" gorm:"type:text" validate:"omitempty,dive,min=2,max=50"`
	Size        StringList `json:"size" gorm:"type:text" validate:"omitempty,dive,min=1,max=10"`
	IsActive    *bool      `json:"isActive" validate:"required"`
	IsFeatured  bool       `json:"isFeatured"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
