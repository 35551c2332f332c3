package models

import (
	"slices"
	"time"
)

const (
	StatusForSale  = "for sale"
	StatusSold     = "sold"
	StatusReserved = "reserved"
)

var StatusOptions = []string{StatusForSale, StatusSold, StatusReserved}

var CategoryOptions = []string{
	"Other",
	"Electronics",
	"Clothing",
	"Home & Garden",
	"Sports & Outdoors",
	"Toys & Games",
	"Automative",
	"Books & Media",
}

func ValidStatus(s string) bool   { return slices.Contains(StatusOptions, s) }
func ValidCategory(s string) bool { return slices.Contains(CategoryOptions, s) }

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"                 json:"id"`
	Name        string    `gorm:"size:50;not null;index"                   json:"name"`
	Price       float64   `gorm:"not null;index"                           json:"price"`
	CityName    string    `gorm:"size:50"                                  json:"city_name"`
	Description string    `gorm:"size:500;not null"                        json:"description"`
	Status      string    `gorm:"size:16;not null;default:'for sale'"      json:"status"`
	Category    string    `gorm:"size:32;not null;default:'Other'"         json:"category"`
	Owner       string    `gorm:"column:user_username;size:50;not null;index" json:"user_username"`
	IsBanned    bool      `gorm:"not null;default:false;index"             json:"is_banned"`
	CreatedAt   time.Time `gorm:"index"                                    json:"created_at"`
	UpdatedAt   time.Time `                                                json:"-"`
	Pictures    []Picture `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"pictures"`
}

type Picture struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID uint   `gorm:"not null;index"           json:"product_id"`
	Filename  string `gorm:"size:255;not null"        json:"filename"`
}

type UserReport struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportedUser     string    `gorm:"size:50;not null;index"   json:"reported_user"`
	ReporterUsername string    `gorm:"size:50;not null;index"   json:"reporter_username"`
	Description      string    `gorm:"size:500;not null"        json:"description"`
	CreatedAt        time.Time `                                json:"created_at"`
}

type ProductReport struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportedProduct  uint      `gorm:"not null;index"           json:"reported_product"`
	ReporterUsername string    `gorm:"size:50;not null;index"   json:"reporter_username"`
	Description      string    `gorm:"size:500;not null"        json:"description"`
	CreatedAt        time.Time `                                json:"created_at"`
}
