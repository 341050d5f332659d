package model

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

type Name struct {
	Firstname string `gorm:"type:varchar(100)" json:"firstname"`
	Lastname  string `gorm:"type:varchar(100)" json:"lastname"`
}

type Geolocation struct {
	Lat  string `gorm:"type:varchar(20)" json:"lat"`
	Long string `gorm:"type:varchar(20)" json:"long"`
}

type Address struct {
	City        string      `gorm:"type:varchar(100)" json:"city"`
	Street      string      `gorm:"type:varchar(255)" json:"street"`
	Number      int         `json:"number"`
	Zipcode     string      `gorm:"type:varchar(20)" json:"zipcode"`
	Geolocation Geolocation `gorm:"embedded;embeddedPrefix:geo_" json:"geolocation"`
}

// User はストアの利用者。パスワードはbcryptハッシュのみ保存する。
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         Name      `gorm:"embedded;embeddedPrefix:name_" json:"name"`
	Address      Address   `gorm:"embedded;embeddedPrefix:addr_" json:"address"`
	Phone        string    `gorm:"type:varchar(30)" json:"phone"`
	Status       Status    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
