package models

import "time"

// Address is an optional part of a user's profile.
type Address struct {
	Street  string `json:"street" bson:"street" gorm:"size:255"`
	City    string `json:"city" bson:"city" gorm:"size:100"`
	State   string `json:"state" bson:"state" gorm:"size:100"`
	ZipCode string `json:"zipCode" bson:"zipCode" gorm:"size:20"`
}

// User represents a registered user of the catalog.
type User struct {
	ID               string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name             string    `json:"name" bson:"name" gorm:"size:100;not null"`
	Email            string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash     string    `json:"-" bson:"passwordHash" gorm:"type:varchar(255);not null"`
	PhoneNumber      string    `json:"phone_number" bson:"phoneNumber" gorm:"size:32"`
	Gender           string    `json:"gender" bson:"gender" gorm:"size:32"`
	DateOfBirth      time.Time `json:"date_of_birth" bson:"dateOfBirth"`
	MembershipStatus string    `json:"membership_status" bson:"membershipStatus" gorm:"size:32"`
	Address          Address   `json:"address" bson:"address" gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SignupRequest is the body of POST /api/users/signup.
type SignupRequest struct {
	Name             string   `json:"name" validate:"required,min=2,max=100"`
	Email            string   `json:"email" validate:"required,email"`
	Password         string   `json:"password" validate:"required,min=6,max=72"`
	PhoneNumber      string   `json:"phone_number" validate:"required,max=32"`
	Gender           string   `json:"gender" validate:"required,max=32"`
	DateOfBirth      string   `json:"date_of_birth" validate:"required"`
	MembershipStatus string   `json:"membership_status" validate:"required,max=32"`
	Address          *Address `json:"address"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
