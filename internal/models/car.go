package models

import "time"

// Car is a listing owned by a single user.
type Car struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Images      []Image   `json:"images"`
	Tags        []Tag     `json:"tags" gorm:"many2many:car_tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Image is a stored upload attached to a car. URL holds the storage locator.
type Image struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	URL       string    `json:"url" gorm:"type:varchar(512);not null"`
	CarID     uint      `json:"car_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Tag is shared by every car that links it. Names are unique and case-sensitive.
type Tag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// CarTag is the car_tags join row. The composite key gives the relation set semantics.
type CarTag struct {
	CarID uint `gorm:"primaryKey"`
	TagID uint `gorm:"primaryKey"`
}

// TableName pins the join table shared with Car.Tags.
func (CarTag) TableName() string { return "car_tags" }
