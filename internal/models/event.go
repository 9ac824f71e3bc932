package models

import "time"

// Car lifecycle event types published to the message broker.
const (
	CarCreated = "car.created"
	CarUpdated = "car.updated"
	CarDeleted = "car.deleted"
)

// CarEvent describes a change to a car for downstream consumers.
type CarEvent struct {
	Type       string    `json:"type"`
	CarID      uint      `json:"car_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	ImageCount int       `json:"image_count"`
	Tags       []string  `json:"tags,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
