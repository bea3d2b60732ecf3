package domain

import "time"

// BookingRecord is an append-only reservation stored under
// bookings/{userID}/{recordID}.
type BookingRecord struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PartyCount   int       `json:"numberOfPeople"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BookingRequest carries the caller-supplied fields of a new booking.
type BookingRequest struct {
	RestaurantID string
	Date         string
	Time         string
	PartyCount   int
}

// BookingDocument is the stored shape of a booking record. CreatedAt holds
// either the server timestamp placeholder on write or unix milliseconds on read.
type BookingDocument struct {
	RestaurantID   string `json:"restaurantId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	NumberOfPeople int    `json:"numberOfPeople"`
	CreatedAt      any    `json:"createdAt"`
}

// ServerTimestamp is the placeholder the store replaces with its own clock
// reading, in unix milliseconds.
var ServerTimestamp = map[string]string{".sv": "timestamp"}
