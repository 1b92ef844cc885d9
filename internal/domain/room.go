package domain

import "time"

type Room struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	PricePerNight int64     `json:"pricePerNight"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

// Quote returns the total price for staying in the room between the given dates.
func (r Room) Quote(checkIn, checkOut Date) int64 {
	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return 0
	}
	return int64(nights) * r.PricePerNight
}
