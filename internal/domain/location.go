package domain

// Location is one transit-hub site hosting a bank of lockers.
type Location struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Address         string              `json:"address"`
	Latitude        float64             `json:"latitude"`
	Longitude       float64             `json:"longitude"`
	AvailableCounts map[SizeClass]int64 `json:"available_counts,omitempty"`
}

// LocationCapacity is the provisioned reservation capacity for one
// (location, size). Kept separate from live locker rows so operators can
// hold units back from advance booking.
type LocationCapacity struct {
	LocationID  string    `json:"location_id"`
	SizeClass   SizeClass `json:"size_class"`
	Provisioned int32     `json:"provisioned"`
}
