package model

// Hospital holds the metadata of the hospital the console administers.
type Hospital struct {
	ID                int64  `json:"id,omitempty"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	City              string `json:"city"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Website           string `json:"website"`
	TotalBeds         int    `json:"total_beds"`
	ICUBeds           int    `json:"icu_beds"`
	OperationTheatres int    `json:"operation_theatres"`
	EmergencyContact  string `json:"emergency_contact"`
}
