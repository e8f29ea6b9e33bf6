package model

// Booking is the canonical booking record held by the client stores.
// BookingID is the reference used by status transitions.
type Booking struct {
	ID            string        `json:"_id"`
	BookingID     string        `json:"bookingId"`
	CustomerName  string        `json:"customerName"`
	CurrentStatus BookingStatus `json:"currentStatus"`
	Date          string        `json:"date"`
	StartTime     string        `json:"startTime,omitempty"`
	EndTime       string        `json:"endTime,omitempty"`
	ServiceName   string        `json:"serviceName"`
	CenterName    string        `json:"centerName,omitempty"`
	Vehicle       Vehicle       `json:"vehicle"`
	Notes         string        `json:"notes,omitempty"`
}

// BookingPayload is the body of a booking creation call.
type BookingPayload struct {
	CenterID     int64  `json:"center_id"`
	ServiceID    int64  `json:"service_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	CustomerName string `json:"customer_name"`
	CustomerID   string `json:"customer_id,omitempty"`
	VehicleID    string `json:"vehicle_id"`
	VehicleName  string `json:"vehicle_Name"`
}

// StatusUpdate is the body of a status transition call.
type StatusUpdate struct {
	NewStatus BookingStatus `json:"newStatus"`
}

// StatusUpdateResponse is the answer to a status transition call.
type StatusUpdateResponse struct {
	Message        string  `json:"message"`
	UpdatedBooking Booking `json:"updatedBooking"`
}
