package mockapi

import (
	"fmt"

	"autoservice-dashboard/internal/model"
)

// Seeded accounts share this password.
const SeedPassword = "password123"

// Seeded account emails.
const (
	AdminEmail    = "admin@autoservice.test"
	EmployeeEmail = "employee@autoservice.test"
	CustomerEmail = "customer@autoservice.test"
)

func (b *Backend) seed() {
	b.centers = []model.Center{
		{ID: 1, Name: "Colombo Central", Location: "Colombo 03"},
		{ID: 2, Name: "Kandy Auto Hub", Location: "Kandy"},
		{ID: 3, Name: "Galle Service Point", Location: "Galle"},
	}
	b.services = []model.Service{
		{ID: 1, Name: "Oil Change", Category: "Maintenance", DurationMinutes: 30, Price: 4500},
		{ID: 2, Name: "Brake Pad Replacement", Category: "Repair", DurationMinutes: 90, Price: 18000},
		{ID: 3, Name: "Full Engine Service", Category: "Maintenance", DurationMinutes: 180, Price: 35000},
		{ID: 4, Name: "Wheel Alignment", Category: "Maintenance", DurationMinutes: 60, Price: 6000},
		{ID: 5, Name: "Battery Replacement", Category: "Repair", DurationMinutes: 30, Price: 25000},
	}

	b.addAccount(model.User{Email: AdminEmail, FirstName: "Ayesha", LastName: "Fernando", Role: model.RoleAdmin}, SeedPassword)
	b.addAccount(model.User{Email: EmployeeEmail, FirstName: "Nimal", LastName: "Silva", Role: model.RoleEmployee}, SeedPassword)
	customer := b.addAccount(model.User{Email: CustomerEmail, FirstName: "Kasun", LastName: "Perera", Phone: "+94771234567", Role: model.RoleCustomer}, SeedPassword)

	b.addVehicle(customer.ID, model.Vehicle{VehicleType: "Car", Brand: "Toyota", Model: "Corolla", Year: 2020, LicensePlate: "ABC-1234", Color: "White"})
	b.addVehicle(customer.ID, model.Vehicle{VehicleType: "SUV", Brand: "Mazda", Model: "CX-5", Year: 2022, LicensePlate: "LMN-2345", Color: "Blue"})

	type seedRequest struct {
		id, customer, service, notes, date string
		status                             model.BookingStatus
		vehicle                            model.Vehicle
	}
	seeds := []seedRequest{
		{"REQ-001", "Kasun Perera", "Oil Change", "Please change the oil filter as well.", "2025-11-06T09:30:00Z", model.StatusPending,
			model.Vehicle{ID: "68fbad16af0882876851bfa8", Brand: "Toyota", Model: "Corolla", Year: 2020, Color: "White", LicensePlate: "ABC-1234"}},
		{"REQ-002", "Dilani Jayasuriya", "Brake Pad Replacement", "Check brake fluid level too.", "2025-11-05T15:00:00Z", model.StatusPending,
			model.Vehicle{ID: "68fbad16af0882876851bfab", Brand: "Honda", Model: "Civic", Year: 2019, Color: "Black", LicensePlate: "XYZ-4567"}},
		{"REQ-003", "Ruwan Bandara", "Full Engine Service", "Car makes noise during idle.", "2025-11-04T10:15:00Z", model.StatusPending,
			model.Vehicle{ID: "68fbad16af0882876851bfad", Brand: "Nissan", Model: "Altima", Year: 2021, Color: "Silver", LicensePlate: "JKL-8901"}},
		{"REQ-004", "Sachini Wickrama", "Wheel Alignment", "Car pulls slightly to the left.", "2025-11-03T11:45:00Z", model.StatusPending,
			model.Vehicle{ID: "68fbad16af0882876851bfaf", Brand: "Suzuki", Model: "Swift", Year: 2018, Color: "Red", LicensePlate: "QWE-5678"}},
		{"REQ-005", "Kasun Perera", "Battery Replacement", "Replace with Amaron Pro battery.", "2025-10-30T14:20:00Z", model.StatusCompleted,
			model.Vehicle{ID: "68fbad16af0882876851bfb1", Brand: "Mazda", Model: "CX-5", Year: 2022, Color: "Blue", LicensePlate: "LMN-2345"}},
		{"REQ-006", "Tharindu Gamage", "Oil Change", "", "2025-11-02T08:45:00Z", model.StatusAccepted,
			model.Vehicle{ID: "68fbad16af0882876851bfb3", Brand: "Toyota", Model: "Aqua", Year: 2017, Color: "Grey", LicensePlate: "CAB-9012"}},
		{"REQ-007", "Malsha Herath", "Wheel Alignment", "Customer will wait on site.", "2025-11-01T13:00:00Z", model.StatusInProgress,
			model.Vehicle{ID: "68fbad16af0882876851bfa1", Brand: "Honda", Model: "Vezel", Year: 2016, Color: "White", LicensePlate: "KT-3344"}},
	}
	for _, s := range seeds {
		s.vehicle.VehicleType = "Car"
		b.requests = append(b.requests, &model.Booking{
			ID:            fmt.Sprintf("req-%s", s.id[4:]),
			BookingID:     s.id,
			CustomerName:  s.customer,
			CurrentStatus: s.status,
			Date:          s.date,
			ServiceName:   s.service,
			Vehicle:       s.vehicle,
			Notes:         s.notes,
		})
	}
}

func (b *Backend) addAccount(u model.User, password string) model.User {
	u.ID = b.nextUserID
	b.nextUserID++
	b.accounts[u.Email] = &account{user: u, password: password}
	return u
}

func (b *Backend) addVehicle(owner int64, v model.Vehicle) model.Vehicle {
	v.ID = fmt.Sprintf("veh-%04d", b.nextVehID)
	b.nextVehID++
	b.vehicles = append(b.vehicles, &vehicleRecord{owner: owner, vehicle: v})
	return v
}
