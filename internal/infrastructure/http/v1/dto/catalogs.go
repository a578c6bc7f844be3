package dto

import (
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/catalogs/truck"
)

// --- Parts ---

// CreatePartRequest is the request body for creating a part.
type CreatePartRequest struct {
	Number      string         `json:"number" binding:"required"`
	Description string         `json:"description" binding:"required"`
	CategoryID  *string        `json:"categoryId"`
	UnitCost    types.Money    `json:"unitCost"`
	MinQuantity types.Quantity `json:"minQuantity"`
	Notes       string         `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartRequest) ToEntity() (*part.Part, error) {
	p := part.New(r.Number, r.Description)
	p.UnitCost = r.UnitCost
	p.MinQuantity = r.MinQuantity
	p.Notes = r.Notes
	if r.CategoryID != nil {
		categoryID, err := id.Parse(*r.CategoryID)
		if err != nil {
			return nil, err
		}
		p.CategoryID = &categoryID
	}
	return p, nil
}

// UpdatePartRequest is the request body for updating a part.
type UpdatePartRequest struct {
	Number      string         `json:"number" binding:"required"`
	Description string         `json:"description" binding:"required"`
	CategoryID  *string        `json:"categoryId"`
	UnitCost    types.Money    `json:"unitCost"`
	MinQuantity types.Quantity `json:"minQuantity"`
	Notes       string         `json:"notes"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePartRequest) ApplyTo(p *part.Part) error {
	p.Code = r.Number
	p.Description = r.Description
	p.Name = r.Description
	p.UnitCost = r.UnitCost
	p.MinQuantity = r.MinQuantity
	p.Notes = r.Notes
	p.CategoryID = nil
	if r.CategoryID != nil {
		categoryID, err := id.Parse(*r.CategoryID)
		if err != nil {
			return err
		}
		p.CategoryID = &categoryID
	}
	return nil
}

// --- Suppliers ---

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code           string `json:"code"`
	Name           string `json:"name" binding:"required"`
	ContactName    string `json:"contactName"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	IsSupplyHouse  bool   `json:"isSupplyHouse"`
	OperatingHours string `json:"operatingHours"`
	Notes          string `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.Name)
	s.Code = r.Code
	s.ContactName = r.ContactName
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	s.IsSupplyHouse = r.IsSupplyHouse
	s.OperatingHours = r.OperatingHours
	s.Notes = r.Notes
	return s
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code           string `json:"code"`
	Name           string `json:"name" binding:"required"`
	ContactName    string `json:"contactName"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	IsSupplyHouse  bool   `json:"isSupplyHouse"`
	OperatingHours string `json:"operatingHours"`
	Notes          string `json:"notes"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Code = r.Code
	s.Name = r.Name
	s.ContactName = r.ContactName
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	s.IsSupplyHouse = r.IsSupplyHouse
	s.OperatingHours = r.OperatingHours
	s.Notes = r.Notes
}

// --- Trucks ---

// CreateTruckRequest is the request body for creating a truck.
type CreateTruckRequest struct {
	Number     string `json:"number" binding:"required"`
	Name       string `json:"name" binding:"required"`
	AssignedTo string `json:"assignedTo"`
	Notes      string `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateTruckRequest) ToEntity() *truck.Truck {
	t := truck.New(r.Number, r.Name)
	t.AssignedTo = r.AssignedTo
	t.Notes = r.Notes
	return t
}

// UpdateTruckRequest is the request body for updating a truck.
type UpdateTruckRequest struct {
	Number     string `json:"number" binding:"required"`
	Name       string `json:"name" binding:"required"`
	AssignedTo string `json:"assignedTo"`
	IsActive   bool   `json:"isActive"`
	Notes      string `json:"notes"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateTruckRequest) ApplyTo(t *truck.Truck) {
	t.Code = r.Number
	t.Name = r.Name
	t.AssignedTo = r.AssignedTo
	t.IsActive = r.IsActive
	t.Notes = r.Notes
}

// --- Jobs ---

// CreateJobRequest is the request body for creating a job.
type CreateJobRequest struct {
	Name     string `json:"name" binding:"required"`
	Customer string `json:"customer"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

// ToEntity converts DTO to domain entity. The job number is assigned at save
// time.
func (r *CreateJobRequest) ToEntity() *job.Job {
	j := job.New(r.Name, r.Customer)
	j.Address = r.Address
	j.Notes = r.Notes
	return j
}

// UpdateJobRequest is the request body for updating a job.
type UpdateJobRequest struct {
	Name     string `json:"name" binding:"required"`
	Customer string `json:"customer"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`
}

// ApplyTo applies update DTO to existing entity. Status moves through the
// complete/cancel operations, not updates.
func (r *UpdateJobRequest) ApplyTo(j *job.Job) {
	j.Name = r.Name
	j.Customer = r.Customer
	j.Address = r.Address
	j.Notes = r.Notes
}
