package addresses

import "time"

const DefaultCountry = "Haïti"

type Address struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Telephone      string    `json:"telephone"`
	Street         string    `json:"street"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	ZipCode        string    `json:"zipCode"`
	Country        string    `json:"country"`
	AddressDetails string    `json:"addressDetails"`
	Default        bool      `json:"default"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Input is the payload for creating an address, standalone or inline with an order.
type Input struct {
	FirstName      string `json:"firstName" validate:"required"`
	LastName       string `json:"lastName" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Telephone      string `json:"telephone" validate:"required"`
	Street         string `json:"street" validate:"required"`
	City           string `json:"city" validate:"required"`
	State          string `json:"state"`
	ZipCode        string `json:"zipCode"`
	Country        string `json:"country"`
	AddressDetails string `json:"addressDetails"`
}

// ToAddress builds an unsaved address for userID, filling defaults.
func (in Input) ToAddress(userID int64) *Address {
	country := in.Country
	if country == "" {
		country = DefaultCountry
	}
	return &Address{
		UserID:         userID,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Telephone:      in.Telephone,
		Street:         in.Street,
		City:           in.City,
		State:          in.State,
		ZipCode:        in.ZipCode,
		Country:        country,
		AddressDetails: in.AddressDetails,
	}
}

// UpdateInput changes only the non-empty fields.
type UpdateInput struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email" validate:"omitempty,email"`
	Telephone      string `json:"telephone"`
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zipCode"`
	Country        string `json:"country"`
	AddressDetails string `json:"addressDetails"`
}

func (in UpdateInput) apply(a *Address) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.FirstName, in.FirstName)
	set(&a.LastName, in.LastName)
	set(&a.Email, in.Email)
	set(&a.Telephone, in.Telephone)
	set(&a.Street, in.Street)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.ZipCode, in.ZipCode)
	set(&a.Country, in.Country)
	set(&a.AddressDetails, in.AddressDetails)
}
