package model

import (
	"net/mail"
	"time"
)

// Role is a user's platform role.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleCourier    Role = "courier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin, RoleSupervisor, RoleCourier:
		return true
	}
	return false
}

// IsStaff reports whether the role administers the platform.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// User is a profile record.
type User struct {
	ID              string    `json:"id" db:"id"`
	DisplayName     string    `json:"displayName" db:"display_name"`
	Email           string    `json:"email" db:"email"`
	Phone           string    `json:"phone,omitempty" db:"phone"`
	Role            Role      `json:"role" db:"role"`
	Active          bool      `json:"active" db:"active"`
	BusinessName    string    `json:"businessName,omitempty" db:"business_name"`
	BusinessAddress string    `json:"businessAddress,omitempty" db:"business_address"`
	Location        string    `json:"location,omitempty" db:"location"`
	Latitude        *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64  `json:"longitude,omitempty" db:"longitude"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Account is the credential record backing a profile.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserData is the profile payload used by registration and admin creation.
type UserData struct {
	DisplayName     string   `json:"displayName"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Phone           string   `json:"phone"`
	Role            Role     `json:"role"`
	BusinessName    string   `json:"businessName"`
	BusinessAddress string   `json:"businessAddress"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// Validate checks the fields required to create an account.
func (d *UserData) Validate() error {
	v := NewValidationError()
	if d.DisplayName == "" {
		v.Add("displayName", "is required")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		v.Add("email", "must be a valid email address")
	}
	if len(d.Password) < 6 {
		v.Add("password", "must be at least 6 characters")
	}
	if !d.Role.Valid() {
		v.Add("role", "must be one of customer, seller, admin, supervisor, courier")
	}
	if d.Role == RoleSeller && d.BusinessName == "" {
		v.Add("businessName", "is required for sellers")
	}
	return v.OrNil()
}

// CreateUserRequest is the admin user-creation payload.
type CreateUserRequest struct {
	UserData   UserData `json:"userData"`
	AdminToken string   `json:"adminToken"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the profile.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfileUpdate is a self-service or admin profile edit. Nil fields are left as-is.
type ProfileUpdate struct {
	DisplayName     *string  `json:"displayName"`
	Phone           *string  `json:"phone"`
	BusinessName    *string  `json:"businessName"`
	BusinessAddress *string  `json:"businessAddress"`
	Location        *string  `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// Apply copies the set fields onto u.
func (p *ProfileUpdate) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.BusinessName != nil {
		u.BusinessName = *p.BusinessName
	}
	if p.BusinessAddress != nil {
		u.BusinessAddress = *p.BusinessAddress
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	if p.Latitude != nil {
		u.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		u.Longitude = p.Longitude
	}
}

// SetActiveRequest toggles the active flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// Courier holds the verification and vehicle records of a courier user.
type Courier struct {
	UserID                     string    `json:"userId" db:"user_id"`
	BusinessName               string    `json:"businessName" db:"business_name"`
	BusinessRegistrationNumber string    `json:"businessRegistrationNumber" db:"business_registration_number"`
	TaxID                      string    `json:"taxId,omitempty" db:"tax_id"`
	DriversLicenseNumber       string    `json:"driversLicenseNumber" db:"drivers_license_number"`
	NationalIDNumber           string    `json:"nationalIdNumber" db:"national_id_number"`
	DriversLicenseURL          string    `json:"driversLicenseUrl,omitempty" db:"drivers_license_url"`
	NationalIDURL              string    `json:"nationalIdUrl,omitempty" db:"national_id_url"`
	BusinessCertificateURL     string    `json:"businessCertificateUrl,omitempty" db:"business_certificate_url"`
	VehicleType                string    `json:"vehicleType" db:"vehicle_type"`
	VehicleRegistration        string    `json:"vehicleRegistration" db:"vehicle_registration"`
	VehicleInsuranceURL        string    `json:"vehicleInsuranceUrl,omitempty" db:"vehicle_insurance_url"`
	CreatedAt                  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt                  time.Time `json:"updatedAt" db:"updated_at"`
}

// Validate checks the required courier fields.
func (c *Courier) Validate() error {
	v := NewValidationError()
	if c.UserID == "" {
		v.Add("userId", "is required")
	}
	if c.DriversLicenseNumber == "" {
		v.Add("driversLicenseNumber", "is required")
	}
	if c.NationalIDNumber == "" {
		v.Add("nationalIdNumber", "is required")
	}
	if c.VehicleType == "" {
		v.Add("vehicleType", "is required")
	}
	if c.VehicleRegistration == "" {
		v.Add("vehicleRegistration", "is required")
	}
	return v.OrNil()
}
