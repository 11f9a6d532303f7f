package patients

import "time"

type Gender string

const (
	GenderMale    Gender = "MALE"
	GenderFemale  Gender = "FEMALE"
	GenderOther   Gender = "OTHER"
	GenderUnknown Gender = "UNKNOWN"
)

type BloodGroup string

const (
	BloodGroupAPositive  BloodGroup = "A_POSITIVE"
	BloodGroupANegative  BloodGroup = "A_NEGATIVE"
	BloodGroupBPositive  BloodGroup = "B_POSITIVE"
	BloodGroupBNegative  BloodGroup = "B_NEGATIVE"
	BloodGroupABPositive BloodGroup = "AB_POSITIVE"
	BloodGroupABNegative BloodGroup = "AB_NEGATIVE"
	BloodGroupOPositive  BloodGroup = "O_POSITIVE"
	BloodGroupONegative  BloodGroup = "O_NEGATIVE"
	BloodGroupUnknown    BloodGroup = "UNKNOWN"
)

type MaritalStatus string

const (
	MaritalSingle    MaritalStatus = "SINGLE"
	MaritalMarried   MaritalStatus = "MARRIED"
	MaritalDivorced  MaritalStatus = "DIVORCED"
	MaritalWidowed   MaritalStatus = "WIDOWED"
	MaritalSeparated MaritalStatus = "SEPARATED"
	MaritalUnknown   MaritalStatus = "UNKNOWN"
)

// Patient is a registered patient record.
type Patient struct {
	ID            int64         `json:"id"`
	UUID          string        `json:"uuid"`
	UHID          string        `json:"uhid"` // unique health id
	MRNumber      string        `json:"mrNumber,omitempty"`
	FirstName     string        `json:"firstName"`
	MiddleName    string        `json:"middleName,omitempty"`
	LastName      string        `json:"lastName"`
	FullName      string        `json:"fullName"`
	DateOfBirth   string        `json:"dateOfBirth"` // YYYY-MM-DD
	Age           int           `json:"age"`
	Gender        Gender        `json:"gender"`
	BloodGroup    BloodGroup    `json:"bloodGroup,omitempty"`
	MaritalStatus MaritalStatus `json:"maritalStatus,omitempty"`
	Nationality   string        `json:"nationality,omitempty"`
	Occupation    string        `json:"occupation,omitempty"`

	PhonePrimary   string `json:"phonePrimary"`
	PhoneSecondary string `json:"phoneSecondary,omitempty"`
	Email          string `json:"email,omitempty"`
	AddressLine1   string `json:"addressLine1,omitempty"`
	AddressLine2   string `json:"addressLine2,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Country        string `json:"country,omitempty"`

	EmergencyContactName     string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone    string `json:"emergencyContactPhone,omitempty"`
	EmergencyContactRelation string `json:"emergencyContactRelation,omitempty"`

	Allergies         string `json:"allergies,omitempty"`
	ChronicConditions string `json:"chronicConditions,omitempty"`
	Active            bool   `json:"active"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// RegistrationRequest registers a new patient
type RegistrationRequest struct {
	FirstName     string        `json:"firstName" validate:"required"`
	MiddleName    string        `json:"middleName,omitempty"`
	LastName      string        `json:"lastName" validate:"required"`
	DateOfBirth   string        `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Gender        Gender        `json:"gender" validate:"required,oneof=MALE FEMALE OTHER UNKNOWN"`
	BloodGroup    BloodGroup    `json:"bloodGroup,omitempty"`
	MaritalStatus MaritalStatus `json:"maritalStatus,omitempty"`
	Nationality   string        `json:"nationality,omitempty"`
	Occupation    string        `json:"occupation,omitempty"`

	PhonePrimary   string `json:"phonePrimary" validate:"required"`
	PhoneSecondary string `json:"phoneSecondary,omitempty"`
	Email          string `json:"email,omitempty" validate:"omitempty,email"`
	AddressLine1   string `json:"addressLine1,omitempty"`
	AddressLine2   string `json:"addressLine2,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Country        string `json:"country,omitempty"`

	EmergencyContactName     string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone    string `json:"emergencyContactPhone,omitempty"`
	EmergencyContactRelation string `json:"emergencyContactRelation,omitempty"`

	Allergies         string `json:"allergies,omitempty"`
	ChronicConditions string `json:"chronicConditions,omitempty"`
}

// UpdateRequest is a partial update; nil fields are left unchanged.
type UpdateRequest struct {
	FirstName         *string `json:"firstName,omitempty"`
	MiddleName        *string `json:"middleName,omitempty"`
	LastName          *string `json:"lastName,omitempty"`
	PhonePrimary      *string `json:"phonePrimary,omitempty"`
	Email             *string `json:"email,omitempty" validate:"omitempty,email"`
	AddressLine1      *string `json:"addressLine1,omitempty"`
	City              *string `json:"city,omitempty"`
	Allergies         *string `json:"allergies,omitempty"`
	ChronicConditions *string `json:"chronicConditions,omitempty"`
	Active            *bool   `json:"active,omitempty"`
}
