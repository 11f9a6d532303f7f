package visits

import "time"

type Type string

const (
	TypeOPD          Type = "OPD"
	TypeIPD          Type = "IPD"
	TypeEmergency    Type = "EMERGENCY"
	TypeFollowUp     Type = "FOLLOW_UP"
	TypeConsultation Type = "CONSULTATION"
)

type Status string

const (
	StatusRegistered     Status = "REGISTERED"
	StatusInQueue        Status = "IN_QUEUE"
	StatusInConsultation Status = "IN_CONSULTATION"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
	StatusNoShow         Status = "NO_SHOW"
	StatusReferred       Status = "REFERRED"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusInQueue, StatusInConsultation, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusReferred:
		return true
	}
	return false
}

// Visit is one patient encounter.
type Visit struct {
	UUID        string `json:"uuid"`
	VisitNumber string `json:"visitNumber"`

	PatientUUID string `json:"patientUuid"`
	PatientUHID string `json:"patientUhid"`
	PatientName string `json:"patientName"`
	PatientID   int64  `json:"patientId"`

	VisitType      Type   `json:"visitType"`
	VisitDate      string `json:"visitDate"`
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName,omitempty"`
	DoctorID       int64  `json:"doctorId,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	Status         Status `json:"status"`
	ChiefComplaint string `json:"chiefComplaint,omitempty"`
	Notes          string `json:"notes,omitempty"`

	Diagnosis     string `json:"diagnosis,omitempty"`
	TreatmentPlan string `json:"treatmentPlan,omitempty"`
	Prescription  string `json:"prescription,omitempty"`

	TokenNumber int        `json:"tokenNumber"`
	Priority    int        `json:"priority"`
	CheckInTime *time.Time `json:"checkInTime,omitempty"`
	FollowUp    bool       `json:"followUp"`
	Billed      bool       `json:"billed"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type CreateRequest struct {
	PatientID      int64  `json:"patientId" validate:"required,gt=0"`
	VisitType      Type   `json:"visitType" validate:"required,oneof=OPD IPD EMERGENCY FOLLOW_UP CONSULTATION"`
	DepartmentID   int64  `json:"departmentId" validate:"required,gt=0"`
	DepartmentName string `json:"departmentName,omitempty"`
	DoctorID       int64  `json:"doctorId,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	ChiefComplaint string `json:"chiefComplaint,omitempty"`
	Notes          string `json:"notes,omitempty"`
	FollowUp       bool   `json:"isFollowUp,omitempty"`
	Priority       int    `json:"priority,omitempty" validate:"gte=0"`
}
