package mockbackend

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/jrsteele09/go-hms-client/patients"
	"github.com/jrsteele09/go-hms-client/visits"
)

// Clinic is the in-memory patient registry and visit book.
type Clinic struct {
	lock     sync.RWMutex
	patients []*patients.Patient
	visits   []*visits.Visit
	nextID   int64
	nowTime  func() time.Time
}

func NewClinic(nowTime func() time.Time) *Clinic {
	return &Clinic{nowTime: nowTime, nextID: 1}
}

// Seed registers two patients with one queued OPD visit each
func (c *Clinic) Seed() {
	seeds := []patients.RegistrationRequest{
		{FirstName: "Asha", LastName: "Rao", DateOfBirth: "1988-04-12", Gender: patients.GenderFemale, PhonePrimary: "+919800000001"},
		{FirstName: "Vikram", LastName: "Singh", DateOfBirth: "1975-11-02", Gender: patients.GenderMale, PhonePrimary: "+919800000002"},
	}
	for _, req := range seeds {
		patient := c.RegisterPatient(req)
		_, _ = c.CreateVisit(visits.CreateRequest{
			PatientID:      patient.ID,
			VisitType:      visits.TypeOPD,
			DepartmentID:   1,
			DepartmentName: "General Medicine",
			ChiefComplaint: "Fever",
		})
	}
}

func (c *Clinic) RegisterPatient(req patients.RegistrationRequest) *patients.Patient {
	c.lock.Lock()
	defer c.lock.Unlock()
	now := c.nowTime()
	id := c.nextID
	c.nextID++
	patient := &patients.Patient{
		ID:                id,
		UUID:              uuid.NewString(),
		UHID:              fmt.Sprintf("UHID%08d", id),
		FirstName:         req.FirstName,
		MiddleName:        req.MiddleName,
		LastName:          req.LastName,
		FullName:          strings.Join(strings.Fields(req.FirstName+" "+req.MiddleName+" "+req.LastName), " "),
		DateOfBirth:       req.DateOfBirth,
		Age:               age(req.DateOfBirth, now),
		Gender:            req.Gender,
		BloodGroup:        req.BloodGroup,
		MaritalStatus:     req.MaritalStatus,
		PhonePrimary:      req.PhonePrimary,
		Email:             req.Email,
		City:              req.City,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		Active:            true,
		CreatedAt:         &now,
		UpdatedAt:         &now,
	}
	c.patients = append(c.patients, patient)
	clone := *patient
	return &clone
}

// Patient finds a patient by uuid or, when byUHID is set, by UHID.
func (c *Clinic) Patient(key string, byUHID bool) (*patients.Patient, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	for _, p := range c.patients {
		if (!byUHID && p.UUID == key) || (byUHID && p.UHID == key) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, hmserrors.ErrNotFound
}

// SearchPatients matches query case-insensitively against name, UHID and phone
func (c *Clinic) SearchPatients(query string) []patients.Patient {
	c.lock.RLock()
	defer c.lock.RUnlock()
	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]patients.Patient, 0, len(c.patients))
	for _, p := range c.patients {
		haystack := strings.ToLower(p.FullName + " " + p.UHID + " " + p.PhonePrimary)
		if query == "" || strings.Contains(haystack, query) {
			result = append(result, *p)
		}
	}
	return result
}

func (c *Clinic) UpdatePatient(uuid string, req patients.UpdateRequest) (*patients.Patient, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, p := range c.patients {
		if p.UUID != uuid {
			continue
		}
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&p.FirstName, req.FirstName)
		set(&p.MiddleName, req.MiddleName)
		set(&p.LastName, req.LastName)
		set(&p.PhonePrimary, req.PhonePrimary)
		set(&p.Email, req.Email)
		set(&p.AddressLine1, req.AddressLine1)
		set(&p.City, req.City)
		set(&p.Allergies, req.Allergies)
		set(&p.ChronicConditions, req.ChronicConditions)
		if req.Active != nil {
			p.Active = *req.Active
		}
		p.FullName = strings.Join(strings.Fields(p.FirstName+" "+p.MiddleName+" "+p.LastName), " ")
		now := c.nowTime()
		p.UpdatedAt = &now
		clone := *p
		return &clone, nil
	}
	return nil, hmserrors.ErrNotFound
}

func (c *Clinic) SetPatientActive(uuid string, active bool) error {
	_, err := c.UpdatePatient(uuid, patients.UpdateRequest{Active: &active})
	return err
}

// CreateVisit books a visit and puts it in the department queue with the next token number.
func (c *Clinic) CreateVisit(req visits.CreateRequest) (*visits.Visit, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	idx := slices.IndexFunc(c.patients, func(p *patients.Patient) bool { return p.ID == req.PatientID })
	if idx < 0 {
		return nil, hmserrors.ErrNotFound
	}
	patient := c.patients[idx]

	now := c.nowTime()
	token := 1
	for _, v := range c.visits {
		if v.DepartmentID == req.DepartmentID && sameDay(v.CreatedAt, now) {
			token++
		}
	}
	visit := &visits.Visit{
		UUID:           uuid.NewString(),
		VisitNumber:    fmt.Sprintf("V%s%04d", now.Format("20060102"), len(c.visits)+1),
		PatientUUID:    patient.UUID,
		PatientUHID:    patient.UHID,
		PatientName:    patient.FullName,
		PatientID:      patient.ID,
		VisitType:      req.VisitType,
		VisitDate:      now.Format("2006-01-02"),
		DepartmentID:   req.DepartmentID,
		DepartmentName: req.DepartmentName,
		DoctorID:       req.DoctorID,
		DoctorName:     req.DoctorName,
		Status:         visits.StatusInQueue,
		ChiefComplaint: req.ChiefComplaint,
		Notes:          req.Notes,
		TokenNumber:    token,
		Priority:       req.Priority,
		FollowUp:       req.FollowUp,
		CreatedAt:      &now,
		UpdatedAt:      &now,
	}
	c.visits = append(c.visits, visit)
	clone := *visit
	return &clone, nil
}

// Visits returns the visits accepted by keep, in booking order
func (c *Clinic) Visits(keep func(*visits.Visit) bool) []visits.Visit {
	c.lock.RLock()
	defer c.lock.RUnlock()
	result := make([]visits.Visit, 0)
	for _, v := range c.visits {
		if keep(v) {
			result = append(result, *v)
		}
	}
	return result
}

// UpdateVisit applies mutate to the visit with the given uuid
func (c *Clinic) UpdateVisit(uuid string, mutate func(*visits.Visit)) (*visits.Visit, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, v := range c.visits {
		if v.UUID == uuid {
			mutate(v)
			now := c.nowTime()
			v.UpdatedAt = &now
			clone := *v
			return &clone, nil
		}
	}
	return nil, hmserrors.ErrNotFound
}

// Today reports whether v was booked on the current day
func (c *Clinic) Today(v *visits.Visit) bool {
	return sameDay(v.CreatedAt, c.nowTime())
}

func sameDay(t *time.Time, now time.Time) bool {
	if t == nil {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func age(dateOfBirth string, now time.Time) int {
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return 0
	}
	years := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		years--
	}
	return years
}
