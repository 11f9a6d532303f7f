package mockbackend

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/jrsteele09/go-hms-client/patients"
	"github.com/jrsteele09/go-hms-client/visits"
	"github.com/labstack/echo/v4"
)

const defaultPageSize = 20

func (s *Server) ListPatientsHandler(c echo.Context) error {
	page, size := pageParams(c)
	return c.JSON(http.StatusOK, paginate(s.clinic.SearchPatients(c.QueryParam("query")), page, size))
}

func (s *Server) RegisterPatientHandler(c echo.Context) error {
	req := patients.RegistrationRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.clinic.RegisterPatient(req))
}

func (s *Server) GetPatientHandler(c echo.Context) error {
	patient, err := s.clinic.Patient(c.Param("uuid"), false)
	if err != nil {
		return problem(http.StatusNotFound, "Patient not found")
	}
	return c.JSON(http.StatusOK, patient)
}

func (s *Server) GetPatientByUHIDHandler(c echo.Context) error {
	patient, err := s.clinic.Patient(c.Param("uhid"), true)
	if err != nil {
		return problem(http.StatusNotFound, "Patient not found")
	}
	return c.JSON(http.StatusOK, patient)
}

func (s *Server) UpdatePatientHandler(c echo.Context) error {
	req := patients.UpdateRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	patient, err := s.clinic.UpdatePatient(c.Param("uuid"), req)
	if err != nil {
		return problem(http.StatusNotFound, "Patient not found")
	}
	return c.JSON(http.StatusOK, patient)
}

func (s *Server) SetPatientActiveHandler(active bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := s.clinic.SetPatientActive(c.Param("uuid"), active); err != nil {
			return problem(http.StatusNotFound, "Patient not found")
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func (s *Server) ListVisitsHandler(c echo.Context) error {
	page, size := pageParams(c)
	all := s.clinic.Visits(func(*visits.Visit) bool { return true })
	return c.JSON(http.StatusOK, paginate(all, page, size))
}

func (s *Server) CreateVisitHandler(c echo.Context) error {
	req := visits.CreateRequest{}
	if err := s.bindAndValidate(c, &req); err != nil {
		return err
	}
	visit, err := s.clinic.CreateVisit(req)
	if err != nil {
		return problem(http.StatusNotFound, "Patient not found")
	}
	return c.JSON(http.StatusCreated, visit)
}

func (s *Server) GetVisitHandler(c echo.Context) error {
	return s.oneVisit(c, func(v *visits.Visit) bool { return v.UUID == c.Param("uuid") })
}

func (s *Server) GetVisitByNumberHandler(c echo.Context) error {
	return s.oneVisit(c, func(v *visits.Visit) bool { return v.VisitNumber == c.Param("number") })
}

func (s *Server) UpdateVisitStatusHandler(c echo.Context) error {
	status := visits.Status(c.QueryParam("status"))
	if !status.Valid() {
		return problem(http.StatusBadRequest, "Unknown visit status")
	}
	visit, err := s.clinic.UpdateVisit(c.Param("uuid"), func(v *visits.Visit) { v.Status = status })
	if err != nil {
		return problem(http.StatusNotFound, "Visit not found")
	}
	return c.JSON(http.StatusOK, visit)
}

func (s *Server) CheckInHandler(c echo.Context) error {
	now := s.nowTime()
	visit, err := s.clinic.UpdateVisit(c.Param("uuid"), func(v *visits.Visit) {
		v.CheckInTime = &now
		v.Status = visits.StatusInQueue
	})
	if err != nil {
		return problem(http.StatusNotFound, "Visit not found")
	}
	return c.JSON(http.StatusOK, visit)
}

func (s *Server) PatientVisitsHandler(c echo.Context) error {
	uuid := c.Param("uuid")
	return c.JSON(http.StatusOK, s.clinic.Visits(func(v *visits.Visit) bool { return v.PatientUUID == uuid }))
}

func (s *Server) DepartmentTodayHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return problem(http.StatusBadRequest, "Invalid department id")
	}
	page, size := pageParams(c)
	today := s.clinic.Visits(func(v *visits.Visit) bool { return v.DepartmentID == id && s.clinic.Today(v) })
	return c.JSON(http.StatusOK, paginate(today, page, size))
}

// DepartmentQueueHandler lists waiting visits by priority, then token number.
func (s *Server) DepartmentQueueHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return problem(http.StatusBadRequest, "Invalid department id")
	}
	queue := s.clinic.Visits(func(v *visits.Visit) bool {
		return v.DepartmentID == id && v.Status == visits.StatusInQueue
	})
	slices.SortStableFunc(queue, func(a, b visits.Visit) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		return a.TokenNumber - b.TokenNumber
	})
	return c.JSON(http.StatusOK, queue)
}

func (s *Server) VisitsByStatusHandler(c echo.Context) error {
	status := visits.Status(c.Param("status"))
	if !status.Valid() {
		return problem(http.StatusBadRequest, "Unknown visit status")
	}
	return c.JSON(http.StatusOK, s.clinic.Visits(func(v *visits.Visit) bool { return v.Status == status }))
}

func (s *Server) DoctorVisitsHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return problem(http.StatusBadRequest, "Invalid doctor id")
	}
	status := visits.Status(c.QueryParam("status"))
	return c.JSON(http.StatusOK, s.clinic.Visits(func(v *visits.Visit) bool {
		return v.DoctorID == id && (status == "" || v.Status == status)
	}))
}

func (s *Server) oneVisit(c echo.Context, match func(*visits.Visit) bool) error {
	found := s.clinic.Visits(match)
	if len(found) == 0 {
		return problem(http.StatusNotFound, "Visit not found")
	}
	return c.JSON(http.StatusOK, found[0])
}

func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	return page, size
}

func paginate[T any](items []T, page, size int) apiclient.Page[T] {
	total := len(items)
	start := min(page*size, total)
	end := min(start+size, total)
	return apiclient.Page[T]{
		Content:       items[start:end],
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
		Size:          size,
		Number:        page,
	}
}
