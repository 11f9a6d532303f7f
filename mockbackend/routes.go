package mockbackend

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.echo.Use(s.record)

	// Auth
	s.echo.POST(RouteAuthLogin, s.LoginHandler)
	s.echo.POST(RouteAuthRegister, s.RegisterHandler)
	s.echo.POST(RouteAuthRefreshToken, s.RefreshTokenHandler)
	s.echo.POST(RouteAuthLogout, s.LogoutHandler)
	s.echo.GET(RouteAuthMe, s.MeHandler, s.RequireBearer)

	// Patients
	s.echo.GET(RoutePatients, s.ListPatientsHandler, s.RequireBearer)
	s.echo.POST(RoutePatients, s.RegisterPatientHandler, s.RequireBearer)
	s.echo.GET(RoutePatientByUHID, s.GetPatientByUHIDHandler, s.RequireBearer)
	s.echo.GET(RoutePatient, s.GetPatientHandler, s.RequireBearer)
	s.echo.PUT(RoutePatient, s.UpdatePatientHandler, s.RequireBearer)
	s.echo.DELETE(RoutePatientDeactivate, s.SetPatientActiveHandler(false), s.RequireBearer)
	s.echo.POST(RoutePatientActivate, s.SetPatientActiveHandler(true), s.RequireBearer)

	// Visits
	s.echo.GET(RouteVisits, s.ListVisitsHandler, s.RequireBearer)
	s.echo.POST(RouteVisits, s.CreateVisitHandler, s.RequireBearer)
	s.echo.GET(RouteVisitByNumber, s.GetVisitByNumberHandler, s.RequireBearer)
	s.echo.GET(RouteVisit, s.GetVisitHandler, s.RequireBearer)
	s.echo.PATCH(RouteVisitStatus, s.UpdateVisitStatusHandler, s.RequireBearer)
	s.echo.POST(RouteVisitCheckIn, s.CheckInHandler, s.RequireBearer)
	s.echo.GET(RoutePatientVisits, s.PatientVisitsHandler, s.RequireBearer)
	s.echo.GET(RouteDepartmentToday, s.DepartmentTodayHandler, s.RequireBearer)
	s.echo.GET(RouteDepartmentQueue, s.DepartmentQueueHandler, s.RequireBearer)
	s.echo.GET(RouteVisitsByStatus, s.VisitsByStatusHandler, s.RequireBearer)
	s.echo.GET(RouteDoctorVisits, s.DoctorVisitsHandler, s.RequireBearer)
}

// LogRoutes writes every registered route at info level
func (s *Server) LogRoutes() {
	for _, route := range s.echo.Routes() {
		log.Info().Str("method", route.Method).Str("path", route.Path).Msg("route")
	}
}

// Echo returns the underlying echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
