package mockbackend

// Route path constants, relative to the echo root
const (
	// Auth Routes
	RouteAuthLogin        = "/api/auth/login"
	RouteAuthRegister     = "/api/auth/register"
	RouteAuthRefreshToken = "/api/auth/refresh-token"
	RouteAuthLogout       = "/api/auth/logout"
	RouteAuthMe           = "/api/auth/me"

	// Patient Routes
	RoutePatients          = "/api/patients"
	RoutePatient           = "/api/patients/:uuid"
	RoutePatientByUHID     = "/api/patients/uhid/:uhid"
	RoutePatientDeactivate = "/api/patients/:uuid/deactivate"
	RoutePatientActivate   = "/api/patients/:uuid/activate"

	// Visit Routes
	RouteVisits          = "/api/visits"
	RouteVisit           = "/api/visits/:uuid"
	RouteVisitByNumber   = "/api/visits/number/:number"
	RouteVisitStatus     = "/api/visits/:uuid/status"
	RouteVisitCheckIn    = "/api/visits/:uuid/check-in"
	RoutePatientVisits   = "/api/visits/patient/:uuid/visits"
	RouteDepartmentToday = "/api/visits/department/:id/today"
	RouteDepartmentQueue = "/api/visits/department/:id/queue"
	RouteVisitsByStatus  = "/api/visits/status/:status"
	RouteDoctorVisits    = "/api/visits/doctor/:id/visits"
)
