// Package visits is the client for the visit and OPD queue endpoints.
package visits

import (
	"context"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-hms-client/apiclient"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/pkg/errors"
)

const (
	basePath        = "/visits"
	defaultPageSize = 20
	todayPageSize   = 50
)

type Service struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api, validate: validator.New()}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Visit, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "[Service.Create] invalid request")
	}
	visit := &Visit{}
	if err := s.api.Post(ctx, basePath, req, visit); err != nil {
		return nil, errors.Wrap(err, "[Service.Create]")
	}
	return visit, nil
}

func (s *Service) Get(ctx context.Context, uuid string) (*Visit, error) {
	return s.one(ctx, basePath+"/"+url.PathEscape(uuid))
}

func (s *Service) GetByNumber(ctx context.Context, visitNumber string) (*Visit, error) {
	return s.one(ctx, basePath+"/number/"+url.PathEscape(visitNumber))
}

func (s *Service) PatientVisits(ctx context.Context, patientUUID string) ([]Visit, error) {
	return s.list(ctx, basePath+"/patient/"+url.PathEscape(patientUUID)+"/visits")
}

// DepartmentToday pages through today's visits for a department.
func (s *Service) DepartmentToday(ctx context.Context, departmentID int64, page, size int) (*apiclient.Page[Visit], error) {
	if size <= 0 {
		size = todayPageSize
	}
	result := &apiclient.Page[Visit]{}
	path := basePath + "/department/" + strconv.FormatInt(departmentID, 10) + "/today" + apiclient.PageQuery(page, size)
	if err := s.api.Get(ctx, path, result); err != nil {
		return nil, errors.Wrap(err, "[Service.DepartmentToday]")
	}
	return result, nil
}

// Queue returns the department's waiting visits in token order.
func (s *Service) Queue(ctx context.Context, departmentID int64) ([]Visit, error) {
	return s.list(ctx, basePath+"/department/"+strconv.FormatInt(departmentID, 10)+"/queue")
}

func (s *Service) List(ctx context.Context, page, size int) (*apiclient.Page[Visit], error) {
	if size <= 0 {
		size = defaultPageSize
	}
	result := &apiclient.Page[Visit]{}
	if err := s.api.Get(ctx, basePath+apiclient.PageQuery(page, size), result); err != nil {
		return nil, errors.Wrap(err, "[Service.List]")
	}
	return result, nil
}

func (s *Service) ByStatus(ctx context.Context, status Status) ([]Visit, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(hmserrors.ErrInvalidRequest, "[Service.ByStatus] status %q", status)
	}
	return s.list(ctx, basePath+"/status/"+string(status))
}

// DoctorVisits lists a doctor's visits in status; an empty status means IN_QUEUE.
func (s *Service) DoctorVisits(ctx context.Context, doctorID int64, status Status) ([]Visit, error) {
	if status == "" {
		status = StatusInQueue
	}
	path := basePath + "/doctor/" + strconv.FormatInt(doctorID, 10) + "/visits?status=" + url.QueryEscape(string(status))
	return s.list(ctx, path)
}

func (s *Service) UpdateStatus(ctx context.Context, uuid string, status Status) (*Visit, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(hmserrors.ErrInvalidRequest, "[Service.UpdateStatus] status %q", status)
	}
	visit := &Visit{}
	path := basePath + "/" + url.PathEscape(uuid) + "/status?status=" + url.QueryEscape(string(status))
	if err := s.api.Patch(ctx, path, struct{}{}, visit); err != nil {
		return nil, errors.Wrapf(err, "[Service.UpdateStatus] %s", uuid)
	}
	return visit, nil
}

func (s *Service) CheckIn(ctx context.Context, uuid string) (*Visit, error) {
	visit := &Visit{}
	if err := s.api.Post(ctx, basePath+"/"+url.PathEscape(uuid)+"/check-in", struct{}{}, visit); err != nil {
		return nil, errors.Wrapf(err, "[Service.CheckIn] %s", uuid)
	}
	return visit, nil
}

func (s *Service) one(ctx context.Context, path string) (*Visit, error) {
	visit := &Visit{}
	if err := s.api.Get(ctx, path, visit); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] %s", path)
	}
	return visit, nil
}

func (s *Service) list(ctx context.Context, path string) ([]Visit, error) {
	var result []Visit
	if err := s.api.Get(ctx, path, &result); err != nil {
		return nil, errors.Wrapf(err, "[Service.list] %s", path)
	}
	return result, nil
}
