// Package patients is the client for the patient registry endpoints.
package patients

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-hms-client/apiclient"
	"github.com/pkg/errors"
)

const (
	basePath        = "/patients"
	defaultPageSize = 20
)

type Service struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api, validate: validator.New()}
}

func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] invalid request")
	}
	patient := &Patient{}
	if err := s.api.Post(ctx, basePath, req, patient); err != nil {
		return nil, errors.Wrap(err, "[Service.Register]")
	}
	return patient, nil
}

func (s *Service) Get(ctx context.Context, uuid string) (*Patient, error) {
	patient := &Patient{}
	if err := s.api.Get(ctx, basePath+"/"+url.PathEscape(uuid), patient); err != nil {
		return nil, errors.Wrapf(err, "[Service.Get] %s", uuid)
	}
	return patient, nil
}

func (s *Service) GetByUHID(ctx context.Context, uhid string) (*Patient, error) {
	patient := &Patient{}
	if err := s.api.Get(ctx, basePath+"/uhid/"+url.PathEscape(uhid), patient); err != nil {
		return nil, errors.Wrapf(err, "[Service.GetByUHID] %s", uhid)
	}
	return patient, nil
}

// Search matches query against names, UHID and phone. An empty query lists everything.
func (s *Service) Search(ctx context.Context, query string, page, size int) (*apiclient.Page[Patient], error) {
	if size <= 0 {
		size = defaultPageSize
	}
	result := &apiclient.Page[Patient]{}
	if err := s.api.Get(ctx, basePath+apiclient.PageQuery(page, size, "query", query), result); err != nil {
		return nil, errors.Wrap(err, "[Service.Search]")
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, page, size int) (*apiclient.Page[Patient], error) {
	return s.Search(ctx, "", page, size)
}

func (s *Service) Update(ctx context.Context, uuid string, req UpdateRequest) (*Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "[Service.Update] invalid request")
	}
	patient := &Patient{}
	if err := s.api.Put(ctx, basePath+"/"+url.PathEscape(uuid), req, patient); err != nil {
		return nil, errors.Wrapf(err, "[Service.Update] %s", uuid)
	}
	return patient, nil
}

func (s *Service) Deactivate(ctx context.Context, uuid string) error {
	if err := s.api.Delete(ctx, basePath+"/"+url.PathEscape(uuid)+"/deactivate", nil); err != nil {
		return errors.Wrapf(err, "[Service.Deactivate] %s", uuid)
	}
	return nil
}

func (s *Service) Activate(ctx context.Context, uuid string) error {
	if err := s.api.Post(ctx, basePath+"/"+url.PathEscape(uuid)+"/activate", struct{}{}, nil); err != nil {
		return errors.Wrapf(err, "[Service.Activate] %s", uuid)
	}
	return nil
}
