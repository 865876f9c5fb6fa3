package actions

import (
	"context"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/service"
)

// Actions structure
type Actions struct {
	ctx     context.Context
	cfg     config.Config
	service *service.Service
}

// NewActions constructor
func NewActions(cfg config.Config, srv *service.Service, ctx context.Context) *Actions {
	return &Actions{
		ctx:     ctx,
		cfg:     cfg,
		service: srv,
	}
}
