//go:build !windows

package service

import "context"

type systemController struct{}

// NewSystemController returns a Controller whose every call fails with ErrUnsupported.
func NewSystemController() Controller { return systemController{} }

func (systemController) StartType(context.Context, string) (StartType, error) {
	return Unknown, ErrUnsupported
}

func (systemController) SetStartType(context.Context, string, StartType) error {
	return ErrUnsupported
}

func (systemController) State(context.Context, string) (State, error) {
	return StateUnknown, ErrUnsupported
}

func (systemController) Start(context.Context, string) error { return ErrUnsupported }

func (systemController) Stop(context.Context, string) error { return ErrUnsupported }
