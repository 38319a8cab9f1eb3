package config

import (
	"context"

	"devicelink-go/bus"
	"devicelink-go/errcode"
	"devicelink-go/pkg/logging"
	"devicelink-go/x/strx"
)

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	cfg  Config
}

func NewConfigService(cfg Config) *ConfigService {
	return &ConfigService{Name: serviceName, cfg: cfg}
}

// publishConfig publishes each section of the loaded config as a retained
// message under config/<section>. Credentials are masked.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.New(errcode.MissingTarget, "config.publish", "missing device ID in context")
	}

	bc := s.cfg.Broadcast
	bc.Pass = strx.Mask(bc.Pass)
	st := s.cfg.Station
	st.Pass = strx.Mask(st.Pass)

	sections := map[string]any{
		"device":          device,
		"broadcast":       bc,
		"station":         st,
		"connect_timeout": s.cfg.ConnectTimeout.String(),
		"indicator":       s.cfg.Indicator,
		"loop":            s.cfg.Loop,
		"log":             s.cfg.Log,
	}
	for k, v := range sections {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the config synchronously; retained messages make the order
// relative to subscribers irrelevant.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) error {
	if err := s.publishConfig(ctx, conn); err != nil {
		logging.Error(serviceName, err, "publish failed")
		return err
	}
	return nil
}
