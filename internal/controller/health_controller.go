package controller

import (
	"context"
	"net/http"

	"github.com/klass-lk/blogboot"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Database string `json:"database"`
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Register(group *blogboot.ControllerGroup) {
	group.GET("", c.Health)
}

func (c *HealthController) Health(ctx *blogboot.Context) (interface{}, error) {
	if err := c.db.Ping(ctx.Request.Context()); err != nil {
		ctx.Logger().Warn("health check failed", zap.Error(err))
		return blogboot.Response{
			Status: http.StatusServiceUnavailable,
			Body:   healthResponse{Success: false, Status: "degraded", Database: "disconnected"},
		}, nil
	}
	return healthResponse{Success: true, Status: "ok", Database: "connected"}, nil
}
