// Package http exposes the server's REST API and the websocket feed
// endpoint over a chi router.
package http

import (
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/server"
	"github.com/tabvault/tabvault/internal/service"
)

// Handler bundles the services and feed hub behind the HTTP routes.
type Handler struct {
	services *service.Services
	hub      *server.Hub
	logger   *logger.Logger
}

// NewHandler constructs a Handler.
func NewHandler(services *service.Services, hub *server.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, logger: log}
}
