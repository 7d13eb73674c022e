// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/logiclens/gatepass-go/internal/application/services"
	"github.com/logiclens/gatepass-go/internal/infrastructure/messaging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/performance"
	"github.com/logiclens/gatepass-go/internal/infrastructure/persistence/database"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	VisitorService   *services.VisitorService
	DispatchService  *services.DispatchService
	ExportService    *services.ExportService
	AdminAuthService *services.AdminAuthService

	// Infrastructure
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Broadcaster *messaging.Broadcaster
	DB          *database.DB
}

// NewContainer wires the singleton services together. Construction of the
// infrastructure pieces happens in startup; the container only holds them.
func NewContainer(
	visitorService *services.VisitorService,
	dispatchService *services.DispatchService,
	exportService *services.ExportService,
	adminAuthService *services.AdminAuthService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	broadcaster *messaging.Broadcaster,
	db *database.DB,
) *Container {
	return &Container{
		VisitorService:   visitorService,
		DispatchService:  dispatchService,
		ExportService:    exportService,
		AdminAuthService: adminAuthService,
		Logger:           logger,
		PerfTracker:      perfTracker,
		Broadcaster:      broadcaster,
		DB:               db,
	}
}
