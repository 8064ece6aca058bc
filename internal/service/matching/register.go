package matching

import (
	"google.golang.org/grpc"

	"github.com/oggyb/us-matching/internal/api"
	"github.com/oggyb/us-matching/internal/app"
)

// Registrar ties the matching service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
	svc    *Service
}

// NewRegistrar creates a new Registrar for the matching service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// WithService registers an already built service instead of building one.
func (r *Registrar) WithService(svc *Service) *Registrar {
	r.svc = svc
	return r
}

// Register attaches the matching service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	svc := r.svc
	if svc == nil {
		svc = NewService(r.appCtx)
	}
	api.RegisterMatchingServiceServer(s, svc)
}
