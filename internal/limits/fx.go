package limits

import (
	"github.com/smallbiznis/eventtria/internal/limits/service"
	"go.uber.org/fx"
)

var Module = fx.Module("limits.resolver",
	fx.Provide(service.NewResolver),
)
