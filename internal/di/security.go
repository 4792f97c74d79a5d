package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// SecurityModule provides security-related dependencies
var SecurityModule = fx.Module("security",
	fx.Provide(
		provideJWTProvider,
		provideSecurityService,
	),
)

func provideJWTProvider(cfg *config.JWTConfig) *security.JWTProvider {
	return security.NewJWTProvider(cfg)
}

func provideSecurityService(jwtProvider *security.JWTProvider) *security.SecurityService {
	return security.NewSecurityService(jwtProvider)
}
