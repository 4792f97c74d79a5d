package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository/impl"
)

// RepositoryModule provides repository dependencies.
// Every repository is a typed view over the shared DocumentStore.
var RepositoryModule = fx.Module("repository",
	fx.Provide(
		impl.NewUserRepository,
		impl.NewConnectionRepository,
		impl.NewHasShownRepository,
		impl.NewMessageRepository,
		impl.NewProfileRepository,
	),
)
