package importer

import "go.uber.org/fx"

// ProvenanceModule provides only the provenance store, for processes that
// follow imports without running them.
var ProvenanceModule = fx.Provide(NewProvenanceStore)

// Module provides the import service and its provenance store to Fx.
var Module = fx.Options(
	ProvenanceModule,
	fx.Provide(NewService),
)
