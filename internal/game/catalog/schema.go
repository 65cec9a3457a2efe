package catalog

import (
	"github.com/invopop/jsonschema"

	"shakeout/server/internal/game"
)

// ModeConfigSchema describes the configuration a host sends to start a game.
// It is served to host tooling and written out by cmd/schema.
func ModeConfigSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(game.ModeConfig))
	schema.Title = "Shakeout Mode Configuration"
	schema.Description = "Rules for one game: mode, damage tuning, round timing and mode-specific options."
	return schema
}
