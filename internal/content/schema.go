package content

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the project file format, for editor
// validation of hand-written stage content.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&Project{})
	schema.Title = "Stage Simulator Project"
	schema.Description = "Authored objects (sprites, bullets, players, enemies, bosses, stages, scripts) read by the stage simulator."
	return schema
}

// SchemaJSON returns the indented JSON encoding of Schema.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("content: marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
