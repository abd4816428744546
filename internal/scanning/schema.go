package scanning

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionSchema only checks the shape of a recognizer response. Numeric
// fields accept any scalar so that reconcile.Normalize can name the bad
// field and item instead of failing with a generic schema error.
const extractionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "merchant": {"type": ["string", "null"]},
    "date": {"type": ["string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "raw_line": {"type": ["string", "null"]},
          "name": {"type": ["string", "null"]},
          "qty": {"$ref": "#/$defs/numeric"},
          "price": {"$ref": "#/$defs/numeric"},
          "needs_manual_price": {"type": ["boolean", "null"]}
        }
      }
    },
    "subtotal": {"$ref": "#/$defs/numeric"},
    "tax": {"$ref": "#/$defs/numeric"},
    "tip": {"$ref": "#/$defs/numeric"},
    "total": {"$ref": "#/$defs/numeric"}
  },
  "$defs": {
    "numeric": {"type": ["number", "string", "boolean", "null"]}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", strings.NewReader(extractionSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("extraction.json")
}
