package toolregistry

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// selectorProps is the shared fragment every selector-accepting tool embeds:
// {selector_strategy, selector_value, ...}.
const selectorProps = `
	"selector_strategy": {
		"type": "string",
		"enum": ["css", "text", "aria_label", "placeholder"],
		"description": "Strategy used to locate the target element"
	},
	"selector_value": {
		"type": "string",
		"description": "The selector value interpreted under selector_strategy"
	}`

var rawSchemas = map[string]string{
	"navigate_to_url": `{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "Absolute URL to navigate to"},
			"wait_for_load": {"type": "boolean", "description": "Wait for the load event before returning (default true)"}
		},
		"required": ["url"]
	}`,
	"go_back":    `{"type": "object", "properties": {}}`,
	"go_forward": `{"type": "object", "properties": {}}`,
	"reload_page": `{
		"type": "object",
		"properties": {
			"ignore_cache": {"type": "boolean", "description": "Bypass the browser cache (default false)"}
		}
	}`,
	"click_element": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"button": {"type": "string", "enum": ["left", "middle", "right"], "description": "Mouse button to use (default left)"},
			"click_count": {"type": "integer", "description": "Number of clicks to deliver (default 1)"}
		},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"type_text": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"text": {"type": "string", "description": "Text to type into the target element"},
			"clear": {"type": "boolean", "description": "Clear the existing value first (default true)"}
		},
		"required": ["selector_strategy", "selector_value", "text"]
	}`, selectorProps),
	"press_key": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"key": {"type": "string", "description": "Key name, e.g. Enter, Tab, Escape"}
		},
		"required": ["key"]
	}`, selectorProps),
	"select_option": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"value": {"type": "string", "description": "Option value or visible text to select"}
		},
		"required": ["selector_strategy", "selector_value", "value"]
	}`, selectorProps),
	"check_checkbox": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"checked": {"type": "boolean", "description": "Desired checked state (default true)"}
		},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"submit_form": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"get_page_info": `{"type": "object", "properties": {}}`,
	"find_element": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"verify_element_exists": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"verify_text_present": `{
		"type": "object",
		"properties": {
			"text": {"type": "string", "description": "Text expected to appear somewhere on the page"}
		},
		"required": ["text"]
	}`,
	"get_element_text": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"get_element_attribute": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"attribute": {"type": "string", "description": "Attribute name to read"}
		},
		"required": ["selector_strategy", "selector_value", "attribute"]
	}`, selectorProps),
	"wait_for_element": fmt.Sprintf(`{
		"type": "object",
		"properties": {%s,
			"timeout_ms": {"type": "integer", "description": "Maximum time to wait in milliseconds (default 5000)"}
		},
		"required": ["selector_strategy", "selector_value"]
	}`, selectorProps),
	"take_screenshot": `{
		"type": "object",
		"properties": {
			"full_page": {"type": "boolean", "description": "Capture the full scrollable page rather than the viewport (default false)"}
		}
	}`,
}

var compiledSchemas = map[string]*jsonschema.Schema{}

func init() {
	for name, raw := range rawSchemas {
		compiled, err := jsonschema.CompileString(name+".schema.json", raw)
		if err != nil {
			panic(fmt.Sprintf("toolregistry: invalid built-in schema for %s: %v", name, err))
		}
		compiledSchemas[name] = compiled
	}
}

// schemaFor returns the raw JSON Schema for name, used as each Tool's
// Schema() for LLM function-calling.
func schemaFor(name string) json.RawMessage {
	return json.RawMessage(rawSchemas[name])
}

// validate checks params against name's compiled schema.
func validate(name string, params json.RawMessage) error {
	schema, ok := compiledSchemas[name]
	if !ok {
		return fmt.Errorf("no schema registered for tool %s", name)
	}
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return schema.Validate(decoded)
}
