package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const envelopeSchemaURL = "https://ondc-bpp.local/schemas/envelope.json"

// envelopeSchema is the minimum shape every outbound envelope must have
// before it leaves the process.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["context", "message"],
  "properties": {
    "context": {
      "type": "object",
      "required": ["action", "message_id", "timestamp", "ttl"],
      "properties": {
        "action": {"type": "string", "pattern": "^on_(search|select|init|update|cancel|track|status)$"},
        "message_id": {"type": "string", "minLength": 1},
        "transaction_id": {"type": "string"},
        "timestamp": {"type": "string", "minLength": 1},
        "ttl": {"type": "string", "pattern": "^P"}
      }
    },
    "message": {
      "type": "object",
      "required": ["ack"],
      "properties": {
        "ack": {
          "type": "object",
          "required": ["status"],
          "properties": {"status": {"enum": ["ACK", "NACK"]}}
        },
        "error": {
          "type": "object",
          "required": ["code", "message"],
          "properties": {
            "code": {"type": "string"},
            "message": {"type": "string", "minLength": 1}
          }
        },
        "order": {
          "type": "object",
          "properties": {
            "quote": {
              "type": "object",
              "required": ["price", "breakup"],
              "properties": {
                "breakup": {"type": "array", "items": {"type": "object", "required": ["title", "price"]}}
              }
            }
          }
        }
      },
      "if": {"properties": {"ack": {"properties": {"status": {"const": "NACK"}}}}},
      "then": {"required": ["error"]}
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	errSchema      error
)

func loadEnvelopeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
			errSchema = fmt.Errorf("add envelope schema: %w", err)
			return
		}
		compiledSchema, errSchema = c.Compile(envelopeSchemaURL)
	})
	return compiledSchema, errSchema
}

// ValidateEnvelope checks env against the outbound envelope schema.
func ValidateEnvelope(env *Envelope) error {
	schema, err := loadEnvelopeSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("envelope does not conform: %w", err)
	}
	return nil
}
