package ws

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed client.schema.json
var clientSchemaJSON []byte

const clientSchemaURL = "https://spadesx.dev/schemas/client.schema.json"

var (
	clientSchemaOnce sync.Once
	clientSchema     *jsonschema.Schema
	clientSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	clientSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(clientSchemaURL, bytes.NewReader(clientSchemaJSON)); err != nil {
			clientSchemaErr = err
			return
		}
		clientSchema, clientSchemaErr = c.Compile(clientSchemaURL)
	})
	return clientSchema, clientSchemaErr
}

// validate checks a raw client message against the client schema.
func validate(msg []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("client schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	return schema.Validate(v)
}
