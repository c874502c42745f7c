package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const metadataSchemaURL = "escrowd://schemas/property-metadata.json"

// metadataSchema describes the JSON document a deed's tokenURI points at.
const metadataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "image", "attributes"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "image": {"type": "string", "minLength": 1},
    "id": {},
    "attributes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["trait_type", "value"],
        "properties": {
          "trait_type": {"type": "string"},
          "value": {"type": ["string", "number"]}
        }
      }
    }
  }
}`

// maxMetadataSize bounds the body read from a metadata URL.
const maxMetadataSize = 1 << 20

// Attribute is one trait of a property.
type Attribute struct {
	TraitType string      `json:"trait_type" yaml:"trait_type"`
	Value     interface{} `json:"value" yaml:"value"`
}

// Metadata is a property deed's off-chain description.
type Metadata struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string      `json:"image" yaml:"image"`
	Attributes  []Attribute `json:"attributes" yaml:"attributes"`
}

// MetadataVerifier fetches token metadata and validates it against the
// property schema.
type MetadataVerifier struct {
	client *http.Client
	schema *jsonschema.Schema
}

// NewMetadataVerifier returns a verifier using client, or a client with a
// 15 second timeout when nil.
func NewMetadataVerifier(client *http.Client) *MetadataVerifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &MetadataVerifier{
		client: client,
		schema: jsonschema.MustCompileString(metadataSchemaURL, metadataSchema),
	}
}

// Verify downloads the document at url and validates it.
func (v *MetadataVerifier) Verify(ctx context.Context, url string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status %s", ErrMetadata, url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, url, err)
	}
	return v.validate(url, body)
}

func (v *MetadataVerifier) validate(url string, body []byte) (*Metadata, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, url, err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, url, err)
	}
	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMetadata, url, err)
	}
	return &md, nil
}
