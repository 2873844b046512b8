package schema

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/mpylon/internal/domain"
	"github.com/emiliopalmerini/mpylon/internal/ports"
)

// Object is the YAML form of a schema target.
type Object struct {
	Target      string   `yaml:"target"`
	Cardinality *int     `yaml:"cardinality,omitempty"`
	Label       *string  `yaml:"label,omitempty"`
	Perms       []string `yaml:"perms,omitempty"`
}

// Document is a schema file: a default target list plus optional
// per-subscription lists that replace it.
type Document struct {
	Default       []Object            `yaml:"default"`
	Subscriptions map[string][]Object `yaml:"subscriptions"`
}

// Objects returns the domain objects for subscription, falling back to the
// default list.
func (d *Document) Objects(subscription string) []domain.SchemaObject {
	src, ok := d.Subscriptions[subscription]
	if !ok || subscription == "" {
		src = d.Default
	}
	out := make([]domain.SchemaObject, len(src))
	for i, o := range src {
		out[i] = domain.SchemaObject{
			Target:      o.Target,
			Cardinality: o.Cardinality,
			Label:       o.Label,
			Perms:       o.Perms,
		}
	}
	return out
}

// Provider serves schemas from a YAML document held in memory.
type Provider struct {
	doc *Document
}

// NewProvider creates a provider over doc.
func NewProvider(doc *Document) *Provider {
	return &Provider{doc: doc}
}

// Decode reads a schema document from YAML.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	for sub, objs := range doc.Subscriptions {
		for i, o := range objs {
			if o.Target == "" {
				return nil, fmt.Errorf("subscription %q: object %d has no target", sub, i)
			}
		}
	}
	for i, o := range doc.Default {
		if o.Target == "" {
			return nil, fmt.Errorf("default: object %d has no target", i)
		}
	}
	return &doc, nil
}

// LoadFile reads the schema document stored at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schema: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func (p *Provider) GetSchema(_ context.Context, subscription string) (ports.Schema, error) {
	return domain.NewStaticSchema(p.doc.Objects(subscription)...), nil
}
