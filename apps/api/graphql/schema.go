// Package gqlapi exposes the domain services through a schema-first GraphQL API.
package gqlapi

import (
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/trezcool/empoderar/core"
)

//go:embed schema.graphql
var schemaString string

const (
	maxDepth       = 12
	maxParallelism = 10
)

// NewSchema parses the API schema and binds it to r.
// Introspection is only available in debug mode.
func NewSchema(r *Resolver, debug bool, logger core.Logger) (*graphql.Schema, error) {
	opts := []graphql.SchemaOpt{
		graphql.MaxDepth(maxDepth),
		graphql.MaxParallelism(maxParallelism),
		graphql.Logger(panicLogger{logger}),
	}
	if !debug {
		opts = append(opts, graphql.DisableIntrospection())
	}
	return graphql.ParseSchema(schemaString, r, opts...)
}

// MustNewSchema is like NewSchema but panics when the schema and the resolvers do not match.
func MustNewSchema(r *Resolver, debug bool, logger core.Logger) *graphql.Schema {
	schema, err := NewSchema(r, debug, logger)
	if err != nil {
		panic(err)
	}
	return schema
}
