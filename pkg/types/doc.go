// Package types defines the Database capability interface, the field-data
// entities (features, observations, measurements, tasks, templates, media),
// their create/update inputs, and the standard errors shared by the storage
// backends, the repository layer and the project archive engine.
package types
