// Package ident provides identifier allocation for folder records.
package ident

import "github.com/google/uuid"

// NewFolderID returns a new globally unique folder identifier.
func NewFolderID() string {
	return uuid.New().String()
}

// Short returns a compact prefix of an identifier, for log labels and
// test-resource names.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
