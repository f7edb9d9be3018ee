package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

// Two OAuth accounts whose provider returns no email address both store an
// empty string; the schema must not reject the second one.
func TestUserEmailNotUniquelyIndexed(t *testing.T) {
	s, err := schema.Parse(&User{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	for _, idx := range s.ParseIndexes() {
		for _, opt := range idx.Fields {
			if opt.Field.Name == "Email" {
				assert.NotEqual(t, "UNIQUE", idx.Class, "email index %q must not be unique", idx.Name)
			}
		}
	}
}

func TestUserUsernameUniquelyIndexed(t *testing.T) {
	s, err := schema.Parse(&User{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	unique := false
	for _, idx := range s.ParseIndexes() {
		for _, opt := range idx.Fields {
			if opt.Field.Name == "Username" && idx.Class == "UNIQUE" {
				unique = true
			}
		}
	}
	assert.True(t, unique, "username must keep its unique index")
}
