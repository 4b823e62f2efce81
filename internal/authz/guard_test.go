package authz

import (
	"testing"

	"socialconnect/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOwnerGuard_AssertOwner(t *testing.T) {
	tests := []struct {
		name    string
		actor   uint
		author  uint
		allowed bool
	}{
		{"owner", 7, 7, true},
		{"someone else", 8, 7, false},
		{"anonymous", 0, 0, false},
	}

	g := NewOwnerGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AssertOwner(tt.actor, tt.author)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.IsCode(err, models.CodeForbidden))
		})
	}
}
