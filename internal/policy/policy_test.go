package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizer_Allowed(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx)
	require.NoError(t, err)

	tests := []struct {
		role   string
		action string
		want   bool
	}{
		{"admin", ManageEvents, true},
		{"staff", ManageCRM, true},
		{"staff", ReadRegistrations, true},
		{"admin", ManageForms, true},
		{"parent", ManageEvents, false},
		{"parent", ManageCRM, false},
		{"", ReadRegistrations, false},
		{"admin", "payroll:manage", false},
	}
	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.action, func(t *testing.T) {
			got, err := a.Allowed(ctx, tt.role, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
