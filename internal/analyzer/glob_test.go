package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesGlob(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{
			name: "empty include keeps everything",
			path: "src/users/users.controller.ts",
			want: true,
		},
		{
			name:    "double star with prefix",
			path:    "src/users/users.controller.ts",
			include: []string{"src/**/*.controller.ts"},
			want:    true,
		},
		{
			name:    "double star anchored below root",
			path:    "app/src/users/users.controller.ts",
			include: []string{"src/**/*.controller.ts"},
			want:    true,
		},
		{
			name:    "double star prefix missing",
			path:    "lib/users/users.controller.ts",
			include: []string{"src/**/*.controller.ts"},
			want:    false,
		},
		{
			name:    "leading double star",
			path:    "deep/nested/orders.controller.ts",
			include: []string{"**/*.controller.ts"},
			want:    true,
		},
		{
			name:    "basename pattern",
			path:    "src/orders.controller.ts",
			include: []string{"*.controller.ts"},
			want:    true,
		},
		{
			name:    "exclude wins over include",
			path:    "src/internal/admin.controller.ts",
			include: []string{"src/**/*.controller.ts"},
			exclude: []string{"src/internal/**"},
			want:    false,
		},
		{
			name:    "exclude without include",
			path:    "src/internal/admin.controller.ts",
			exclude: []string{"**/admin.controller.ts"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesGlob(tt.path, tt.include, tt.exclude))
		})
	}
}
