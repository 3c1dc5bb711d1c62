package service

import (
	"testing"

	"taskmanager/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestPolicyOwnership(t *testing.T) {
	owner := &models.User{ID: "user123"}
	stranger := &models.User{ID: "user456"}
	task := &models.Task{ID: "task1", UserID: "user123"}

	tests := []struct {
		name string
		user *models.User
		task *models.Task
		want struct {
			allowed bool
		}
	}{
		{
			name: "owner is allowed",
			user: owner,
			task: task,
			want: struct {
				allowed bool
			}{
				allowed: true,
			},
		},
		{
			name: "non-owner is denied",
			user: stranger,
			task: task,
			want: struct {
				allowed bool
			}{
				allowed: false,
			},
		},
		{
			name: "nil user is denied",
			user: nil,
			task: task,
			want: struct {
				allowed bool
			}{
				allowed: false,
			},
		},
		{
			name: "empty user id is denied",
			user: &models.User{},
			task: &models.Task{ID: "task2"},
			want: struct {
				allowed bool
			}{
				allowed: false,
			},
		},
		{
			name: "nil task is denied",
			user: owner,
			task: nil,
			want: struct {
				allowed bool
			}{
				allowed: false,
			},
		},
	}

	policy := Policy{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.allowed, policy.CanView(tt.user, tt.task).Allowed())
			assert.Equal(t, tt.want.allowed, policy.CanUpdate(tt.user, tt.task).Allowed())
			assert.Equal(t, tt.want.allowed, policy.CanDelete(tt.user, tt.task).Allowed())
		})
	}
}

func TestDecisionAllowed(t *testing.T) {
	assert.True(t, Allow.Allowed())
	assert.False(t, Deny.Allowed())
}
