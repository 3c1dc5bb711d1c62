package service

import (
	"context"
	"testing"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) GetTasks(ctx context.Context, userID string, filters models.TaskFilters) (*models.TaskPage, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskPage), args.Error(1)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, id string, task *models.Task) error {
	args := m.Called(ctx, id, task)
	return args.Error(0)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestNewTaskService(t *testing.T) {
	assert.Nil(t, NewTaskService(nil))
	assert.NotNil(t, NewTaskService(&MockTaskRepository{}))
}

func TestServiceListTasks(t *testing.T) {
	tests := []struct {
		name       string
		actingUser *models.User
		filters    models.TaskFilters
		want       struct {
			err   error
			total int
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:       "scoped to acting user",
			actingUser: &models.User{ID: "user123"},
			filters:    models.TaskFilters{Status: "completed", Page: 1, PerPage: 10},
			want: struct {
				err   error
				total int
			}{
				err:   nil,
				total: 3,
			},
			mockSetup: func(repo *MockTaskRepository) {
				page := &models.TaskPage{
					Tasks:   []models.Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
					Total:   3,
					Page:    1,
					PerPage: 10,
				}
				repo.On("GetTasks", mock.Anything, "user123", models.TaskFilters{Status: "completed", Page: 1, PerPage: 10}).Return(page, nil)
			},
		},
		{
			name:       "nil acting user",
			actingUser: nil,
			filters:    models.TaskFilters{},
			want: struct {
				err   error
				total int
			}{
				err: errors.ErrUnauthenticated,
			},
			mockSetup: func(repo *MockTaskRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{}
			tt.mockSetup(repo)
			svc := NewTaskService(repo)

			page, err := svc.ListTasks(context.Background(), tt.actingUser, tt.filters)

			if tt.want.err != nil {
				assert.Equal(t, tt.want.err, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want.total, page.Total)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestServiceGetTask(t *testing.T) {
	tests := []struct {
		name       string
		actingUser *models.User
		taskID     string
		want       struct {
			err error
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:       "own task",
			actingUser: &models.User{ID: "user123"},
			taskID:     "task1",
			want: struct {
				err error
			}{
				err: nil,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{ID: "task1", UserID: "user123"}, nil)
			},
		},
		{
			name:       "foreign task yields forbidden, not not-found",
			actingUser: &models.User{ID: "user456"},
			taskID:     "task1",
			want: struct {
				err error
			}{
				err: errors.ErrForbidden,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{ID: "task1", UserID: "user123"}, nil)
			},
		},
		{
			name:       "missing task yields not-found",
			actingUser: &models.User{ID: "user123"},
			taskID:     "nonexistent",
			want: struct {
				err error
			}{
				err: errors.ErrNotFound,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "nonexistent").Return(nil, errors.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{}
			tt.mockSetup(repo)
			svc := NewTaskService(repo)

			task, err := svc.GetTask(context.Background(), tt.actingUser, tt.taskID)

			if tt.want.err != nil {
				assert.Equal(t, tt.want.err, err)
				assert.Nil(t, task)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.taskID, task.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestServiceCreateTaskInjectsOwner(t *testing.T) {
	tests := []struct {
		name       string
		actingUser *models.User
		task       models.Task
		want       struct {
			err   error
			owner string
		}
	}{
		{
			name:       "owner set from acting user",
			actingUser: &models.User{ID: "user123"},
			task:       models.Task{Title: "Задача"},
			want: struct {
				err   error
				owner string
			}{
				owner: "user123",
			},
		},
		{
			name:       "caller-supplied owner is overwritten",
			actingUser: &models.User{ID: "user123"},
			task:       models.Task{Title: "Задача", UserID: "attacker"},
			want: struct {
				err   error
				owner string
			}{
				owner: "user123",
			},
		},
		{
			name:       "nil acting user",
			actingUser: nil,
			task:       models.Task{Title: "Задача"},
			want: struct {
				err   error
				owner string
			}{
				err: errors.ErrUnauthenticated,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{}
			if tt.want.err == nil {
				repo.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.UserID == tt.want.owner
				})).Return(nil)
			}
			svc := NewTaskService(repo)

			task := tt.task
			created, err := svc.CreateTask(context.Background(), tt.actingUser, &task)

			if tt.want.err != nil {
				assert.Equal(t, tt.want.err, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want.owner, created.UserID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestServiceUpdateTask(t *testing.T) {
	dueDate := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		actingUser *models.User
		taskID     string
		patch      models.TaskPatch
		want       struct {
			err   error
			title string
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:       "partial patch changes only title and returns fresh record",
			actingUser: &models.User{ID: "user123"},
			taskID:     "task1",
			patch:      models.TaskPatch{Title: "X"},
			want: struct {
				err   error
				title string
			}{
				title: "X",
			},
			mockSetup: func(repo *MockTaskRepository) {
				stored := &models.Task{
					ID:          "task1",
					UserID:      "user123",
					Title:       "Original",
					Description: "Описание",
					DueDate:     dueDate,
					Status:      "pending",
				}
				fresh := &models.Task{
					ID:          "task1",
					UserID:      "user123",
					Title:       "X",
					Description: "Описание",
					DueDate:     dueDate,
					Status:      "pending",
				}
				repo.On("GetTaskByID", mock.Anything, "task1").Return(stored, nil).Once()
				repo.On("UpdateTask", mock.Anything, "task1", mock.MatchedBy(func(task *models.Task) bool {
					return task.Title == "X" && task.Description == "Описание" && task.Status == "pending" && task.DueDate.Equal(dueDate)
				})).Return(nil)
				repo.On("GetTaskByID", mock.Anything, "task1").Return(fresh, nil).Once()
			},
		},
		{
			name:       "foreign task is forbidden",
			actingUser: &models.User{ID: "user456"},
			taskID:     "task1",
			patch:      models.TaskPatch{Title: "X"},
			want: struct {
				err   error
				title string
			}{
				err: errors.ErrForbidden,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{ID: "task1", UserID: "user123"}, nil)
			},
		},
		{
			name:       "missing task",
			actingUser: &models.User{ID: "user123"},
			taskID:     "nonexistent",
			patch:      models.TaskPatch{Title: "X"},
			want: struct {
				err   error
				title string
			}{
				err: errors.ErrNotFound,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "nonexistent").Return(nil, errors.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{}
			tt.mockSetup(repo)
			svc := NewTaskService(repo)

			task, err := svc.UpdateTask(context.Background(), tt.actingUser, tt.taskID, tt.patch)

			if tt.want.err != nil {
				assert.Equal(t, tt.want.err, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want.title, task.Title)
				assert.Equal(t, "Описание", task.Description)
				assert.Equal(t, "pending", task.Status)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestServiceDeleteTask(t *testing.T) {
	tests := []struct {
		name       string
		actingUser *models.User
		taskID     string
		want       struct {
			err error
		}
		mockSetup func(*MockTaskRepository)
	}{
		{
			name:       "own task is deleted",
			actingUser: &models.User{ID: "user123"},
			taskID:     "task1",
			want: struct {
				err error
			}{
				err: nil,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{ID: "task1", UserID: "user123"}, nil)
				repo.On("DeleteTask", mock.Anything, "task1").Return(nil)
			},
		},
		{
			name:       "foreign task is forbidden",
			actingUser: &models.User{ID: "user456"},
			taskID:     "task1",
			want: struct {
				err error
			}{
				err: errors.ErrForbidden,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "task1").Return(&models.Task{ID: "task1", UserID: "user123"}, nil)
			},
		},
		{
			name:       "missing task",
			actingUser: &models.User{ID: "user123"},
			taskID:     "nonexistent",
			want: struct {
				err error
			}{
				err: errors.ErrNotFound,
			},
			mockSetup: func(repo *MockTaskRepository) {
				repo.On("GetTaskByID", mock.Anything, "nonexistent").Return(nil, errors.ErrNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockTaskRepository{}
			tt.mockSetup(repo)
			svc := NewTaskService(repo)

			err := svc.DeleteTask(context.Background(), tt.actingUser, tt.taskID)

			if tt.want.err != nil {
				assert.Equal(t, tt.want.err, err)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
