package service

import (
	"context"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"
)

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	GetTasks(ctx context.Context, userID string, filters models.TaskFilters) (*models.TaskPage, error)
	UpdateTask(ctx context.Context, id string, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// TaskService связывает репозиторий и политику доступа. Действующий
// пользователь всегда передаётся параметром, глобального "текущего
// пользователя" нет.
//
// GetTask/UpdateTask/DeleteTask различают 403 и 404: чужая, но существующая
// задача даёт ErrForbidden, отсутствующая — ErrNotFound. Утечка факта
// существования задачи через это различие — принятое поведение.
type TaskService struct {
	repo   TaskRepository
	policy Policy
}

func NewTaskService(repo TaskRepository) *TaskService {
	if repo == nil {
		return nil
	}
	return &TaskService{repo: repo}
}

// ListTasks возвращает задачи действующего пользователя. Запрос к хранилищу
// уже ограничен владельцем, отдельная проверка политики не нужна.
func (s *TaskService) ListTasks(ctx context.Context, actingUser *models.User, filters models.TaskFilters) (*models.TaskPage, error) {
	if actingUser == nil || actingUser.ID == "" {
		return nil, errors.ErrUnauthenticated
	}
	return s.repo.GetTasks(ctx, actingUser.ID, filters)
}

func (s *TaskService) GetTask(ctx context.Context, actingUser *models.User, id string) (*models.Task, error) {
	task, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(actingUser, task).Allowed() {
		return nil, errors.ErrForbidden
	}
	return task, nil
}

// CreateTask записывает владельцем действующего пользователя; значение
// UserID из входных данных игнорируется.
func (s *TaskService) CreateTask(ctx context.Context, actingUser *models.User, task *models.Task) (*models.Task, error) {
	if actingUser == nil || actingUser.ID == "" {
		return nil, errors.ErrUnauthenticated
	}
	task.UserID = actingUser.ID
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask применяет только заполненные поля patch и возвращает заново
// прочитанную запись, а не копию в памяти.
func (s *TaskService) UpdateTask(ctx context.Context, actingUser *models.User, id string, patch models.TaskPatch) (*models.Task, error) {
	task, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanUpdate(actingUser, task).Allowed() {
		return nil, errors.ErrForbidden
	}

	if patch.Title != "" {
		task.Title = patch.Title
	}
	if patch.Description != "" {
		task.Description = patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Status != "" {
		task.Status = patch.Status
	}

	if err := s.repo.UpdateTask(ctx, id, task); err != nil {
		return nil, err
	}
	return s.repo.GetTaskByID(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, actingUser *models.User, id string) error {
	task, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanDelete(actingUser, task).Allowed() {
		return errors.ErrForbidden
	}
	return s.repo.DeleteTask(ctx, id)
}
