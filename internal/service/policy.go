package service

import "taskmanager/internal/domain/models"

// Decision — явный результат проверки доступа. Политика ничего не
// возвращает кроме разрешения или отказа, интерпретирует его вызывающий.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// Policy решает, может ли пользователь видеть и менять задачу.
// Единственное правило: доступ есть только у владельца задачи.
type Policy struct{}

func (Policy) CanView(user *models.User, task *models.Task) Decision {
	return ownerDecision(user, task)
}

func (Policy) CanUpdate(user *models.User, task *models.Task) Decision {
	return ownerDecision(user, task)
}

func (Policy) CanDelete(user *models.User, task *models.Task) Decision {
	return ownerDecision(user, task)
}

func ownerDecision(user *models.User, task *models.Task) Decision {
	if user == nil || task == nil {
		return Deny
	}
	if user.ID == "" || task.UserID != user.ID {
		return Deny
	}
	return Allow
}
