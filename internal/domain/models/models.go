package models

import "time"

type User struct {
	ID       string `json:"id" validate:"uuid"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"-" validate:"required,min=8,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin moderator"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin moderator"`
}

type Task struct {
	ID          string    `json:"id" validate:"omitempty,uuid"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title" validate:"required,min=1,max=100"`
	Description string    `json:"description" validate:"omitempty,max=500"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status" validate:"required,oneof=pending in_progress completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	DueDate     string `json:"due_date" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type UpdateTaskRequest struct {
	Title       string `json:"title" validate:"omitempty,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	DueDate     string `json:"due_date" validate:"omitempty"`
	Status      string `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// TaskPatch — частичное обновление: пустые строки и nil-поля не применяются.
type TaskPatch struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      string
}

// TaskFilters — необязательные фильтры списка задач, нулевое значение означает
// отсутствие фильтра. FromDate и ToDate действуют только вместе.
type TaskFilters struct {
	Status   string
	DueDate  *time.Time
	FromDate *time.Time
	ToDate   *time.Time
	Search   string
	Page     int
	PerPage  int
}

type TaskPage struct {
	Tasks   []Task `json:"tasks"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}
