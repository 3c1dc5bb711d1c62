package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = "id, user_id, title, description, due_date, status, created_at, updated_at"

type Storage struct {
	conn                  *pgx.Conn
	prepCreateTask        string
	prepGetTaskByID       string
	prepUpdateTask        string
	prepDeleteTask        string
	prepCreateUser        string
	prepGetUserByID       string
	prepGetUserByUsername string
	prepGetUsers          string
}

func NewStorage(connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Println("[ERROR] Не удалось подключиться к базе данных:", err)
		return nil, err
	}

	s := &Storage{
		conn:                  conn,
		prepCreateTask:        `INSERT INTO tasks (id, user_id, title, description, due_date, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		prepGetTaskByID:       `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`,
		prepUpdateTask:        `UPDATE tasks SET title = $1, description = $2, due_date = $3, status = $4, updated_at = $5 WHERE id = $6`,
		prepDeleteTask:        `DELETE FROM tasks WHERE id = $1`,
		prepCreateUser:        `INSERT INTO users (id, username, email, password, role) VALUES ($1, $2, $3, $4, $5)`,
		prepGetUserByID:       `SELECT id, username, email, password, role FROM users WHERE id = $1`,
		prepGetUserByUsername: `SELECT id, username, email, password, role FROM users WHERE username = $1`,
		prepGetUsers:          `SELECT id, username, email, password, role FROM users ORDER BY username`,
	}
	log.Println("[SUCCESS] Соединение с базой данных установлено успешно")
	return s, nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(ctx)
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	task.ID = uuid.New().String()
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	stmt, err := s.conn.Prepare(ctx, "create_task", s.prepCreateTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на создание задачи:", err)
		return err
	}
	_, err = s.conn.Exec(ctx, stmt.Name, task.ID, task.UserID, task.Title, task.Description, task.DueDate, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.Println("[ERROR] Не удалось создать задачу:", err)
		return errors.ErrConflict
	}
	log.Println("[SUCCESS] Задача успешно создана:", task.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "get_task_by_id", s.prepGetTaskByID)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение задачи по ID:", err)
		return nil, err
	}
	row := s.conn.QueryRow(ctx, stmt.Name, id)
	task := &models.Task{}
	if err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			log.Println("[ERROR] Задача не найдена:", id)
			return nil, errors.ErrNotFound
		}
		log.Println("[ERROR] Ошибка при получении задачи:", err)
		return nil, err
	}
	return task, nil
}

// GetTasks возвращает страницу задач владельца. Условия собираются
// динамически, потому что все шесть фильтров необязательны; user_id стоит
// в каждом запросе первым условием.
func (s *Storage) GetTasks(ctx context.Context, userID string, filters models.TaskFilters) (*models.TaskPage, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	where, args := buildTaskConditions(userID, filters)

	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 {
		perPage = 10
	}

	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + where
	var total int
	if err := s.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Println("[ERROR] Не удалось посчитать задачи:", err)
		return nil, err
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.conn.Query(ctx, listQuery, args...)
	if err != nil {
		log.Println("[ERROR] Не удалось получить задачи:", err)
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task := models.Task{}
		if err := rows.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.DueDate, &task.Status, &task.CreatedAt, &task.UpdatedAt); err != nil {
			log.Println("[ERROR] Ошибка при чтении задач:", err)
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Println("[ERROR] Ошибка при чтении задач:", err)
		return nil, err
	}

	log.Println("[SUCCESS] Получено задач:", len(tasks))
	return &models.TaskPage{
		Tasks:   tasks,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func buildTaskConditions(userID string, filters models.TaskFilters) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}

	next := func() int { return len(args) + 1 }

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", next()))
		args = append(args, filters.Status)
	}
	if filters.DueDate != nil {
		conditions = append(conditions, fmt.Sprintf("due_date = $%d", next()))
		args = append(args, *filters.DueDate)
	}
	// Диапазон применяется только при обеих границах, включительно.
	if filters.FromDate != nil && filters.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("due_date BETWEEN $%d AND $%d", next(), next()+1))
		args = append(args, *filters.FromDate, *filters.ToDate)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", next(), next()+1))
		args = append(args, pattern, pattern)
	}

	return strings.Join(conditions, " AND "), args
}

func (s *Storage) UpdateTask(ctx context.Context, id string, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "update_task", s.prepUpdateTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на обновление задачи:", err)
		return err
	}
	ct, err := s.conn.Exec(ctx, stmt.Name, task.Title, task.Description, task.DueDate, task.Status, time.Now().UTC(), id)
	if err != nil {
		log.Println("[ERROR] Не удалось обновить задачу:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		log.Println("[ERROR] Задача для обновления не найдена:", id)
		return errors.ErrNotFound
	}
	log.Println("[SUCCESS] Задача успешно обновлена:", id)
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "delete_task", s.prepDeleteTask)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на удаление задачи:", err)
		return err
	}
	ct, err := s.conn.Exec(ctx, stmt.Name, id)
	if err != nil {
		log.Println("[ERROR] Не удалось удалить задачу:", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		log.Println("[ERROR] Задача для удаления не найдена:", id)
		return errors.ErrNotFound
	}
	log.Println("[SUCCESS] Задача удалена:", id)
	return nil
}

func (s *Storage) CreateUser(user *models.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "create_user", s.prepCreateUser)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на создание пользователя:", err)
		return err
	}
	_, err = s.conn.Exec(ctx, stmt.Name, user.ID, user.Username, user.Email, user.Password, user.Role)
	if err != nil {
		log.Println("[ERROR] Не удалось создать пользователя:", err)
		return errors.ErrUserAlreadyExists
	}
	log.Println("[SUCCESS] Пользователь успешно создан:", user.ID)
	return nil
}

func (s *Storage) GetUserByID(id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "get_user_by_id", s.prepGetUserByID)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение пользователя по ID:", err)
		return nil, err
	}
	row := s.conn.QueryRow(ctx, stmt.Name, id)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role); err != nil {
		if err == pgx.ErrNoRows {
			log.Println("[ERROR] Пользователь не найден:", id)
			return nil, errors.ErrUserNotFound
		}
		log.Println("[ERROR] Ошибка при получении пользователя:", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUserByUsername(username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "get_user_by_username", s.prepGetUserByUsername)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение пользователя по имени:", err)
		return nil, err
	}
	row := s.conn.QueryRow(ctx, stmt.Name, username)
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role); err != nil {
		if err == pgx.ErrNoRows {
			log.Println("[ERROR] Пользователь не найден:", username)
			return nil, errors.ErrUserNotFound
		}
		log.Println("[ERROR] Ошибка при получении пользователя:", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUsers() ([]models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	stmt, err := s.conn.Prepare(ctx, "get_users", s.prepGetUsers)
	if err != nil {
		log.Println("[ERROR] Не удалось подготовить запрос на получение пользователей:", err)
		return nil, err
	}
	rows, err := s.conn.Query(ctx, stmt.Name)
	if err != nil {
		log.Println("[ERROR] Не удалось получить пользователей:", err)
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Role); err != nil {
			log.Println("[ERROR] Ошибка при чтении пользователей:", err)
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
