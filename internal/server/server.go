package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"golang.org/x/crypto/bcrypt"
)

const dueDateLayout = "2006-01-02"

type UserRepository interface {
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(user *models.User) error
	GetUsers() ([]models.User, error)
}

type TaskAPI struct {
	httpSrv *http.Server
	users   UserRepository
	tasks   *service.TaskService
	cfg     *Config
}

func NewTaskAPI(users UserRepository, taskRepo service.TaskRepository, cfg *Config) *TaskAPI {
	if users == nil || taskRepo == nil {
		return nil
	}
	if cfg == nil {
		cfg = &Config{}
	}

	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	httpSrv := http.Server{
		Addr: fmt.Sprintf("%s:%d", addr, port),
	}

	api := TaskAPI{
		httpSrv: &httpSrv,
		users:   users,
		tasks:   service.NewTaskService(taskRepo),
		cfg:     cfg,
	}

	api.configRoutes()

	return &api
}

func (api *TaskAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}

	if api.httpSrv.Addr == "" {
		api.httpSrv.Addr = ":8080"
	}

	return api.httpSrv.ListenAndServe()
}

func (api *TaskAPI) Shutdown(ctx context.Context) error {
	if api.httpSrv == nil {
		return nil
	}
	return api.httpSrv.Shutdown(ctx)
}

func (api *TaskAPI) jwtSecret() string {
	if api.cfg != nil && api.cfg.JWTSecret != "" {
		return api.cfg.JWTSecret
	}
	return defaultJWTSecret
}

func (api *TaskAPI) defaultPerPage() int {
	if api.cfg != nil && api.cfg.PerPage > 0 {
		return api.cfg.PerPage
	}
	return defaultPerPage
}

func (api *TaskAPI) configRoutes() {
	router := gin.Default()
	router.Use(GzipRequestDecompress())
	router.Use(GzipResponseCompress())

	router.NoMethod(func(ctx *gin.Context) {
		ctx.JSON(http.StatusMethodNotAllowed, gin.H{"error": "использован некорректный HTTP-метод"})
	})

	user := router.Group("/users")
	{
		user.POST("/login", api.login)
		user.POST("/register", api.register)
	}

	userAuthed := router.Group("/users", AuthRequired(api.jwtSecret()))
	{
		userAuthed.POST("/logout", api.logout)
		userAuthed.GET("/me", api.currentUser)
		userAuthed.GET("", api.getUsers)
	}

	tasks := router.Group("/tasks", AuthRequired(api.jwtSecret()))
	{
		tasks.GET("", api.getTasks)
		tasks.GET(":taskID", api.getTaskByID)
		tasks.POST("", api.createTask)
		tasks.PUT(":taskID", api.updateTask)
		tasks.PATCH(":taskID", api.updateTask)
		tasks.DELETE(":taskID", api.deleteTask)
	}

	api.httpSrv.Handler = router
}

// actingUser восстанавливает пользователя из контекста, заполненного
// AuthRequired. Сервису передаётся только идентификатор.
func actingUser(ctx *gin.Context) *models.User {
	id := ctx.GetString(userIDContextKey)
	if id == "" {
		return nil
	}
	return &models.User{ID: id}
}

func (api *TaskAPI) login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректные данные запроса"})
		return
	}

	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "ошибка валидации", "details": err.Error()})
		return
	}

	user, err := api.users.GetUserByUsername(req.Username)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidCredentials.Error()})
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidCredentials.Error()})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	signed, err := token.SignedString([]byte(api.jwtSecret()))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "вход выполнен успешно",
		"token":   signed,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

var allowedUserRoles = map[string]bool{
	"user":      true,
	"admin":     true,
	"moderator": true,
}

func (api *TaskAPI) register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "некорректные данные пользователя"})
		return
	}
	if req.Role != "" && !allowedUserRoles[req.Role] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrInvalidRole.Error()})
		return
	}
	valid := validator.New()

	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	existingUser, _ := api.users.GetUserByUsername(req.Username)
	if existingUser != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": errors.ErrUserAlreadyExists.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	user := models.User{
		ID:       uuid.New().String(),
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
		Role:     role,
	}

	if err := api.users.CreateUser(&user); err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "пользователь успешно создан",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

// logout у stateless-токенов серверного состояния не имеет: клиент просто
// выбрасывает токен, сервер подтверждает.
func (api *TaskAPI) logout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "выход выполнен успешно"})
}

func (api *TaskAPI) currentUser(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	user, err := api.users.GetUserByID(acting.ID)
	if err != nil {
		if err == errors.ErrUserNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errors.ErrUserNotFound.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось получить пользователя"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}

func (api *TaskAPI) getUsers(ctx *gin.Context) {
	users, err := api.users.GetUsers()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось получить пользователей"})
		return
	}

	list := make([]gin.H, 0, len(users))
	for _, user := range users {
		list = append(list, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"users": list})
}

var allowedTaskStatuses = map[string]bool{
	"pending":     true,
	"in_progress": true,
	"completed":   true,
}

// parseTaskFilters разбирает query-параметры списка. Неразборчивая дата или
// число — ошибка запроса, а не молча пропущенный фильтр.
func (api *TaskAPI) parseTaskFilters(ctx *gin.Context) (models.TaskFilters, error) {
	filters := models.TaskFilters{
		Page:    1,
		PerPage: api.defaultPerPage(),
	}

	if status := ctx.Query("status"); status != "" {
		if !allowedTaskStatuses[status] {
			return filters, errors.ErrInvalidStatus
		}
		filters.Status = status
	}

	if raw := ctx.Query("due_date"); raw != "" {
		d, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return filters, errors.ErrInvalidDueDate
		}
		filters.DueDate = &d
	}

	if raw := ctx.Query("from_date"); raw != "" {
		d, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return filters, errors.ErrInvalidDateRange
		}
		filters.FromDate = &d
	}

	if raw := ctx.Query("to_date"); raw != "" {
		d, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			return filters, errors.ErrInvalidDateRange
		}
		filters.ToDate = &d
	}

	filters.Search = ctx.Query("search")

	if raw := ctx.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filters, errors.ErrInvalidPerPage
		}
		filters.PerPage = n
	}

	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filters, errors.ErrInvalidPage
		}
		filters.Page = n
	}

	return filters, nil
}

func (api *TaskAPI) getTasks(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	filters, err := api.parseTaskFilters(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	page, err := api.tasks.ListTasks(ctx.Request.Context(), acting, filters)
	if err != nil {
		api.writeTaskError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"tasks": page.Tasks,
		"meta": gin.H{
			"total":    page.Total,
			"page":     page.Page,
			"per_page": page.PerPage,
		},
	})
}

func (api *TaskAPI) getTaskByID(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	task, err := api.tasks.GetTask(ctx.Request.Context(), acting, ctx.Param("taskID"))
	if err != nil {
		api.writeTaskError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

func (api *TaskAPI) createTask(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	dueDate, err := time.Parse(dueDateLayout, req.DueDate)
	if err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errors.ErrInvalidDueDate.Error()})
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Status:      req.Status,
	}

	created, err := api.tasks.CreateTask(ctx.Request.Context(), acting, &task)
	if err != nil {
		api.writeTaskError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"task": created})
}

func (api *TaskAPI) updateTask(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	var req models.UpdateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errors.ErrBadRequest.Error()})
		return
	}
	valid := validator.New()
	if err := valid.Struct(req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErrorToErrorResponse(err).Error()})
		return
	}

	patch := models.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.DueDate != "" {
		d, err := time.Parse(dueDateLayout, req.DueDate)
		if err != nil {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": errors.ErrInvalidDueDate.Error()})
			return
		}
		patch.DueDate = &d
	}

	task, err := api.tasks.UpdateTask(ctx.Request.Context(), acting, ctx.Param("taskID"), patch)
	if err != nil {
		api.writeTaskError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

func (api *TaskAPI) deleteTask(ctx *gin.Context) {
	acting := actingUser(ctx)
	if acting == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
		return
	}

	if err := api.tasks.DeleteTask(ctx.Request.Context(), acting, ctx.Param("taskID")); err != nil {
		api.writeTaskError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (api *TaskAPI) writeTaskError(ctx *gin.Context, err error) {
	switch err {
	case errors.ErrNotFound:
		ctx.JSON(http.StatusNotFound, gin.H{"error": errors.ErrNotFound.Error()})
	case errors.ErrForbidden:
		ctx.JSON(http.StatusForbidden, gin.H{"error": errors.ErrForbidden.Error()})
	case errors.ErrUnauthenticated:
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrUnauthenticated.Error()})
	case errors.ErrConflict:
		ctx.JSON(http.StatusConflict, gin.H{"error": errors.ErrConflict.Error()})
	default:
		log.Println("[ERROR] Ошибка обработки запроса:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errors.ErrInternalServer.Error()})
	}
}

func validationErrorToErrorResponse(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, verr := range verrs {
			switch verr.Field() {
			case "Username":
				return errors.ErrInvalidUsername
			case "Email":
				return errors.ErrInvalidEmail
			case "Password":
				return errors.ErrInvalidPassword
			case "Role":
				return errors.ErrInvalidRole
			case "Status":
				return errors.ErrInvalidStatus
			case "Title":
				return errors.ErrInvalidTitle
			case "Description":
				return errors.ErrInvalidDescription
			case "DueDate":
				return errors.ErrInvalidDueDate
			}
		}
	}
	return errors.ErrValidationFailed
}
