package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/onboarding-api/internal/middleware"
)

// Router настраивает маршруты API
type Router struct {
	mux             *http.ServeMux
	logger          *slog.Logger
	deptHandler     *DepartmentHandler
	roleHandler     *RoleHandler
	userHandler     *UserHandler
	taskHandler     *TaskHandler
	resourceHandler *ResourceHandler
}

// NewRouter создаёт новый роутер
func NewRouter(
	deptHandler *DepartmentHandler,
	roleHandler *RoleHandler,
	userHandler *UserHandler,
	taskHandler *TaskHandler,
	resourceHandler *ResourceHandler,
	logger *slog.Logger,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		logger:          logger,
		deptHandler:     deptHandler,
		roleHandler:     roleHandler,
		userHandler:     userHandler,
		taskHandler:     taskHandler,
		resourceHandler: resourceHandler,
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	// Регистрируем обработчики
	r.mux.HandleFunc("/departments/", r.departmentsRouter)
	r.mux.HandleFunc("/roles/", r.rolesRouter)
	r.mux.HandleFunc("/users/", r.usersRouter)
	r.mux.HandleFunc("/tasks/", r.tasksRouter)
	r.mux.HandleFunc("/user-tasks/", r.userTasksRouter)
	r.mux.HandleFunc("/resources/", r.resourcesRouter)

	// Health check
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Применяем middleware
	handler := middleware.ContentType(r.mux)
	handler = middleware.Logger(r.logger)(handler)
	handler = middleware.Recoverer(r.logger)(handler)

	return handler
}

// departmentsRouter обрабатывает все запросы к /departments/
func (r *Router) departmentsRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/departments")
	path = strings.Trim(path, "/")

	// POST /departments/ - создание подразделения
	if path == "" {
		switch req.Method {
		case http.MethodPost:
			r.deptHandler.Create(w, req)
		case http.MethodGet:
			r.deptHandler.List(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	// Разбираем путь: может быть {id} или {id}/roles
	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /departments/{id}
		switch req.Method {
		case http.MethodGet:
			r.deptHandler.GetByID(w, req)
		case http.MethodPatch:
			r.deptHandler.Update(w, req)
		case http.MethodDelete:
			r.deptHandler.Delete(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "roles" {
		// /departments/{id}/roles
		switch req.Method {
		case http.MethodPost:
			r.deptHandler.CreateRole(w, req)
		case http.MethodGet:
			r.deptHandler.ListRoles(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	notFound(w)
}

// rolesRouter обрабатывает все запросы к /roles/
func (r *Router) rolesRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/roles")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /roles/{id}
		switch req.Method {
		case http.MethodGet:
			r.roleHandler.GetByID(w, req)
		case http.MethodPatch:
			r.roleHandler.Update(w, req)
		case http.MethodDelete:
			r.roleHandler.Delete(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "tasks" {
		// /roles/{id}/tasks - учебный план должности
		switch req.Method {
		case http.MethodPost:
			r.roleHandler.CreateTask(w, req)
		case http.MethodGet:
			r.roleHandler.ListTasks(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	notFound(w)
}

// usersRouter обрабатывает все запросы к /users/
func (r *Router) usersRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/users")
	path = strings.Trim(path, "/")

	if path == "" {
		switch req.Method {
		case http.MethodPost:
			r.userHandler.Create(w, req)
		case http.MethodGet:
			r.userHandler.List(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /users/{id}
		switch req.Method {
		case http.MethodGet:
			r.userHandler.GetByID(w, req)
		case http.MethodPatch:
			r.userHandler.Update(w, req)
		case http.MethodDelete:
			r.userHandler.Delete(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "tasks" {
		// /users/{id}/tasks - назначенные задачи
		switch req.Method {
		case http.MethodPost:
			r.userHandler.AssignTask(w, req)
		case http.MethodGet:
			r.userHandler.ListTasks(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	notFound(w)
}

// tasksRouter обрабатывает все запросы к /tasks/
func (r *Router) tasksRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/tasks")
	path = strings.Trim(path, "/")

	// POST /tasks/ - шаблон задачи без привязки к должности
	if path == "" {
		if req.Method == http.MethodPost {
			r.taskHandler.Create(w, req)
			return
		}
		methodNotAllowed(w)
		return
	}

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /tasks/{id}
		switch req.Method {
		case http.MethodGet:
			r.taskHandler.GetByID(w, req)
		case http.MethodPatch:
			r.taskHandler.Update(w, req)
		case http.MethodDelete:
			r.taskHandler.Delete(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	notFound(w)
}

// userTasksRouter обрабатывает все запросы к /user-tasks/
func (r *Router) userTasksRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/user-tasks")
	path = strings.Trim(path, "/")

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /user-tasks/{id}
		if req.Method == http.MethodPatch {
			r.taskHandler.UpdateUserTask(w, req)
			return
		}
		methodNotAllowed(w)
		return
	}

	if len(parts) == 2 && parts[1] == "complete" {
		// /user-tasks/{id}/complete
		if req.Method == http.MethodPost {
			r.taskHandler.CompleteUserTask(w, req)
			return
		}
		methodNotAllowed(w)
		return
	}

	notFound(w)
}

// resourcesRouter обрабатывает все запросы к /resources/
func (r *Router) resourcesRouter(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/resources")
	path = strings.Trim(path, "/")

	if path == "" {
		switch req.Method {
		case http.MethodPost:
			r.resourceHandler.Create(w, req)
		case http.MethodGet:
			r.resourceHandler.List(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	// POST /resources/search - гибридный поиск
	if path == "search" {
		if req.Method == http.MethodPost {
			r.resourceHandler.Search(w, req)
			return
		}
		methodNotAllowed(w)
		return
	}

	parts := strings.Split(path, "/")

	if len(parts) == 1 && parts[0] != "" {
		// /resources/{id}
		switch req.Method {
		case http.MethodGet:
			r.resourceHandler.GetByID(w, req)
		case http.MethodPatch:
			r.resourceHandler.Update(w, req)
		case http.MethodDelete:
			r.resourceHandler.Delete(w, req)
		default:
			methodNotAllowed(w)
		}
		return
	}

	notFound(w)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
}

func notFound(w http.ResponseWriter) {
	http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
}
