package service

import (
	"context"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/repository"
)

// mockTxManager выполняет функцию без настоящей транзакции
type mockTxManager struct{}

func (mockTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if user, ok := m.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string, excludeID *int64) (bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			if excludeID == nil || user.ID != *excludeID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockUserRepo) AncestorChain(_ context.Context, rel repository.HierarchyRelation, startID int64, maxDepth int) ([]int64, bool, error) {
	chain := make([]int64, 0, 8)
	current := startID

	for depth := 0; depth < maxDepth; depth++ {
		user, ok := m.users[current]
		if !ok {
			return nil, false, domain.ErrUserNotFound
		}
		chain = append(chain, current)

		next := user.ManagerID
		if rel == repository.RelationMentor {
			next = user.MentorID
		}
		if next == nil {
			return chain, false, nil
		}
		current = *next
	}

	return chain, true, nil
}

type mockRoleRepo struct {
	roles  map[int64]*domain.Role
	nextID int64
}

func newMockRoleRepo() *mockRoleRepo {
	return &mockRoleRepo{roles: make(map[int64]*domain.Role), nextID: 1}
}

func (m *mockRoleRepo) Create(_ context.Context, role *domain.Role) error {
	role.ID = m.nextID
	m.nextID++
	m.roles[role.ID] = role
	return nil
}

func (m *mockRoleRepo) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	if role, ok := m.roles[id]; ok {
		return role, nil
	}
	return nil, domain.ErrRoleNotFound
}

func (m *mockRoleRepo) GetByDepartmentID(_ context.Context, departmentID int64) ([]domain.Role, error) {
	var out []domain.Role
	for _, role := range m.roles {
		if role.DepartmentID == departmentID {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (m *mockRoleRepo) Update(_ context.Context, role *domain.Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *mockRoleRepo) Delete(_ context.Context, id int64) error {
	delete(m.roles, id)
	return nil
}

func (m *mockRoleRepo) ExistsByTitle(_ context.Context, title string, excludeID *int64) (bool, error) {
	for _, role := range m.roles {
		if role.Title == title {
			if excludeID == nil || role.ID != *excludeID {
				return true, nil
			}
		}
	}
	return false, nil
}

type mockTaskTemplateRepo struct {
	tasks  map[int64]*domain.OnboardingTask
	nextID int64
}

func newMockTaskTemplateRepo() *mockTaskTemplateRepo {
	return &mockTaskTemplateRepo{tasks: make(map[int64]*domain.OnboardingTask), nextID: 1}
}

func (m *mockTaskTemplateRepo) Create(_ context.Context, task *domain.OnboardingTask) error {
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskTemplateRepo) GetByID(_ context.Context, id int64) (*domain.OnboardingTask, error) {
	if task, ok := m.tasks[id]; ok {
		return task, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockTaskTemplateRepo) GetByRoleID(_ context.Context, roleID int64) ([]domain.OnboardingTask, error) {
	var out []domain.OnboardingTask
	for _, task := range m.tasks {
		if task.RoleID != nil && *task.RoleID == roleID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *mockTaskTemplateRepo) Update(_ context.Context, task *domain.OnboardingTask) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskTemplateRepo) Delete(_ context.Context, id int64) error {
	delete(m.tasks, id)
	return nil
}

type mockUserTaskRepo struct {
	userTasks map[int64]*domain.UserTask
	nextID    int64
}

func newMockUserTaskRepo() *mockUserTaskRepo {
	return &mockUserTaskRepo{userTasks: make(map[int64]*domain.UserTask), nextID: 1}
}

func (m *mockUserTaskRepo) Create(_ context.Context, ut *domain.UserTask) error {
	ut.ID = m.nextID
	ut.CreatedAt = time.Now()
	m.nextID++
	stored := *ut
	m.userTasks[ut.ID] = &stored
	return nil
}

func (m *mockUserTaskRepo) GetByID(_ context.Context, id int64) (*domain.UserTask, error) {
	if ut, ok := m.userTasks[id]; ok {
		copied := *ut
		return &copied, nil
	}
	return nil, domain.ErrUserTaskNotFound
}

func (m *mockUserTaskRepo) GetByUserID(_ context.Context, userID int64) ([]domain.UserTask, error) {
	var out []domain.UserTask
	for _, ut := range m.userTasks {
		if ut.UserID == userID {
			out = append(out, *ut)
		}
	}
	return out, nil
}

func (m *mockUserTaskRepo) Update(_ context.Context, ut *domain.UserTask) error {
	if _, ok := m.userTasks[ut.ID]; !ok {
		return domain.ErrUserTaskNotFound
	}
	stored := *ut
	m.userTasks[ut.ID] = &stored
	return nil
}

func (m *mockUserTaskRepo) Delete(_ context.Context, id int64) error {
	delete(m.userTasks, id)
	return nil
}

func (m *mockUserTaskRepo) ExistsByUserAndTask(_ context.Context, userID, taskID int64) (bool, error) {
	for _, ut := range m.userTasks {
		if ut.UserID == userID && ut.TaskID == taskID {
			return true, nil
		}
	}
	return false, nil
}
