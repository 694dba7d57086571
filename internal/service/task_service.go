package service

import (
	"context"
	"strings"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/repository"
)

// TaskService определяет интерфейс бизнес-логики для шаблонов задач
// и их назначений пользователям
type TaskService interface {
	CreateTemplate(ctx context.Context, roleID *int64, req *dto.CreateTaskRequest) (*domain.OnboardingTask, error)
	GetTemplate(ctx context.Context, id int64) (*domain.OnboardingTask, error)
	GetTemplatesByRole(ctx context.Context, roleID int64) ([]domain.OnboardingTask, error)
	UpdateTemplate(ctx context.Context, id int64, req *dto.UpdateTaskRequest) (*domain.OnboardingTask, error)
	DeleteTemplate(ctx context.Context, id int64) error

	Assign(ctx context.Context, userID int64, req *dto.AssignTaskRequest) (*domain.UserTask, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.UserTask, error)
	UpdateUserTask(ctx context.Context, id int64, req *dto.UpdateUserTaskRequest) (*domain.UserTask, error)
	Complete(ctx context.Context, id int64) (*domain.UserTask, error)
}

type taskService struct {
	taskRepo     repository.TaskTemplateRepository
	userTaskRepo repository.UserTaskRepository
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	txm          repository.TxManager
	now          func() time.Time
}

// NewTaskService создаёт новый экземпляр сервиса
func NewTaskService(
	taskRepo repository.TaskTemplateRepository,
	userTaskRepo repository.UserTaskRepository,
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	txm repository.TxManager,
) TaskService {
	return &taskService{
		taskRepo:     taskRepo,
		userTaskRepo: userTaskRepo,
		userRepo:     userRepo,
		roleRepo:     roleRepo,
		txm:          txm,
		now:          time.Now,
	}
}

func (s *taskService) CreateTemplate(ctx context.Context, roleID *int64, req *dto.CreateTaskRequest) (*domain.OnboardingTask, error) {
	taskType := domain.TaskType(req.TaskType)
	if !taskType.Valid() {
		return nil, domain.NewConstraintError(domain.RuleEnumTaskType, req.TaskType)
	}

	task := &domain.OnboardingTask{
		RoleID:         roleID,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		TaskType:       taskType,
		DefaultDueDays: req.DefaultDueDays,
	}

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		if roleID != nil {
			if _, err := s.roleRepo.GetByID(ctx, *roleID); err != nil {
				return err
			}
		}
		return s.taskRepo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) GetTemplate(ctx context.Context, id int64) (*domain.OnboardingTask, error) {
	return s.taskRepo.GetByID(ctx, id)
}

func (s *taskService) GetTemplatesByRole(ctx context.Context, roleID int64) ([]domain.OnboardingTask, error) {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByRoleID(ctx, roleID)
}

func (s *taskService) UpdateTemplate(ctx context.Context, id int64, req *dto.UpdateTaskRequest) (*domain.OnboardingTask, error) {
	var task *domain.OnboardingTask

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.taskRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			task.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.TaskType != nil {
			taskType := domain.TaskType(*req.TaskType)
			if !taskType.Valid() {
				return domain.NewConstraintError(domain.RuleEnumTaskType, *req.TaskType)
			}
			task.TaskType = taskType
		}
		if req.DefaultDueDays != nil {
			task.DefaultDueDays = req.DefaultDueDays
		}

		return s.taskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.taskRepo.Delete(ctx, id)
}

// Assign назначает шаблон задачи пользователю. Срок берётся из запроса,
// иначе считается от default_due_days шаблона относительно текущего момента.
func (s *taskService) Assign(ctx context.Context, userID int64, req *dto.AssignTaskRequest) (*domain.UserTask, error) {
	ut := &domain.UserTask{
		UserID: userID,
		TaskID: req.TaskID,
		Status: domain.StatusPending,
	}

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return err
		}

		task, err := s.taskRepo.GetByID(ctx, req.TaskID)
		if err != nil {
			if err == domain.ErrTaskNotFound {
				return domain.NewConstraintError(domain.RuleFKTask, "")
			}
			return err
		}

		// Пара (пользователь, шаблон) уникальна
		exists, err := s.userTaskRepo.ExistsByUserAndTask(ctx, userID, req.TaskID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConstraintError(domain.RuleUniqueUserTask, "")
		}

		if req.DueDate != nil {
			dueDate, err := time.Parse("2006-01-02", *req.DueDate)
			if err != nil {
				return err
			}
			ut.DueDate = &dueDate
		} else if task.DefaultDueDays != nil {
			dueDate := s.now().UTC().AddDate(0, 0, *task.DefaultDueDays)
			ut.DueDate = &dueDate
		}

		return s.userTaskRepo.Create(ctx, ut)
	})
	if err != nil {
		return nil, err
	}

	return ut, nil
}

// ListForUser возвращает назначенные задачи пользователя с эффективным
// статусом: просрочка вычислена лениво на момент чтения, в БД не пишется
func (s *taskService) ListForUser(ctx context.Context, userID int64) ([]domain.UserTask, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tasks, err := s.userTaskRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range tasks {
		tasks[i].Status = domain.EffectiveStatus(&tasks[i], now)
	}
	return tasks, nil
}

// UpdateUserTask меняет статус назначенной задачи и/или ссылку на
// результат и фидбек. Переход валидируется против эффективного статуса.
func (s *taskService) UpdateUserTask(ctx context.Context, id int64, req *dto.UpdateUserTaskRequest) (*domain.UserTask, error) {
	var ut *domain.UserTask

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		ut, err = s.userTaskRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != nil {
			target := domain.TaskStatus(*req.Status)
			if !target.Valid() {
				return domain.NewConstraintError(domain.RuleEnumStatus, *req.Status)
			}

			current := domain.EffectiveStatus(ut, s.now())
			switch {
			case current == domain.StatusCompleted && target == domain.StatusCompleted:
				// Идемпотентное завершение: состояние не меняется
			case target == domain.StatusCompleted:
				s.markCompleted(ut)
			case domain.CanTransition(current, target):
				ut.Status = target
			default:
				return domain.ErrInvalidTransition
			}
		}

		if req.SubmissionURL != nil {
			ut.SubmissionURL = req.SubmissionURL
		}
		if req.Feedback != nil {
			ut.Feedback = req.Feedback
		}

		return s.userTaskRepo.Update(ctx, ut)
	})
	if err != nil {
		return nil, err
	}

	// Ответ отдаёт эффективный статус, как и любое чтение: при
	// просроченном дедлайне клиент видит overdue даже сразу после перехода
	ut.Status = domain.EffectiveStatus(ut, s.now())
	return ut, nil
}

// Complete завершает задачу. Повторный вызов на завершённой задаче -
// no-op: возвращается существующая запись с прежним completed_at.
func (s *taskService) Complete(ctx context.Context, id int64) (*domain.UserTask, error) {
	var ut *domain.UserTask

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		ut, err = s.userTaskRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if ut.Status == domain.StatusCompleted {
			return nil
		}

		s.markCompleted(ut)
		return s.userTaskRepo.Update(ctx, ut)
	})
	if err != nil {
		return nil, err
	}

	return ut, nil
}

// markCompleted переводит задачу в completed, проставляя completed_at
// ровно один раз
func (s *taskService) markCompleted(ut *domain.UserTask) {
	ut.Status = domain.StatusCompleted
	if ut.CompletedAt == nil {
		completedAt := s.now().UTC()
		ut.CompletedAt = &completedAt
	}
}
