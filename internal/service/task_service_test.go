package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
)

func newTaskServiceForTest(now time.Time) (*taskService, *mockTaskTemplateRepo, *mockUserTaskRepo, *mockUserRepo) {
	taskRepo := newMockTaskTemplateRepo()
	userTaskRepo := newMockUserTaskRepo()
	userRepo := newMockUserRepo()
	roleRepo := newMockRoleRepo()

	svc := NewTaskService(taskRepo, userTaskRepo, userRepo, roleRepo, mockTxManager{}).(*taskService)
	svc.now = func() time.Time { return now }

	return svc, taskRepo, userTaskRepo, userRepo
}

func seedUserAndTemplate(t *testing.T, svc *taskService, userRepo *mockUserRepo, dueDays *int) (int64, int64) {
	t.Helper()

	user := &domain.User{FullName: "Alice", Email: "alice@example.com", UserType: domain.UserTypeNewHire}
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	task, err := svc.CreateTemplate(context.Background(), nil, &dto.CreateTaskRequest{
		Title:          "Read the handbook",
		TaskType:       string(domain.TaskTypeLearningModule),
		DefaultDueDays: dueDays,
	})
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	return user.ID, task.ID
}

func intptr(v int) *int { return &v }

func TestAssign_DueDateFromTemplate(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, intptr(7))

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ut.Status != domain.StatusPending {
		t.Errorf("new assignment must be pending, got %s", ut.Status)
	}
	if ut.DueDate == nil {
		t.Fatal("due date must be derived from template")
	}
	want := now.AddDate(0, 0, 7)
	if !ut.DueDate.Equal(want) {
		t.Errorf("expected due date %v, got %v", want, *ut.DueDate)
	}
}

func TestAssign_ExplicitDueDateWins(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, intptr(7))

	due := "2025-07-15"
	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID, DueDate: &due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ut.DueDate == nil || ut.DueDate.Format("2006-01-02") != due {
		t.Errorf("explicit due date must win, got %v", ut.DueDate)
	}
}

func TestAssign_DuplicatePairRejected(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, nil)

	if _, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	var constraintErr *domain.ConstraintError
	if !errors.As(err, &constraintErr) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if constraintErr.Rule != domain.RuleUniqueUserTask {
		t.Errorf("expected rule %s, got %s", domain.RuleUniqueUserTask, constraintErr.Rule)
	}
}

func TestAssign_UnknownTemplate(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)

	user := &domain.User{FullName: "Alice", Email: "alice@example.com", UserType: domain.UserTypeNewHire}
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := svc.Assign(context.Background(), user.ID, &dto.AssignTaskRequest{TaskID: 404})
	var constraintErr *domain.ConstraintError
	if !errors.As(err, &constraintErr) {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if constraintErr.Rule != domain.RuleFKTask {
		t.Errorf("expected rule %s, got %s", domain.RuleFKTask, constraintErr.Rule)
	}
}

func TestListForUser_OverdueDerivedNotStored(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, userTaskRepo, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, intptr(3))

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Сдвигаем часы за срок
	svc.now = func() time.Time { return now.AddDate(0, 0, 10) }

	tasks, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Status != domain.StatusOverdue {
		t.Errorf("expected derived overdue, got %s", tasks[0].Status)
	}

	// В хранилище статус не переписан
	stored, _ := userTaskRepo.GetByID(context.Background(), ut.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("stored status must stay pending, got %s", stored.Status)
	}
}

func TestUpdateUserTask_TransitionFromEffectiveOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, intptr(1))

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Срок прошёл, в БД всё ещё pending. Переход валидируется против
	// эффективного статуса, а overdue -> in_progress разрешён.
	svc.now = func() time.Time { return now.AddDate(0, 0, 5) }

	status := string(domain.StatusInProgress)
	updated, err := svc.UpdateUserTask(context.Background(), ut.ID, &dto.UpdateUserTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("transition from effective overdue must be allowed: %v", err)
	}

	// В БД сохранён in_progress, но в ответе - эффективный статус:
	// срок по-прежнему в прошлом, так что клиент видит overdue,
	// ровно как при последующем чтении.
	stored, err := svc.userTaskRepo.GetByID(context.Background(), ut.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.StatusInProgress {
		t.Errorf("expected stored in_progress, got %s", stored.Status)
	}
	if updated.Status != domain.StatusOverdue {
		t.Errorf("expected effective overdue in response, got %s", updated.Status)
	}
}

func TestUpdateUserTask_CompletedIsTerminal(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, nil)

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Complete(context.Background(), ut.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := string(domain.StatusInProgress)
	_, err = svc.UpdateUserTask(context.Background(), ut.ID, &dto.UpdateUserTaskRequest{Status: &status})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, nil)

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := svc.Complete(context.Background(), ut.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CompletedAt == nil {
		t.Fatal("completed_at must be set")
	}

	// Повторное завершение не трогает completed_at
	svc.now = func() time.Time { return now.Add(48 * time.Hour) }

	second, err := svc.Complete(context.Background(), ut.ID)
	if err != nil {
		t.Fatalf("repeated completion must be a no-op: %v", err)
	}
	if second.CompletedAt == nil || !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at must not change on repeat, got %v then %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestComplete_ViaStatusUpdateIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc, _, _, userRepo := newTaskServiceForTest(now)
	userID, taskID := seedUserAndTemplate(t, svc, userRepo, nil)

	ut, err := svc.Assign(context.Background(), userID, &dto.AssignTaskRequest{TaskID: taskID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := string(domain.StatusCompleted)
	first, err := svc.UpdateUserTask(context.Background(), ut.ID, &dto.UpdateUserTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.now = func() time.Time { return now.Add(48 * time.Hour) }

	second, err := svc.UpdateUserTask(context.Background(), ut.ID, &dto.UpdateUserTaskRequest{Status: &status})
	if err != nil {
		t.Fatalf("completed -> completed must be a no-op: %v", err)
	}
	if second.CompletedAt == nil || !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("completed_at must not change, got %v then %v", first.CompletedAt, second.CompletedAt)
	}
}
