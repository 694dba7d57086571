package domain

import "time"

// TaskStatus - статус назначенной задачи
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusOverdue    TaskStatus = "overdue"
)

// Valid проверяет, что статус входит в перечисление
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// Terminal возвращает true для финальных статусов
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted
}

// Разрешённые переходы статусов. Переход в overdue не входит в таблицу:
// просрочка вычисляется лениво на чтении, а не записывается переходом.
var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:    {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
	StatusOverdue:    {StatusInProgress, StatusCompleted},
	StatusCompleted:  {},
}

// CanTransition проверяет допустимость перехода from -> to
func CanTransition(from, to TaskStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EffectiveStatus возвращает статус задачи с учётом просрочки.
// Просрочка вычисляется лениво: если срок прошёл, а задача не завершена,
// статус на чтении выдаётся как overdue без записи в БД.
func EffectiveStatus(t *UserTask, now time.Time) TaskStatus {
	if t.Status == StatusCompleted {
		return StatusCompleted
	}
	if t.DueDate != nil && now.After(*t.DueDate) {
		return StatusOverdue
	}
	return t.Status
}
