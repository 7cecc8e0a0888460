package domain

import (
	"strconv"
	"strings"
	"time"
)

// TaskStatus представляет статус задачи
type TaskStatus string

// Возможные статусы задачи
const (
	StatusNew        TaskStatus = "new"         // Задача создана и никому не назначена
	StatusInProgress TaskStatus = "in_progress" // Задача назначена сотруднику
	StatusCompleted  TaskStatus = "completed"   // Исполнитель завершил задачу
)

// TaskStatuses перечисляет статусы в порядке отображения
var TaskStatuses = []TaskStatus{StatusNew, StatusInProgress, StatusCompleted}

// Valid возвращает true для известных статусов
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseTaskStatus преобразует строку в статус
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// DateLayout формат срока выполнения задачи
const DateLayout = "2006-01-02"

// Task представляет задачу команды
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"due_date"`
	Status      TaskStatus `json:"status"`
	TeamID      int64      `json:"team_id"`
	AssignedTo  *int64     `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskFields содержит редактируемые менеджером поля задачи.
// DueDate == nil при редактировании оставляет срок без изменений.
type TaskFields struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// IsAssigned возвращает true если задача назначена сотруднику
func (t *Task) IsAssigned() bool {
	return t.AssignedTo != nil
}

// IsAssignedTo проверяет, является ли пользователь исполнителем задачи
func (t *Task) IsAssignedTo(userID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// CanEdit проверяет право редактировать задачу
func (t *Task) CanEdit(a Actor) error {
	if !a.IsManager() {
		return ErrNotManager
	}
	if t.IsAssigned() {
		return ErrTaskAlreadyAssigned
	}
	return nil
}

// CanDelete проверяет право удалить задачу (те же условия, что и для редактирования)
func (t *Task) CanDelete(a Actor) error {
	return t.CanEdit(a)
}

// CanAssign проверяет право взять задачу себе
func (t *Task) CanAssign(a Actor) error {
	if !a.IsEmployee() {
		return ErrNotEmployee
	}
	if t.IsAssigned() {
		return ErrTaskAlreadyAssigned
	}
	return nil
}

// CanChangeStatus проверяет право исполнителя перевести задачу в статус to.
// Назначенная задача не может вернуться в new: снять назначение нельзя.
func (t *Task) CanChangeStatus(a Actor, to TaskStatus) error {
	if !t.IsAssignedTo(a.UserID) {
		return ErrNotAssignee
	}
	if !to.Valid() || to == StatusNew {
		return ErrInvalidStatus
	}
	return nil
}

// Assign назначает задачу пользователю и переводит ее в работу
func (t *Task) Assign(userID int64) {
	t.AssignedTo = &userID
	t.Status = StatusInProgress
}

// WorkerFilter ограничивает список задач по исполнителю.
// Нулевое значение означает "любой исполнитель".
type WorkerFilter struct {
	Unassigned bool
	UserID     *int64
}

// WorkerUnassigned значение фильтра для неназначенных задач
const WorkerUnassigned = "unassigned"

// ParseWorkerFilter разбирает значение параметра worker: пусто, "unassigned" или id пользователя
func ParseWorkerFilter(s string) (WorkerFilter, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return WorkerFilter{}, nil
	case WorkerUnassigned:
		return WorkerFilter{Unassigned: true}, nil
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return WorkerFilter{}, NewValidationError("worker", "must be a user id or \"unassigned\"")
	}
	return WorkerFilter{UserID: &id}, nil
}

// TaskFilter объединяет фильтры списка задач (логическое И)
type TaskFilter struct {
	Status *TaskStatus
	Worker WorkerFilter
}

// Matches проверяет задачу на соответствие фильтру
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	switch {
	case f.Worker.Unassigned:
		return !t.IsAssigned()
	case f.Worker.UserID != nil:
		return t.IsAssignedTo(*f.Worker.UserID)
	}
	return true
}
