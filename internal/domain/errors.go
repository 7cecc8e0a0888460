package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Базовые категории ошибок. Конкретные ошибки ниже оборачивают их,
// поэтому errors.Is(err, ErrForbidden) срабатывает для любого отказа в доступе.
var (
	// ErrNotFound возвращается когда ресурс не найден в области видимости вызывающего
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden возвращается когда роль или владение не позволяют выполнить действие
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")
)

// Доменные ошибки
var (
	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTeamNotFound возвращается когда команда не найдена
	ErrTeamNotFound = fmt.Errorf("%w: team", ErrNotFound)

	// ErrTaskNotFound возвращается когда задача не найдена или принадлежит другой команде
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrProfileNotFound возвращается когда у пользователя нет профиля
	ErrProfileNotFound = fmt.Errorf("%w: profile", ErrNotFound)

	// ErrTeamExists возвращается при попытке создать уже существующую команду
	ErrTeamExists = errors.New("team already exists")

	// ErrNoTeams возвращается когда команд нет и создать начальные не из чего
	ErrNoTeams = errors.New("no teams exist and no default team names given")

	// ErrUsernameTaken возвращается при регистрации с занятым именем пользователя
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials возвращается при неверной паре логин/пароль
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)

	// ErrInvalidToken возвращается когда JWT токен невалиден или отозван
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthorized)

	// ErrProfileIncomplete возвращается пока у профиля не выбраны команда и роль
	ErrProfileIncomplete = errors.New("profile setup is not complete")

	// ErrProfileAlreadyComplete возвращается при повторной настройке профиля
	ErrProfileAlreadyComplete = errors.New("profile setup is already complete")

	// ErrNotManager возвращается когда действие доступно только менеджеру
	ErrNotManager = fmt.Errorf("%w: manager role required", ErrForbidden)

	// ErrNotEmployee возвращается когда действие доступно только сотруднику
	ErrNotEmployee = fmt.Errorf("%w: employee role required", ErrForbidden)

	// ErrTaskAlreadyAssigned возвращается при изменении уже назначенной задачи
	ErrTaskAlreadyAssigned = fmt.Errorf("%w: task is already assigned", ErrForbidden)

	// ErrNotAssignee возвращается когда статус меняет не исполнитель задачи
	ErrNotAssignee = fmt.Errorf("%w: only the assignee may change status", ErrForbidden)

	// ErrInvalidStatus возвращается при неизвестном или недопустимом статусе
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrPreconditionFailed возвращается репозиторием, когда условное обновление
	// не затронуло ни одной строки. Сервис уточняет причину повторным чтением.
	ErrPreconditionFailed = errors.New("task precondition failed")
)

// ValidationError содержит ошибки валидации по полям формы
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создает ошибку валидации для одного поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ErrorCode представляет коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"   // Некорректные данные формы
	CodeInvalidStatus     ErrorCode = "INVALID_STATUS"     // Недопустимый статус задачи
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"       // Нет сессии или неверные учетные данные
	CodeForbidden         ErrorCode = "FORBIDDEN"          // Роль или владение не позволяют действие
	CodeNotFound          ErrorCode = "NOT_FOUND"          // Ресурс не найден в команде
	CodeTeamExists        ErrorCode = "TEAM_EXISTS"        // Команда уже существует
	CodeProfileIncomplete ErrorCode = "PROFILE_INCOMPLETE" // Нужно завершить настройку профиля
	CodeProfileComplete   ErrorCode = "PROFILE_COMPLETE"   // Профиль уже настроен
	CodeInternal          ErrorCode = "INTERNAL_ERROR"     // Непредвиденная ошибка
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, ErrUsernameTaken):
		return CodeValidation
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTeamExists):
		return CodeTeamExists
	case errors.Is(err, ErrProfileIncomplete):
		return CodeProfileIncomplete
	case errors.Is(err, ErrProfileAlreadyComplete):
		return CodeProfileComplete
	default:
		return CodeInternal
	}
}
