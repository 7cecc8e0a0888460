package domain

import "time"

// User представляет учетную запись (identity) пользователя
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role представляет роль пользователя в команде
type Role string

// Возможные роли
const (
	RoleManager  Role = "manager"  // Создает и редактирует задачи
	RoleEmployee Role = "employee" // Берет задачи и ведет их статус
)

// Valid возвращает true для известных ролей
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleEmployee
}

// ParseRole преобразует строку в роль
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", NewValidationError("role", "must be one of: manager, employee")
	}
	return r, nil
}

// Profile привязывает пользователя к одной команде и одной роли.
// Пока TeamID или Role равны nil, профиль считается незавершенным.
type Profile struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	TeamID *int64 `json:"team_id"`
	Role   *Role  `json:"role"`
}

// IsComplete возвращает true если выбраны и команда, и роль
func (p *Profile) IsComplete() bool {
	return p != nil && p.TeamID != nil && p.Role != nil
}

// IsManager возвращает true для завершенного профиля менеджера
func (p *Profile) IsManager() bool {
	return p.IsComplete() && *p.Role == RoleManager
}

// IsEmployee возвращает true для завершенного профиля сотрудника
func (p *Profile) IsEmployee() bool {
	return p.IsComplete() && *p.Role == RoleEmployee
}

// Actor возвращает участника действия для завершенного профиля
func (p *Profile) Actor() (Actor, error) {
	if !p.IsComplete() {
		return Actor{}, ErrProfileIncomplete
	}
	return Actor{UserID: p.UserID, TeamID: *p.TeamID, Role: *p.Role}, nil
}
