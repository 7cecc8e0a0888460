package domain

// Actor описывает вызывающего пользователя с завершенным профилем.
// Все проверки прав над задачами принимают Actor, а не перечитывают профиль.
type Actor struct {
	UserID int64
	TeamID int64
	Role   Role
}

// IsManager возвращает true если участник - менеджер
func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

// IsEmployee возвращает true если участник - сотрудник
func (a Actor) IsEmployee() bool {
	return a.Role == RoleEmployee
}

// CanCreateTask проверяет право создать задачу в своей команде
func (a Actor) CanCreateTask() error {
	if !a.IsManager() {
		return ErrNotManager
	}
	return nil
}
