package domain

// Team представляет именованную команду
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamMember представляет пользователя в составе команды (используется в списке задач)
type TeamMember struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// TaskCounts содержит количество задач по статусам
type TaskCounts struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// MemberStats содержит статистику назначенных задач участника команды
type MemberStats struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	Assigned   int    `json:"assigned"`
	InProgress int    `json:"in_progress"`
	Completed  int    `json:"completed"`
}

// TeamStats объединяет статистику задач команды
type TeamStats struct {
	TeamID  int64         `json:"team_id"`
	Tasks   TaskCounts    `json:"tasks"`
	Members []MemberStats `json:"members"`
}
