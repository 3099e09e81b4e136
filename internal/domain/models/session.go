package models

// Session - явная "капабилити" текущего пользователя.
// Создаётся JWT middleware на каждый запрос и передаётся в сервисы параметром,
// а не читается из глобального состояния.
type Session struct {
	UserID int64
	Role   string
	Token  string
}

// IsAdmin сообщает, есть ли у сессии права администратора
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
