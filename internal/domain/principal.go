package domain

// Role — роль пользователя из токена доступа.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Principal — аутентифицированный пользователь запроса.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin сообщает, что пользователь администратор.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanAccessOrder — владелец или администратор.
func (p Principal) CanAccessOrder(order Order) bool {
	return p.IsAdmin() || order.OwnedBy(p.UserID)
}
