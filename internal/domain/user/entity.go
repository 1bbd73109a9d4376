package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "customer" // 顾客：只能操作自己的订单
	RoleStaff    Role = "staff"    // 店员：开票、确认/指派/完成订单、补货
	RoleAdmin    Role = "admin"    // 管理员：另外可以维护促销
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleStaff || r == RoleAdmin
}

// AtLeast 角色等级是否不低于min（customer < staff < admin）
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleStaff:
		return 2
	case RoleCustomer:
		return 1
	default:
		return 0
	}
}

// User 用户实体
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建用户，默认角色为顾客
func NewUser(email, hashedPassword, nickname string) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Actor 发起操作的用户（从JWT中解析）
type Actor struct {
	UserID uint
	Role   Role
}

// IsStaff 店员或管理员
func (a Actor) IsStaff() bool {
	return a.Role.AtLeast(RoleStaff)
}

// CanAccess 本人或店员可以访问ownerID的数据
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsStaff() || (a.UserID != 0 && a.UserID == ownerID)
}
