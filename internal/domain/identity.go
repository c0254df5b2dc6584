package domain

// Role 调用方角色
type Role string

const (
	RoleRegular   Role = "regular"
	RoleEmployee  Role = "employee"
	RoleStaff     Role = "staff"
	RoleSuperuser Role = "superuser"
)

// UnaffiliatedOrganizationID 表示未归属任何门户的全局组织
const UnaffiliatedOrganizationID int64 = 0

// rolePriority 角色优先级，数值越大权限越高
var rolePriority = map[Role]int{
	RoleRegular:   0,
	RoleEmployee:  1,
	RoleStaff:     2,
	RoleSuperuser: 3,
}

// Valid 判断角色是否为已知角色
func (r Role) Valid() bool {
	_, ok := rolePriority[r]
	return ok
}

// NormalizeRole 将多个角色标记收敛为权限最高的单一角色
//
// 用户在库中可能同时带有 staff/superuser/employee 标记，
// 访问控制只关心其中权限最高的一个。未知角色被忽略，全部为空时返回 regular。
func NormalizeRole(roles ...Role) Role {
	normalized := RoleRegular
	for _, r := range roles {
		if !r.Valid() {
			continue
		}
		if rolePriority[r] > rolePriority[normalized] {
			normalized = r
		}
	}
	return normalized
}

// RoleFlags 库中独立存储的角色标记
type RoleFlags struct {
	Staff     bool
	Superuser bool
	Employee  bool
}

// Resolve 将角色列与标记收敛为单一角色
func (f RoleFlags) Resolve(role Role) Role {
	roles := []Role{role}
	if f.Staff {
		roles = append(roles, RoleStaff)
	}
	if f.Superuser {
		roles = append(roles, RoleSuperuser)
	}
	if f.Employee {
		roles = append(roles, RoleEmployee)
	}
	return NormalizeRole(roles...)
}

// Identity 请求方或被预览方的身份信息，单次请求内不可变
type Identity struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	OrganizationID int64  `json:"organizationId"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
}

// IsUnaffiliated 判断身份是否不属于任何门户
func (i Identity) IsUnaffiliated() bool {
	return i.OrganizationID == UnaffiliatedOrganizationID
}

// PreviewRequest 以他人身份预览内容的请求，仅在携带 preview 参数时存在
type PreviewRequest struct {
	TargetIdentityID string
}

// NewPreviewRequest 根据 preview 参数构造预览请求，参数为空时返回 nil
func NewPreviewRequest(targetID string) *PreviewRequest {
	if targetID == "" {
		return nil
	}
	return &PreviewRequest{TargetIdentityID: targetID}
}

// RequestScope 显式传递的请求上下文：调用方身份与当前门户
type RequestScope struct {
	Caller   Identity
	PortalID int64
}

// NewRequestScope 创建请求上下文，门户默认取调用方所属组织
func NewRequestScope(caller Identity) RequestScope {
	return RequestScope{
		Caller:   caller,
		PortalID: caller.OrganizationID,
	}
}
