package main

import (
	"flag"
	"fmt"
	"os"

	jwtpkg "msgcenter/backend/internal/auth/jwt"
	"msgcenter/backend/internal/config"
	"msgcenter/backend/internal/domain"
)

// issue-token 为本地调试签发调用方访问令牌
func main() {
	userID := flag.String("user", "", "调用方身份 ID (UUID)")
	role := flag.String("role", string(domain.RoleRegular), "角色: regular, employee, staff, superuser")
	org := flag.Int64("org", domain.UnaffiliatedOrganizationID, "所属组织 ID")
	portal := flag.Int64("portal", 0, "当前门户 ID，0 表示使用所属组织")
	email := flag.String("email", "", "邮箱（可选）")
	flag.Parse()

	id, err := domain.ParseIdentityID(*userID)
	if err != nil {
		fmt.Println("Usage: issue-token -user=<uuid> [-role=employee] [-org=5] [-portal=5]")
		os.Exit(1)
	}

	r := domain.Role(*role)
	if !r.Valid() {
		fmt.Printf("Invalid role: %s\n", *role)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	scope := domain.NewRequestScope(domain.Identity{
		ID:             id,
		Role:           r,
		OrganizationID: *org,
		Email:          *email,
	})
	if *portal > 0 {
		scope.PortalID = *portal
	}

	token, err := jwtpkg.NewManager(cfg.JWT).GenerateAccessToken(scope)
	if err != nil {
		fmt.Printf("Failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✓ Access token issued (role=%s org=%d portal=%d expires in %s)\n",
		r, *org, scope.PortalID, cfg.JWT.AccessExpiry)
	fmt.Println(token)
}
