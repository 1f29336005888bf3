package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/kspl/approval-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// rolePermissions is the default permission grant per role
var rolePermissions = map[domain.RoleType][]domain.PermissionType{
	domain.RoleAdmin: domain.AllPermissionTypes(),
	domain.RoleHOD: {
		domain.PermissionDocumentView,
		domain.PermissionDocumentApprove,
		domain.PermissionDocumentReject,
		domain.PermissionUserView,
		domain.PermissionReportsView,
	},
	domain.RoleEmp: {
		domain.PermissionDocumentView,
		domain.PermissionDocumentCreate,
		domain.PermissionDocumentEdit,
		domain.PermissionDocumentSubmit,
	},
}

var roleDescriptions = map[domain.RoleType]string{
	domain.RoleAdmin: "Administrator with full access",
	domain.RoleHOD:   "Head of department, approves documents for their department",
	domain.RoleEmp:   "Employee, creates and submits documents",
}

// Seed ensures the permission catalogue, the three system roles and an
// initial admin account exist. Safe to run on every startup.
func Seed(ctx context.Context, db *gorm.DB, adminPassword string, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		permsByName := make(map[domain.PermissionType]domain.Permission)
		for _, name := range domain.AllPermissionTypes() {
			var perm domain.Permission
			err := tx.Where("name = ?", name).First(&perm).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				perm = domain.Permission{Name: name}
				if err := tx.Create(&perm).Error; err != nil {
					return fmt.Errorf("failed to seed permission %s: %w", name, err)
				}
			} else if err != nil {
				return err
			}
			permsByName[name] = perm
		}

		for roleName, grantNames := range rolePermissions {
			var role domain.Role
			err := tx.Where("name = ?", roleName).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				grants := make([]domain.Permission, 0, len(grantNames))
				for _, g := range grantNames {
					grants = append(grants, permsByName[g])
				}
				role = domain.Role{
					Name:        roleName,
					Description: roleDescriptions[roleName],
					Permissions: grants,
				}
				if err := tx.Create(&role).Error; err != nil {
					return fmt.Errorf("failed to seed role %s: %w", roleName, err)
				}
				log.Info("seeded role", zap.String("role", string(roleName)))
			} else if err != nil {
				return err
			}
		}

		// Bootstrap an admin account when the user table is empty
		var userCount int64
		if err := tx.Model(&domain.User{}).Count(&userCount).Error; err != nil {
			return err
		}
		if userCount == 0 {
			if adminPassword == "" {
				return errors.New("no users exist and no initial admin password configured")
			}

			var adminRole domain.Role
			if err := tx.Where("name = ?", domain.RoleAdmin).First(&adminRole).Error; err != nil {
				return err
			}

			admin := &domain.User{
				Username: "admin",
				Email:    "admin@localhost",
				IsActive: true,
				Roles:    []domain.Role{adminRole},
			}
			if err := admin.SetPassword(adminPassword); err != nil {
				return err
			}
			if err := tx.Create(admin).Error; err != nil {
				return fmt.Errorf("failed to seed admin user: %w", err)
			}
			log.Warn("seeded initial admin account, change its password",
				zap.String("username", admin.Username))
		}

		return nil
	})
}
