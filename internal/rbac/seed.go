package rbac

import (
	"context"

	"gorm.io/gorm"
)

// Seed writes the fixed role and permission vocabulary:
// READER gets READ, WRITER gets READ+WRITE, EXECUTOR gets all three.
// Idempotent: if the seed data already exists nothing is written, so repeated
// startups never produce duplicate rows.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	err := db.WithContext(ctx).
		Model(&Permission{}).
		Where("name = ?", PermissionRead).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	permissions := []Permission{
		{Name: PermissionRead},
		{Name: PermissionWrite},
		{Name: PermissionExecute},
	}
	roles := []Role{
		{Name: RoleReader},
		{Name: RoleWriter},
		{Name: RoleExecutor},
	}
	links := []PermissionRoleLink{
		{PermissionName: PermissionRead, RoleName: RoleReader},
		{PermissionName: PermissionRead, RoleName: RoleWriter},
		{PermissionName: PermissionWrite, RoleName: RoleWriter},
		{PermissionName: PermissionRead, RoleName: RoleExecutor},
		{PermissionName: PermissionWrite, RoleName: RoleExecutor},
		{PermissionName: PermissionExecute, RoleName: RoleExecutor},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&permissions).Error; err != nil {
			return err
		}
		if err := tx.Create(&roles).Error; err != nil {
			return err
		}
		return tx.Create(&links).Error
	})
}
