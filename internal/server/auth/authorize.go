package auth

import (
	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/models"
)

// Authorize is the single authorization decision for the API.
//
// It checks, in order:
//   - identity is present (common.ErrNotAuthenticated otherwise);
//   - identity's role belongs to requiredRoles, exact-set membership with no
//     hierarchy; an empty set admits any role
//     (common.ErrInsufficientPermissions otherwise);
//   - when ownerID > 0, that the caller owns the resource. Admins bypass the
//     ownership comparison entirely.
func Authorize(identity *models.Identity, requiredRoles []models.Role, ownerID int64) error {
	if identity == nil {
		return common.ErrNotAuthenticated
	}

	if len(requiredRoles) > 0 {
		allowed := false
		for _, role := range requiredRoles {
			if identity.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return common.ErrInsufficientPermissions
		}
	}

	if ownerID > 0 && identity.Role != models.RoleAdmin && identity.UserID != ownerID {
		return common.ErrInsufficientPermissions
	}

	return nil
}
