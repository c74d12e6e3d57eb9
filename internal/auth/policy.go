package auth

import (
	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// CanViewSelfOrAdmin allows admins and the owner of the resource.
func CanViewSelfOrAdmin(requester *models.User, ownerID uint) error {
	if requester == nil {
		return apperrors.ErrNotAuthenticated
	}
	if requester.Admin || requester.ID == ownerID {
		return nil
	}
	return apperrors.ErrForbidden
}

// CanAdminOnly allows admins only.
func CanAdminOnly(requester *models.User) error {
	if requester == nil {
		return apperrors.ErrNotAuthenticated
	}
	if requester.Admin {
		return nil
	}
	return apperrors.ErrForbidden
}

// ListScope returns the owner filter for listings: nil for admins, the
// requester's own id otherwise. A nil requester gets id 0, which owns nothing.
func ListScope(requester *models.User) *uint {
	var id uint
	if requester != nil {
		if requester.Admin {
			return nil
		}
		id = requester.ID
	}
	return &id
}
