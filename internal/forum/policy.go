package forum

import (
	"time"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/auth"
	"filiales-backend/internal/scope"
)

// EditWindow is how long authors may change or remove their own posts.
const EditWindow = 15 * time.Minute

// canRead: club-wide topics are visible to everyone, the rest follow the
// usual branch rule.
func canRead(id auth.Identity, filialID *uint) bool {
	if filialID == nil {
		return true
	}
	return scope.CanAccessBranch(id, *filialID)
}

// canModify reports whether id may edit or delete a post written by authorID
// at createdAt. Admins always can; authors only inside EditWindow.
func canModify(id auth.Identity, authorID uint, createdAt, now time.Time) bool {
	if id.IsAdmin() {
		return true
	}
	return id.UserID == authorID && now.Sub(createdAt) <= EditWindow
}

func ensureModify(id auth.Identity, authorID uint, createdAt time.Time) error {
	if canModify(id, authorID, createdAt, time.Now()) {
		return nil
	}
	if id.UserID == authorID {
		return apperr.Forbidden("Pasaron más de 15 minutos, ya no podés modificar esta publicación")
	}
	return apperr.Forbidden("Solo el autor puede modificar esta publicación")
}
