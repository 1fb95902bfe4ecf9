package auth

import (
	"archivist/internal/domain"
	"archivist/internal/domain/models"
	"archivist/internal/domain/models/docsystem"
	"archivist/internal/domain/models/mail"
	"archivist/internal/domain/services"
)

// LevelAuthorizer implements Authorizer using the user's authority level.
// Lower levels are more privileged; see models.PermissionsForLevel.
type LevelAuthorizer struct{}

// NewLevelAuthorizer creates a new level-based authorizer
func NewLevelAuthorizer() *LevelAuthorizer {
	return &LevelAuthorizer{}
}

var _ services.Authorizer = (*LevelAuthorizer)(nil)

// Require checks that user holds perm
func (a *LevelAuthorizer) Require(user *models.User, perm models.Permission, action string) error {
	if user == nil {
		return &domain.PermissionError{Action: action, Required: requiredLevel(perm), Actual: -1}
	}
	if !user.Active {
		return &domain.PermissionError{Action: action, Required: requiredLevel(perm), Actual: user.AuthorityLevel}
	}
	if !user.Can(perm) {
		return &domain.PermissionError{Action: action, Required: requiredLevel(perm), Actual: user.AuthorityLevel}
	}
	return nil
}

// CanAccessFolder hides the confidential folder from users without clearance
func (a *LevelAuthorizer) CanAccessFolder(user *models.User, folder *docsystem.Folder) bool {
	if folder == nil {
		return false
	}
	if folder.IsConfidential() {
		return user.Can(models.PermConfidentialAccess)
	}
	return true
}

// CanAccessDocument hides confidential documents from users without clearance
func (a *LevelAuthorizer) CanAccessDocument(user *models.User, doc *docsystem.Document) bool {
	if doc == nil {
		return false
	}
	if doc.Confidential || doc.FolderCode == docsystem.ConfidentialFolderCode {
		return user.Can(models.PermConfidentialAccess)
	}
	return true
}

// CanAccessMail hides confidential mail from users without clearance
func (a *LevelAuthorizer) CanAccessMail(user *models.User, m *mail.Mail) bool {
	if m == nil {
		return false
	}
	if m.Confidential {
		return user.Can(models.PermConfidentialAccess)
	}
	return true
}

// requiredLevel returns the least privileged level that holds perm
func requiredLevel(perm models.Permission) int {
	for level := models.AuthorityReader; level >= models.AuthorityAdmin; level-- {
		if models.PermissionsForLevel(level).Has(perm) {
			return level
		}
	}
	return models.AuthorityAdmin
}
