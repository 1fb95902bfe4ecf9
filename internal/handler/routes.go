package handler

import "net/http"

// Handlers groups every HTTP handler the server exposes
type Handlers struct {
	Health        *HealthHandler
	Folders       *FolderHandler
	Tree          *TreeHandler
	Documents     *DocumentHandler
	Mails         *MailHandler
	Notifications *NotificationHandler
}

// RegisterRoutes mounts the API on mux (Go 1.22+ enhanced patterns).
// Literal segments such as /search win over {id} wildcards.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Folder routes
	mux.HandleFunc("POST /api/folders", h.Folders.CreateFolder)
	mux.HandleFunc("GET /api/folders", h.Folders.ListFolders)
	mux.HandleFunc("GET /api/folders/search", h.Folders.SearchFolders)
	mux.HandleFunc("GET /api/folders/{id}", h.Folders.GetFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", h.Folders.ListChildren)
	mux.HandleFunc("GET /api/folders/{id}/path", h.Folders.GetPath)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Folders.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", h.Folders.DeleteFolder)
	mux.HandleFunc("GET /api/tree", h.Tree.GetTree)

	// Document routes
	mux.HandleFunc("POST /api/documents", h.Documents.CreateDocument)
	mux.HandleFunc("GET /api/documents", h.Documents.ListDocuments)
	mux.HandleFunc("GET /api/documents/search", h.Documents.SearchDocuments)
	mux.HandleFunc("GET /api/documents/{id}", h.Documents.GetDocument)
	mux.HandleFunc("GET /api/documents/{id}/history", h.Documents.GetHistory)
	mux.HandleFunc("PATCH /api/documents/{id}", h.Documents.UpdateDocument)
	mux.HandleFunc("POST /api/documents/{id}/move", h.Documents.MoveDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", h.Documents.DeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/restore", h.Documents.RestoreDocument)
	mux.HandleFunc("DELETE /api/documents/{id}/purge", h.Documents.PurgeDocument)

	// Mail routes
	mux.HandleFunc("POST /api/mails", h.Mails.CreateMail)
	mux.HandleFunc("GET /api/mails", h.Mails.ListMails)
	mux.HandleFunc("GET /api/mails/search", h.Mails.SearchMails)
	mux.HandleFunc("GET /api/mails/ready", h.Mails.ReadyForArchival)
	mux.HandleFunc("GET /api/mails/{id}", h.Mails.GetMail)
	mux.HandleFunc("PATCH /api/mails/{id}", h.Mails.UpdateMail)
	mux.HandleFunc("POST /api/mails/{id}/status", h.Mails.UpdateStatus)
	mux.HandleFunc("POST /api/mails/{id}/archive", h.Mails.Archive)

	// Notification routes
	mux.HandleFunc("GET /api/notifications", h.Notifications.ListNotifications)
	mux.HandleFunc("GET /api/notifications/count", h.Notifications.CountUnread)
	mux.HandleFunc("POST /api/notifications/read-all", h.Notifications.MarkAllAsRead)
	mux.HandleFunc("POST /api/notifications/{mailId}/read", h.Notifications.MarkAsRead)

	// Responsible user routes
	mux.HandleFunc("GET /api/responsible", h.Notifications.GetResponsible)
	mux.HandleFunc("PUT /api/responsible", h.Notifications.SetResponsible)
	mux.HandleFunc("DELETE /api/responsible", h.Notifications.RemoveResponsible)
}
