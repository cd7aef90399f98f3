package httpdto

type MessageDTO struct {
	Role          string `json:"role" binding:"required"`
	Content       string `json:"content" binding:"required"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	Seq           int    `json:"seq"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateChatRequest is used for POST /api/chat
type CreateChatRequest struct {
	Title    string       `json:"title,omitempty"`
	Messages []MessageDTO `json:"messages" binding:"required,min=1,dive"`
}

// UpdateChatRequest is used for PUT /api/chat/:id. Messages are appended.
type UpdateChatRequest struct {
	Title    *string      `json:"title,omitempty"`
	Messages []MessageDTO `json:"messages,omitempty" binding:"omitempty,dive"`
}

type ChatDTO struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Messages  []MessageDTO `json:"messages,omitempty"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

type ChatListResponse struct {
	Chats []ChatDTO `json:"chats"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// UploadRequest is used for POST /api/chat/uploads
type UploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	SizeBytes   int64  `json:"size_bytes" binding:"required"`
}

type UploadResponse struct {
	UploadURL string            `json:"upload_url"`
	UploadKey string            `json:"upload_key"`
	FileURL   string            `json:"file_url,omitempty"`
	Headers   map[string]string `json:"headers"`
}
