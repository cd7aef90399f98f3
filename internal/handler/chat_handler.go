package handler

import (
	"net/http"
	"strconv"
	"time"

	"gemini-gateway/internal/domain/chat"
	"gemini-gateway/internal/services"
	"gemini-gateway/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler serves the saved-conversation endpoints. Every route requires an
// authenticated user and only ever touches that user's chats.
type ChatHandler struct {
	chats   *services.ChatService
	uploads *services.UploadService
}

func NewChatHandler(chats *services.ChatService, uploads *services.UploadService) *ChatHandler {
	return &ChatHandler{chats: chats, uploads: uploads}
}

func (h *ChatHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req httpdto.CreateChatRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.chats.Create(c.Request.Context(), services.CreateChatInput{
		UserID:   userID,
		Title:    req.Title,
		Messages: toMessageInputs(req.Messages),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(toChatDTO(created)))
}

func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.chats.List(c.Request.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	items := make([]httpdto.ChatDTO, len(res.Chats))
	for i, item := range res.Chats {
		items[i] = toChatDTO(item)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ChatListResponse{
		Chats: items,
		Total: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
	}))
}

func (h *ChatHandler) Get(c *gin.Context) {
	userID, chatID, ok := requireUserAndChat(c)
	if !ok {
		return
	}
	item, err := h.chats.Get(c.Request.Context(), userID, chatID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toChatDTO(item)))
}

func (h *ChatHandler) Update(c *gin.Context) {
	userID, chatID, ok := requireUserAndChat(c)
	if !ok {
		return
	}
	var req httpdto.UpdateChatRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.chats.Update(c.Request.Context(), services.UpdateChatInput{
		UserID:   userID,
		ChatID:   chatID,
		Title:    req.Title,
		Messages: toMessageInputs(req.Messages),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toChatDTO(item)))
}

func (h *ChatHandler) Delete(c *gin.Context) {
	userID, chatID, ok := requireUserAndChat(c)
	if !ok {
		return
	}
	if err := h.chats.Delete(c.Request.Context(), userID, chatID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Upload issues a presigned URL the client uses to put an attachment in the bucket.
func (h *ChatHandler) Upload(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req httpdto.UploadRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.uploads.CreatePresignedUpload(c.Request.Context(), services.PresignInput{
		UploaderID:  userID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.SizeBytes,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UploadResponse{
		UploadURL: res.UploadURL,
		UploadKey: res.UploadKey,
		FileURL:   res.FileURL,
		Headers:   res.Headers,
	}))
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, false
	}
	return userID, true
}

func requireUserAndChat(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid chat id", "INVALID_REQUEST"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, chatID, true
}

func toMessageInputs(in []httpdto.MessageDTO) []services.MessageInput {
	out := make([]services.MessageInput, len(in))
	for i, m := range in {
		out[i] = services.MessageInput{Role: m.Role, Content: m.Content, AttachmentURL: m.AttachmentURL}
	}
	return out
}

func toChatDTO(c chat.Chat) httpdto.ChatDTO {
	dto := httpdto.ChatDTO{
		ID:        c.ID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	for _, m := range c.Messages {
		dto.Messages = append(dto.Messages, httpdto.MessageDTO{
			Role:          m.Role,
			Content:       m.Content,
			AttachmentURL: m.AttachmentURL,
			Seq:           m.Seq,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		})
	}
	return dto
}
