package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "parley-server/chat-api/internal/domain/conversation"
	"parley-server/chat-api/internal/infrastructure/database/entities"
	"parley-server/chat-api/internal/utils/platformerrors"
)

// Repository persists conversations and messages in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ domain.Repository = (*Repository)(nil)

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"7a1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindByPublicID fetches a conversation by its public ID. Deleted
// conversations are invisible to every read path.
func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND status <> ?", publicID, domain.ConversationStatusDeleted).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", publicID),
				nil,
				"8b2c3d4e-5f6a-7b8c-9d0e-1f2a3b4c5d6e",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"9c3d4e5f-6a7b-8c9d-0e1f-2a3b4c5d6e7f",
		)
	}

	return entity.EtoD(), nil
}

// FindByID fetches a conversation by its internal ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("status <> ?", domain.ConversationStatusDeleted).
		First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %d", id),
				nil,
				"find-by-id-not-found",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
			"find-by-id-db-error",
		)
	}
	return entity.EtoD(), nil
}

// FindByFilter fetches conversations matching the filter criteria, newest
// activity first.
func (r *Repository) FindByFilter(ctx context.Context, filter domain.ConversationFilter, pagination *domain.Pagination) ([]*domain.Conversation, error) {
	query := r.applyFilter(ctx, filter)

	if pagination != nil && pagination.PageSize > 0 {
		query = query.Offset(pagination.Offset()).Limit(pagination.PageSize)
	}

	var rows []entities.Conversation
	if err := query.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"0d4e5f6a-7b8c-9d0e-1f2a-3b4c5d6e7f8a",
		)
	}

	conversations := make([]*domain.Conversation, len(rows))
	for i := range rows {
		conversations[i] = rows[i].EtoD()
	}
	return conversations, nil
}

// Count returns the number of conversations matching the filter.
func (r *Repository) Count(ctx context.Context, filter domain.ConversationFilter) (int64, error) {
	var total int64
	if err := r.applyFilter(ctx, filter).Count(&total).Error; err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count conversations",
			err,
			"1e5f6a7b-8c9d-0e1f-2a3b-4c5d6e7f8a9b",
		)
	}
	return total, nil
}

func (r *Repository) applyFilter(ctx context.Context, filter domain.ConversationFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Conversation{})

	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.PublicID != nil {
		query = query.Where("public_id = ?", *filter.PublicID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else {
		query = query.Where("status <> ?", domain.ConversationStatusDeleted)
	}
	return query
}

// Update persists conversation metadata changes.
func (r *Repository) Update(ctx context.Context, conv *domain.Conversation) error {
	entity := entities.NewSchemaConversation(conv)

	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conv.ID).
		Updates(map[string]any{
			"title":        entity.Title,
			"status":       entity.Status,
			"total_tokens": entity.TotalTokens,
			"updated_at":   entity.UpdatedAt,
		}).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation",
			err,
			"2f6a7b8c-9d0e-1f2a-3b4c-5d6e7f8a9b0c",
		)
	}
	return nil
}

// Delete marks a conversation as deleted. Rows are kept for audit.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ? AND status <> ?", id, domain.ConversationStatusDeleted).
		Update("status", domain.ConversationStatusDeleted)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversation",
			result.Error,
			"3a7b8c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", id),
			nil,
			"delete-conversation-not-found",
		)
	}
	return nil
}

// AppendMessage inserts a message row. Public IDs act as idempotency keys:
// a replayed append with a known public ID adopts the existing row instead of
// failing or duplicating the turn.
func (r *Repository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)

	err := r.db.WithContext(ctx).Create(entity).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := r.FindMessageByPublicID(ctx, msg.PublicID)
		if findErr != nil {
			return findErr
		}
		*msg = *existing
		return nil
	}
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to append message",
			err,
			"4b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e",
		)
	}

	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt
	msg.UpdatedAt = entity.UpdatedAt
	return nil
}

// FindMessageByPublicID fetches a message by its public ID.
func (r *Repository) FindMessageByPublicID(ctx context.Context, publicID string) (*domain.Message, error) {
	var entity entities.Message
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("message not found: %s", publicID),
				nil,
				"5c9d0e1f-2a3b-4c5d-6e7f-8a9b0c1d2e3f",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch message",
			err,
			"6d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4a",
		)
	}
	return entity.EtoD(), nil
}

// DeactivateMessage flips an active message to inactive. Deactivating an
// already inactive message is a conflict, not a silent no-op, so double
// branching is always surfaced to the caller.
func (r *Repository) DeactivateMessage(ctx context.Context, messageID uint) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ? AND is_active = ?", messageID, true).
		Update("is_active", false)
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to deactivate message",
			result.Error,
			"7e1f2a3b-4c5d-6e7f-8a9b-0c1d2e3f4a5b",
		)
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&entities.Message{}).
			Where("id = ?", messageID).
			Count(&exists).Error; err == nil && exists > 0 {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				fmt.Sprintf("message is already inactive: %d", messageID),
				nil,
				"deactivate-already-inactive",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("message not found: %d", messageID),
			nil,
			"deactivate-not-found",
		)
	}
	return nil
}

// ActiveMessages returns the active thread in sequence order.
func (r *Repository) ActiveMessages(ctx context.Context, conversationID uint) ([]*domain.Message, error) {
	return r.findMessages(ctx, conversationID, true)
}

// AllMessages returns every message of a conversation, branches included, in
// sequence order.
func (r *Repository) AllMessages(ctx context.Context, conversationID uint) ([]*domain.Message, error) {
	return r.findMessages(ctx, conversationID, false)
}

func (r *Repository) findMessages(ctx context.Context, conversationID uint, activeOnly bool) ([]*domain.Message, error) {
	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var rows []entities.Message
	if err := query.Order("sequence ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch messages",
			err,
			"8f2a3b4c-5d6e-7f8a-9b0c-1d2e3f4a5b6c",
		)
	}

	messages := make([]*domain.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].EtoD()
	}
	return messages, nil
}

// CountMessages counts every message of a conversation, active or not. The
// engine derives the next sequence number from this under its turn lock.
func (r *Repository) CountMessages(ctx context.Context, conversationID uint) (int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error; err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count messages",
			err,
			"9a3b4c5d-6e7f-8a9b-0c1d-2e3f4a5b6c7d",
		)
	}
	return int(total), nil
}
