package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/stories/internal/models"
	"gorm.io/gorm"
)

// NotificationQuery selects one page of a recipient's notifications
type NotificationQuery struct {
	RecipientID string
	Type        string // empty matches every type
	UnreadOnly  bool
	Page        int
	Limit       int
}

// NotificationRepository stores notifications addressed to story authors
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, q NotificationQuery) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID string, notificationID uint) (bool, error)
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *postgresNotificationRepository) scope(ctx context.Context, q NotificationQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", q.RecipientID)
	if q.Type != "" {
		tx = tx.Where("type = ?", q.Type)
	}
	if q.UnreadOnly {
		tx = tx.Where("is_read = false")
	}
	return tx
}

func (r *postgresNotificationRepository) List(ctx context.Context, q NotificationQuery) ([]models.Notification, int64, error) {
	var total int64
	if err := r.scope(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := r.scope(ctx, q).
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.scope(ctx, NotificationQuery{RecipientID: recipientID, UnreadOnly: true}).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsRead(ctx context.Context, recipientID string, notificationID uint) (bool, error) {
	res := r.scope(ctx, NotificationQuery{RecipientID: recipientID}).
		Where("id = ?", notificationID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.scope(ctx, NotificationQuery{RecipientID: recipientID, UnreadOnly: true}).Update("is_read", true)
	return res.RowsAffected, res.Error
}
