package billing

import (
	"time"

	"github.com/FelixBrandt/PayFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store provides the mirror persistence operations used by the billing
// service and the event reconciler. Missing rows are reported as
// gorm.ErrRecordNotFound.
type Store interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByStripeCustomerID(customerID string) (*models.User, error)
	SaveUser(user *models.User) error

	UpsertPayment(payment *models.Payment) error
	GetPaymentByIntentID(intentID string) (*models.Payment, error)
	SavePayment(payment *models.Payment) error
	ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, int64, error)

	UpsertPaymentMethod(method *models.PaymentMethod) error
	GetPaymentMethodByRemoteID(remoteID string) (*models.PaymentMethod, error)
	GetDefaultPaymentMethod(userID uint) (*models.PaymentMethod, error)
	ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error)
	DeletePaymentMethodByRemoteID(remoteID string) error
	ClearDefaultPaymentMethods(userID uint) error
	MarkDefaultPaymentMethod(userID uint, remoteID string) error

	UpsertSubscription(sub *models.Subscription) error
	GetSubscriptionByRemoteID(remoteID string) (*models.Subscription, error)

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a billing store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) GetUserByStripeCustomerID(customerID string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("stripe_customer_id = ?", customerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) SaveUser(user *models.User) error {
	return s.db.Save(user).Error
}

func (s *gormStore) UpsertPayment(payment *models.Payment) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_payment_intent_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"amount",
			"currency",
			"payment_method_type",
			"metadata",
			"updated_at",
		}),
	}).Create(payment).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return s.db.Where("stripe_payment_intent_id = ?", payment.StripePaymentIntentID).
		First(payment).Error
}

func (s *gormStore) GetPaymentByIntentID(intentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("stripe_payment_intent_id = ?", intentID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (s *gormStore) SavePayment(payment *models.Payment) error {
	return s.db.Save(payment).Error
}

func (s *gormStore) ListPaymentsByUser(userID uint, offset, limit int) ([]models.Payment, int64, error) {
	var total int64
	if err := s.db.Model(&models.Payment{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, total, err
}

func (s *gormStore) UpsertPaymentMethod(method *models.PaymentMethod) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_payment_method_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"type",
			"last4",
			"brand",
			"updated_at",
		}),
	}).Create(method).Error; err != nil {
		return err
	}

	return s.db.Where("stripe_payment_method_id = ?", method.StripePaymentMethodID).
		First(method).Error
}

func (s *gormStore) GetPaymentMethodByRemoteID(remoteID string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := s.db.Where("stripe_payment_method_id = ?", remoteID).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *gormStore) GetDefaultPaymentMethod(userID uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *gormStore) ListPaymentMethodsByUser(userID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&methods).Error
	return methods, err
}

func (s *gormStore) DeletePaymentMethodByRemoteID(remoteID string) error {
	return s.db.Where("stripe_payment_method_id = ?", remoteID).
		Delete(&models.PaymentMethod{}).Error
}

func (s *gormStore) ClearDefaultPaymentMethods(userID uint) error {
	return s.db.Model(&models.PaymentMethod{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (s *gormStore) MarkDefaultPaymentMethod(userID uint, remoteID string) error {
	return s.db.Model(&models.PaymentMethod{}).
		Where("user_id = ? AND stripe_payment_method_id = ?", userID, remoteID).
		Update("is_default", true).Error
}

func (s *gormStore) UpsertSubscription(sub *models.Subscription) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_price_id",
			"stripe_payment_method_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at",
			"latest_invoice_id",
			"latest_payment_intent_id",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return s.db.Where("stripe_subscription_id = ?", sub.StripeSubscriptionID).
		First(sub).Error
}

func (s *gormStore) GetSubscriptionByRemoteID(remoteID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("stripe_subscription_id = ?", remoteID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stripe_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := s.db.Where("stripe_event_id = ?", event.StripeEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (s *gormStore) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return s.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
