package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-bot/internal/logger"
	"github.com/ignatzorin/marketplace-bot/internal/messaging"
	"github.com/ignatzorin/marketplace-bot/internal/models"
	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-bot/internal/repository"
	"github.com/ignatzorin/marketplace-bot/internal/validation"
)

// ListingRepository описывает взаимодействие сервиса с хранилищем объявлений.
type ListingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Insert(ctx context.Context, listing *models.Listing) error
	SetPublicMessageRef(ctx context.Context, id uuid.UUID, channelID, messageID string) error
	Claim(ctx context.Context, id uuid.UUID, claimantID string) error
	SetNegotiationRefs(ctx context.Context, id uuid.UUID, channelID, panelMessageID string) error
	ReleaseClaim(ctx context.Context, id uuid.UUID) error
	MarkSold(ctx context.Context, id uuid.UUID) error
	UpdateDetails(ctx context.Context, id uuid.UUID, title, category string, price int64, negotiable string) error
	UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error
}

// EventNotifier отправляет события жизненного цикла наблюдателям (ops панель).
type EventNotifier interface {
	Publish(event string, data interface{})
}

// События жизненного цикла для EventNotifier.
const (
	EventListingCreated      = "listing.created"
	EventListingClaimed      = "listing.claimed"
	EventListingUpdated      = "listing.updated"
	EventListingPriceUpdated = "listing.price_updated"
	EventListingSold         = "listing.sold"
	EventListingReopened     = "listing.reopened"
)

// Actor — инициатор операции. Admin выставляется фронтендом по ролям
// из конфигурации.
type Actor struct {
	ID    string
	Admin bool
}

// LifecycleService владеет машиной состояний объявления и оркеструет
// команды хранилищу и мессенджеру.
type LifecycleService struct {
	repo         ListingRepository
	gateway      messaging.Gateway
	saleChannels map[string]string
	adminRoles   []string
	notifier     EventNotifier
}

// NewLifecycleService создаёт движок жизненного цикла. Хранилище и шлюз
// передаются явно и должны быть готовы до первой операции.
func NewLifecycleService(repo ListingRepository, gateway messaging.Gateway, saleChannels map[string]string, adminRoles []string) *LifecycleService {
	return &LifecycleService{
		repo:         repo,
		gateway:      gateway,
		saleChannels: saleChannels,
		adminRoles:   adminRoles,
	}
}

// SetNotifier устанавливает наблюдателя событий (опционально).
func (s *LifecycleService) SetNotifier(notifier EventNotifier) {
	s.notifier = notifier
}

// publish отправляет событие, если наблюдатель установлен.
func (s *LifecycleService) publish(event string, listing *models.Listing) {
	if s.notifier != nil {
		s.notifier.Publish(event, listing)
	}
}

// OpenListingInput описывает входные данные создания объявления.
// Цена и торг приходят строками из формы и валидируются здесь.
type OpenListingInput struct {
	SellerID      string
	Kind          string
	Title         string
	Category      string
	PriceRaw      string
	NegotiableRaw string
}

// OpenListing создаёт объявление, публикует панель продажи в канале вида
// товара и уведомляет продавца личным сообщением с id объявления.
func (s *LifecycleService) OpenListing(ctx context.Context, in OpenListingInput) (*models.Listing, error) {
	if err := validation.ValidateKind(in.Kind); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := validation.ValidateCategory(in.Kind, in.Category); err != nil {
		return nil, apperror.Validation(err)
	}
	price, err := validation.ValidatePrice(in.PriceRaw)
	if err != nil {
		return nil, apperror.Validation(err)
	}
	negotiable := strings.TrimSpace(in.NegotiableRaw)
	if err := validation.ValidateNegotiable(negotiable); err != nil {
		return nil, apperror.Validation(err)
	}

	// Канал назначения определяется видом товара; проверяем до записи,
	// чтобы не оставить объявление без публичной панели.
	channelID, ok := s.saleChannels[in.Kind]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeExternal, "для этого вида товара не настроен канал продаж")
	}

	category := strings.TrimSpace(in.Category)
	if models.KindHasFixedCategory(in.Kind) {
		category = models.KindLabels[in.Kind]
	}

	listing := &models.Listing{
		ID:         uuid.New(),
		SellerID:   in.SellerID,
		Kind:       in.Kind,
		Title:      strings.TrimSpace(in.Title),
		Category:   category,
		Price:      price,
		Negotiable: negotiable,
		Status:     models.ListingStatusOpen,
	}

	if err := s.repo.Insert(ctx, listing); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить объявление")
	}

	messageID, err := s.gateway.PostMessage(ctx, channelID, PublicPanel(listing))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось опубликовать панель продажи")
	}

	if err := s.repo.SetPublicMessageRef(ctx, listing.ID, channelID, messageID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить ссылку на панель")
	}
	listing.PublicChannelID = &channelID
	listing.PublicMessageID = &messageID

	// Уведомление продавца не критично для консистентности записи.
	if err := s.gateway.SendDM(ctx, listing.SellerID, SellerCreatedNotice(listing)); err != nil {
		logger.Component("lifecycle").WithError(err).Warn("не удалось отправить продавцу уведомление о создании")
	}

	s.publish(EventListingCreated, listing)
	return listing, nil
}

// Claim назначает покупателя. Гонка двух одновременных откликов закрыта
// условным обновлением в хранилище: выигрывает ровно один, второй получает
// конфликт независимо от порядка выполнения.
func (s *LifecycleService) Claim(ctx context.Context, listingID uuid.UUID, actor Actor) (*models.Listing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerID == actor.ID {
		return nil, apperror.ErrSelfClaim
	}
	if listing.IsSold() {
		return nil, apperror.ErrListingSold
	}

	if err := s.repo.Claim(ctx, listingID, actor.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrClaimConflict):
			return nil, apperror.ErrAlreadyClaimed
		case errors.Is(err, repository.ErrListingNotFound):
			return nil, apperror.ErrListingNotFound
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось занять объявление")
		}
	}
	listing.ClaimantID = &actor.ID
	listing.Status = models.ListingStatusNegotiating

	channelName := fmt.Sprintf("sale-%s", shortID(listing.ID))
	channelID, err := s.gateway.CreatePrivateChannel(ctx, channelName,
		[]string{listing.SellerID, actor.ID}, s.adminRoles)
	if err != nil {
		// Иначе объявление останется занятым навсегда.
		s.rollbackClaim(ctx, listingID)
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось создать канал переговоров")
	}

	if _, err := s.gateway.PostMessage(ctx, channelID, NegotiationIntro(listing, actor.ID)); err != nil {
		logger.Component("lifecycle").WithError(err).Warn("не удалось отправить вводное сообщение в канал переговоров")
	}

	panelID, err := s.gateway.PostMessage(ctx, channelID, ManagementPanel(listing))
	if err != nil {
		if delErr := s.gateway.DeletePrivateChannel(ctx, channelID); delErr != nil {
			logger.Component("lifecycle").WithError(delErr).Error("не удалось удалить канал после сбоя панели управления")
		}
		s.rollbackClaim(ctx, listingID)
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось опубликовать панель управления")
	}

	if err := s.repo.SetNegotiationRefs(ctx, listingID, channelID, panelID); err != nil {
		if delErr := s.gateway.DeletePrivateChannel(ctx, channelID); delErr != nil {
			logger.Component("lifecycle").WithError(delErr).Error("не удалось удалить канал после сбоя записи ссылок")
		}
		s.rollbackClaim(ctx, listingID)
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить ссылки на канал переговоров")
	}
	listing.NegotiationChannelID = &channelID
	listing.NegotiationPanelMessageID = &panelID

	s.publish(EventListingClaimed, listing)
	return listing, nil
}

// rollbackClaim снимает только что поставленную заявку после сбоя.
func (s *LifecycleService) rollbackClaim(ctx context.Context, listingID uuid.UUID) {
	if err := s.repo.ReleaseClaim(ctx, listingID); err != nil {
		logger.Component("lifecycle").WithError(err).
			WithField("listing_id", listingID).
			Error("не удалось откатить заявку, объявление может остаться занятым")
	}
}

// EditOwnListingStep1 — первый шаг редактирования: проверка владельца.
// Возвращает подтверждение с текущими значениями. Ошибки "не найдено"
// и "не ваше объявление" различаются.
func (s *LifecycleService) EditOwnListingStep1(ctx context.Context, listingID uuid.UUID, actorID string) (*messaging.Message, *models.Listing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, nil, err
	}
	if listing.SellerID != actorID {
		return nil, nil, apperror.ErrNotSeller
	}
	return EditConfirmation(listing), listing, nil
}

// EditListingInput описывает данные второго шага редактирования.
type EditListingInput struct {
	ListingID     uuid.UUID
	ActorID       string
	Title         string
	Category      string
	PriceRaw      string
	NegotiableRaw string
}

// EditOwnListingStep2 применяет правки после подтверждения: повторяет
// общую валидацию, сохраняет запись и согласует все существующие панели.
func (s *LifecycleService) EditOwnListingStep2(ctx context.Context, in EditListingInput) (*models.Listing, error) {
	listing, err := s.getListing(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != in.ActorID {
		return nil, apperror.ErrNotSeller
	}
	if listing.IsSold() {
		return nil, apperror.ErrListingSold
	}

	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, apperror.Validation(err)
	}
	if err := validation.ValidateCategory(listing.Kind, in.Category); err != nil {
		return nil, apperror.Validation(err)
	}
	price, err := validation.ValidatePrice(in.PriceRaw)
	if err != nil {
		return nil, apperror.Validation(err)
	}
	negotiable := strings.TrimSpace(in.NegotiableRaw)
	if err := validation.ValidateNegotiable(negotiable); err != nil {
		return nil, apperror.Validation(err)
	}

	// Категория видов с фиксированной категорией не меняется никогда;
	// канал назначения привязан к виду, поэтому переезд панели невозможен.
	category := strings.TrimSpace(in.Category)
	if models.KindHasFixedCategory(listing.Kind) {
		category = listing.Category
	}

	if err := s.repo.UpdateDetails(ctx, listing.ID, strings.TrimSpace(in.Title), category, price, negotiable); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить изменения")
	}

	listing.Title = strings.TrimSpace(in.Title)
	listing.Category = category
	listing.Price = price
	listing.Negotiable = negotiable

	// Запись уже авторитетна; сбои перерисовки панелей только логируются.
	s.reconcilePanels(ctx, listing)

	s.publish(EventListingUpdated, listing)
	return listing, nil
}

// CompleteSale завершает сделку: стороны теряют доступ к каналу переговоров
// (канал сохраняется для аудита), публичная панель получает отметку о
// продаже, статус становится терминальным. Повторный вызов идемпотентен.
func (s *LifecycleService) CompleteSale(ctx context.Context, listingID uuid.UUID, actor Actor) (*models.Listing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(listing, actor); err != nil {
		return nil, err
	}

	// Отзыв доступа идёт до смены статуса: провалить его и пометить
	// продажу — значит оставить сторонам доступ навсегда.
	if listing.HasNegotiationChannel() {
		channelID := *listing.NegotiationChannelID
		if err := s.gateway.SetChannelAccess(ctx, channelID, listing.SellerID, false); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось отозвать доступ продавца")
		}
		if listing.ClaimantID != nil {
			if err := s.gateway.SetChannelAccess(ctx, channelID, *listing.ClaimantID, false); err != nil {
				return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось отозвать доступ покупателя")
			}
		}
	}

	if err := s.repo.MarkSold(ctx, listingID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось пометить объявление проданным")
	}
	alreadySold := listing.IsSold()
	listing.Status = models.ListingStatusSold

	s.rerenderPublicPanel(ctx, listing)

	if !alreadySold {
		s.publish(EventListingSold, listing)
	}
	return listing, nil
}

// AbandonNegotiation прекращает переговоры: приватный канал удаляется,
// заявка снимается, публичная панель снова принимает отклики. Уже
// удалённый канал не считается ошибкой.
func (s *LifecycleService) AbandonNegotiation(ctx context.Context, listingID uuid.UUID, actor Actor) (*models.Listing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(listing, actor); err != nil {
		return nil, err
	}
	if listing.IsSold() {
		return nil, apperror.ErrListingSold
	}
	if !listing.IsClaimed() {
		return nil, apperror.New(apperror.ErrCodeConflict, "по этому объявлению переговоры не ведутся")
	}

	if listing.NegotiationChannelID != nil {
		if err := s.gateway.DeletePrivateChannel(ctx, *listing.NegotiationChannelID); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось удалить канал переговоров")
		}
	}

	if err := s.repo.ReleaseClaim(ctx, listingID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось снять заявку")
	}
	listing.ClaimantID = nil
	listing.NegotiationChannelID = nil
	listing.NegotiationPanelMessageID = nil
	listing.Status = models.ListingStatusOpen

	s.rerenderPublicPanel(ctx, listing)

	s.publish(EventListingReopened, listing)
	return listing, nil
}

// EditPrice — быстрое редактирование цены из панели управления.
// Отдельный путь, не связанный с полным редактированием.
func (s *LifecycleService) EditPrice(ctx context.Context, listingID uuid.UUID, actor Actor, priceRaw string) (*models.Listing, error) {
	price, err := validation.ValidatePrice(priceRaw)
	if err != nil {
		return nil, apperror.Validation(err)
	}

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(listing, actor); err != nil {
		return nil, err
	}
	if listing.IsSold() {
		return nil, apperror.ErrListingSold
	}

	if err := s.repo.UpdatePrice(ctx, listingID, price); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось сохранить цену")
	}
	listing.Price = price

	s.reconcilePanels(ctx, listing)

	s.publish(EventListingPriceUpdated, listing)
	return listing, nil
}

// GetListing возвращает объявление для ops панели и фронтенда.
func (s *LifecycleService) GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return s.getListing(ctx, listingID)
}

// getListing переводит ошибки репозитория в таксономию приложения.
func (s *LifecycleService) getListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, apperror.ErrListingNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось прочитать объявление")
	}
	return listing, nil
}

// authorizeManage разрешает управление сделкой продавцу и администраторам.
func (s *LifecycleService) authorizeManage(listing *models.Listing, actor Actor) error {
	if actor.Admin || listing.SellerID == actor.ID {
		return nil
	}
	return apperror.ErrNotAuthorized
}

// reconcilePanels перерисовывает публичную панель и, если переговоры идут,
// панель управления. Запись в хранилище авторитетна: сбои здесь логируются
// и не прерывают операцию.
func (s *LifecycleService) reconcilePanels(ctx context.Context, listing *models.Listing) {
	s.rerenderPublicPanel(ctx, listing)

	if listing.IsClaimed() && listing.HasNegotiationChannel() {
		err := s.gateway.EditMessage(ctx, *listing.NegotiationChannelID, *listing.NegotiationPanelMessageID, ManagementPanel(listing))
		if err != nil {
			logger.Component("lifecycle").WithError(err).
				WithField("listing_id", listing.ID).
				Warn("не удалось перерисовать панель управления")
		}
	}
}

// rerenderPublicPanel перерисовывает публичную панель на месте.
func (s *LifecycleService) rerenderPublicPanel(ctx context.Context, listing *models.Listing) {
	if listing.PublicChannelID == nil || listing.PublicMessageID == nil {
		return
	}
	err := s.gateway.EditMessage(ctx, *listing.PublicChannelID, *listing.PublicMessageID, PublicPanel(listing))
	if err != nil {
		logger.Component("lifecycle").WithError(err).
			WithField("listing_id", listing.ID).
			Warn("не удалось перерисовать публичную панель")
	}
}

// shortID возвращает короткий суффикс id для имени канала.
func shortID(id uuid.UUID) string {
	str := id.String()
	return str[:8]
}
