package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-bot/internal/messaging"
	"github.com/ignatzorin/marketplace-bot/internal/models"
	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-bot/internal/repository"
)

type mockListingRepo struct {
	mock.Mock
}

func (m *mockListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingRepo) Insert(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockListingRepo) SetPublicMessageRef(ctx context.Context, id uuid.UUID, channelID, messageID string) error {
	args := m.Called(ctx, id, channelID, messageID)
	return args.Error(0)
}

func (m *mockListingRepo) Claim(ctx context.Context, id uuid.UUID, claimantID string) error {
	args := m.Called(ctx, id, claimantID)
	return args.Error(0)
}

func (m *mockListingRepo) SetNegotiationRefs(ctx context.Context, id uuid.UUID, channelID, panelMessageID string) error {
	args := m.Called(ctx, id, channelID, panelMessageID)
	return args.Error(0)
}

func (m *mockListingRepo) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockListingRepo) MarkSold(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockListingRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title, category string, price int64, negotiable string) error {
	args := m.Called(ctx, id, title, category, price, negotiable)
	return args.Error(0)
}

func (m *mockListingRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error {
	args := m.Called(ctx, id, price)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) PostMessage(ctx context.Context, channelID string, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, channelID, msg)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) EditMessage(ctx context.Context, channelID, messageID string, msg *messaging.Message) error {
	args := m.Called(ctx, channelID, messageID, msg)
	return args.Error(0)
}

func (m *mockGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	args := m.Called(ctx, channelID, messageID)
	return args.Error(0)
}

func (m *mockGateway) SendDM(ctx context.Context, userID string, msg *messaging.Message) error {
	args := m.Called(ctx, userID, msg)
	return args.Error(0)
}

func (m *mockGateway) CreatePrivateChannel(ctx context.Context, name string, memberIDs []string, adminRoleIDs []string) (string, error) {
	args := m.Called(ctx, name, memberIDs, adminRoleIDs)
	return args.String(0), args.Error(1)
}

func (m *mockGateway) DeletePrivateChannel(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *mockGateway) SetChannelAccess(ctx context.Context, channelID, userID string, canRead bool) error {
	args := m.Called(ctx, channelID, userID, canRead)
	return args.Error(0)
}

var testSaleChannels = map[string]string{
	models.KindPunipuniStone:   "chan-stone",
	models.KindBountyStone:     "chan-bounty",
	models.KindPunipuniAccount: "chan-account",
	models.KindFreeSale:        "chan-free",
}

var testAdminRoles = []string{"role-admin-a", "role-admin-b"}

func newTestService(repo *mockListingRepo, gw *mockGateway) *LifecycleService {
	return NewLifecycleService(repo, gw, testSaleChannels, testAdminRoles)
}

func strPtr(s string) *string {
	return &s
}

// openListing возвращает объявление в стадии OPEN с опубликованной панелью.
func openListing(sellerID string) *models.Listing {
	return &models.Listing{
		ID:              uuid.New(),
		SellerID:        sellerID,
		Kind:            models.KindFreeSale,
		Title:           "Меч",
		Category:        "FreeSale",
		Price:           1000,
		Negotiable:      models.NegotiableAllowed,
		Status:          models.ListingStatusOpen,
		PublicChannelID: strPtr("chan-free"),
		PublicMessageID: strPtr("msg-public"),
	}
}

// negotiatingListing возвращает объявление в переговорах.
func negotiatingListing(sellerID, claimantID string) *models.Listing {
	listing := openListing(sellerID)
	listing.Status = models.ListingStatusNegotiating
	listing.ClaimantID = strPtr(claimantID)
	listing.NegotiationChannelID = strPtr("chan-nego")
	listing.NegotiationPanelMessageID = strPtr("msg-panel")
	return listing
}

func TestLifecycleService_OpenListing_Success(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	repo.On("Insert", ctx, mock.AnythingOfType("*models.Listing")).Return(nil)
	gw.On("PostMessage", ctx, "chan-free", mock.AnythingOfType("*messaging.Message")).Return("msg-1", nil)
	repo.On("SetPublicMessageRef", ctx, mock.AnythingOfType("uuid.UUID"), "chan-free", "msg-1").Return(nil)
	gw.On("SendDM", ctx, "seller", mock.AnythingOfType("*messaging.Message")).Return(nil)

	listing, err := svc.OpenListing(ctx, OpenListingInput{
		SellerID:      "seller",
		Kind:          models.KindFreeSale,
		Title:         "Меч",
		Category:      "FreeSale",
		PriceRaw:      "1000",
		NegotiableRaw: "allowed",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusOpen, listing.Status)
	assert.Nil(t, listing.ClaimantID)
	assert.Equal(t, int64(1000), listing.Price)
	assert.Equal(t, "msg-1", *listing.PublicMessageID)
	repo.AssertCalled(t, "SetPublicMessageRef", ctx, listing.ID, "chan-free", "msg-1")
}

func TestLifecycleService_OpenListing_FixedCategory(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	repo.On("Insert", ctx, mock.AnythingOfType("*models.Listing")).Return(nil)
	gw.On("PostMessage", ctx, "chan-stone", mock.AnythingOfType("*messaging.Message")).Return("msg-1", nil)
	repo.On("SetPublicMessageRef", ctx, mock.AnythingOfType("uuid.UUID"), "chan-stone", "msg-1").Return(nil)
	gw.On("SendDM", ctx, "seller", mock.AnythingOfType("*messaging.Message")).Return(nil)

	listing, err := svc.OpenListing(ctx, OpenListingInput{
		SellerID:      "seller",
		Kind:          models.KindPunipuniStone,
		Title:         "Камень",
		PriceRaw:      "500",
		NegotiableRaw: "refused",
	})

	assert.NoError(t, err)
	// Категория фиксированного вида задаётся системой.
	assert.Equal(t, models.KindLabels[models.KindPunipuniStone], listing.Category)
}

func TestLifecycleService_OpenListing_ValidationErrors(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	base := OpenListingInput{
		SellerID:      "seller",
		Kind:          models.KindFreeSale,
		Title:         "Меч",
		Category:      "FreeSale",
		PriceRaw:      "1000",
		NegotiableRaw: "allowed",
	}

	for _, badPrice := range []string{"12a", "-5", ""} {
		in := base
		in.PriceRaw = badPrice
		_, err := svc.OpenListing(ctx, in)
		assert.Error(t, err)
		assert.True(t, apperror.IsValidation(err), "цена %q должна быть отклонена", badPrice)
	}

	in := base
	in.NegotiableRaw = "maybe"
	_, err := svc.OpenListing(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	in = base
	in.Title = ""
	_, err = svc.OpenListing(ctx, in)
	assert.True(t, apperror.IsValidation(err))

	// При ошибке валидации ничего не создаётся и не публикуется.
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Claim_Success(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("Claim", ctx, listing.ID, "buyer").Return(nil)
	gw.On("CreatePrivateChannel", ctx, mock.AnythingOfType("string"), []string{"seller", "buyer"}, testAdminRoles).Return("chan-nego", nil)
	gw.On("PostMessage", ctx, "chan-nego", mock.AnythingOfType("*messaging.Message")).Return("msg-panel", nil)
	repo.On("SetNegotiationRefs", ctx, listing.ID, "chan-nego", "msg-panel").Return(nil)

	claimed, err := svc.Claim(ctx, listing.ID, Actor{ID: "buyer"})

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusNegotiating, claimed.Status)
	assert.Equal(t, "buyer", *claimed.ClaimantID)
	assert.Equal(t, "chan-nego", *claimed.NegotiationChannelID)
	assert.Equal(t, "msg-panel", *claimed.NegotiationPanelMessageID)
}

func TestLifecycleService_Claim_SelfForbidden(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	_, err := svc.Claim(ctx, listing.ID, Actor{ID: "seller"})

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Claim_Conflict(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("Claim", ctx, listing.ID, "second-buyer").Return(repository.ErrClaimConflict)

	_, err := svc.Claim(ctx, listing.ID, Actor{ID: "second-buyer"})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	gw.AssertNotCalled(t, "CreatePrivateChannel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Claim_NotFound(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, repository.ErrListingNotFound)

	_, err := svc.Claim(ctx, id, Actor{ID: "buyer"})

	assert.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLifecycleService_Claim_RollbackOnChannelFailure(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("Claim", ctx, listing.ID, "buyer").Return(nil)
	gw.On("CreatePrivateChannel", ctx, mock.AnythingOfType("string"), []string{"seller", "buyer"}, testAdminRoles).
		Return("", errors.New("discord down"))
	repo.On("ReleaseClaim", ctx, listing.ID).Return(nil)

	_, err := svc.Claim(ctx, listing.ID, Actor{ID: "buyer"})

	assert.Error(t, err)
	// Заявка снята, иначе объявление осталось бы занятым навсегда.
	repo.AssertCalled(t, "ReleaseClaim", ctx, listing.ID)
}

func TestLifecycleService_Claim_AfterAbandon_FreshChannel(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	seller := "seller"
	listing := negotiatingListing(seller, "buyer-1")
	firstChannel := *listing.NegotiationChannelID

	// Отмена переговоров.
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil).Once()
	gw.On("DeletePrivateChannel", ctx, firstChannel).Return(nil)
	repo.On("ReleaseClaim", ctx, listing.ID).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	reopened, err := svc.AbandonNegotiation(ctx, listing.ID, Actor{ID: seller})
	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusOpen, reopened.Status)
	assert.Nil(t, reopened.ClaimantID)

	// Новый отклик получает новый канал, отличный от прежнего.
	fresh := openListing(seller)
	fresh.ID = listing.ID
	repo.On("GetByID", ctx, listing.ID).Return(fresh, nil).Once()
	repo.On("Claim", ctx, listing.ID, "buyer-2").Return(nil)
	gw.On("CreatePrivateChannel", ctx, mock.AnythingOfType("string"), []string{seller, "buyer-2"}, testAdminRoles).Return("chan-nego-2", nil)
	gw.On("PostMessage", ctx, "chan-nego-2", mock.AnythingOfType("*messaging.Message")).Return("msg-panel-2", nil)
	repo.On("SetNegotiationRefs", ctx, listing.ID, "chan-nego-2", "msg-panel-2").Return(nil)

	claimed, err := svc.Claim(ctx, listing.ID, Actor{ID: "buyer-2"})
	assert.NoError(t, err)
	assert.NotEqual(t, firstChannel, *claimed.NegotiationChannelID)
}

func TestLifecycleService_CompleteSale(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := negotiatingListing("seller", "buyer")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "seller", false).Return(nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "buyer", false).Return(nil)
	repo.On("MarkSold", ctx, listing.ID).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	sold, err := svc.CompleteSale(ctx, listing.ID, Actor{ID: "seller"})

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, sold.Status)
	// Стороны теряют доступ, но ссылки на канал сохраняются как история.
	gw.AssertCalled(t, "SetChannelAccess", ctx, "chan-nego", "seller", false)
	gw.AssertCalled(t, "SetChannelAccess", ctx, "chan-nego", "buyer", false)
	assert.NotNil(t, sold.ClaimantID)
	assert.NotNil(t, sold.NegotiationChannelID)
	gw.AssertNotCalled(t, "DeletePrivateChannel", mock.Anything, mock.Anything)
}

func TestLifecycleService_CompleteSale_Idempotent(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := negotiatingListing("seller", "buyer")
	listing.Status = models.ListingStatusSold
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "seller", false).Return(nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "buyer", false).Return(nil)
	repo.On("MarkSold", ctx, listing.ID).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	sold, err := svc.CompleteSale(ctx, listing.ID, Actor{ID: "seller"})

	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, sold.Status)
}

func TestLifecycleService_CompleteSale_NotAuthorized(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := negotiatingListing("seller", "buyer")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	_, err := svc.CompleteSale(ctx, listing.ID, Actor{ID: "stranger"})
	assert.True(t, apperror.IsForbidden(err))

	// Покупатель тоже не может завершить сделку.
	_, err = svc.CompleteSale(ctx, listing.ID, Actor{ID: "buyer"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestLifecycleService_CompleteSale_AdminAllowed(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := negotiatingListing("seller", "buyer")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "seller", false).Return(nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "buyer", false).Return(nil)
	repo.On("MarkSold", ctx, listing.ID).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	_, err := svc.CompleteSale(ctx, listing.ID, Actor{ID: "moderator", Admin: true})
	assert.NoError(t, err)
}

func TestLifecycleService_Abandon_NotClaimed(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	_, err := svc.AbandonNegotiation(ctx, listing.ID, Actor{ID: "seller"})
	assert.True(t, apperror.IsConflict(err))
}

func TestLifecycleService_Abandon_ChannelAlreadyGone(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	// Шлюз трактует удаление уже удалённого канала как успех,
	// поэтому заявка снимается в любом случае.
	listing := negotiatingListing("seller", "buyer")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	gw.On("DeletePrivateChannel", ctx, "chan-nego").Return(nil)
	repo.On("ReleaseClaim", ctx, listing.ID).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	reopened, err := svc.AbandonNegotiation(ctx, listing.ID, Actor{ID: "seller"})

	assert.NoError(t, err)
	assert.Nil(t, reopened.ClaimantID)
	assert.Nil(t, reopened.NegotiationChannelID)
	assert.Nil(t, reopened.NegotiationPanelMessageID)
	assert.Equal(t, models.ListingStatusOpen, reopened.Status)
}

func TestLifecycleService_EditPrice(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := negotiatingListing("seller", "buyer")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("UpdatePrice", ctx, listing.ID, int64(1200)).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)
	gw.On("EditMessage", ctx, "chan-nego", "msg-panel", mock.AnythingOfType("*messaging.Message")).Return(nil)

	updated, err := svc.EditPrice(ctx, listing.ID, Actor{ID: "seller"}, "1200")

	assert.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Price)
	// Обе панели перерисованы с новой ценой.
	gw.AssertCalled(t, "EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message"))
	gw.AssertCalled(t, "EditMessage", ctx, "chan-nego", "msg-panel", mock.AnythingOfType("*messaging.Message"))
}

func TestLifecycleService_EditPrice_Invalid(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	_, err := svc.EditPrice(ctx, uuid.New(), Actor{ID: "seller"}, "12a")
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "UpdatePrice", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_EditStep1(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	view, got, err := svc.EditOwnListingStep1(ctx, listing.ID, "seller")
	assert.NoError(t, err)
	assert.Equal(t, listing.ID, got.ID)
	assert.NotEmpty(t, view.Buttons)

	// Чужое объявление и отсутствующее различаются по типу ошибки.
	_, _, err = svc.EditOwnListingStep1(ctx, listing.ID, "stranger")
	assert.True(t, apperror.IsForbidden(err))

	missing := uuid.New()
	repo.On("GetByID", ctx, missing).Return(nil, repository.ErrListingNotFound)
	_, _, err = svc.EditOwnListingStep1(ctx, missing, "seller")
	assert.True(t, apperror.IsNotFound(err))
}

func TestLifecycleService_EditStep2_NoOp(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("UpdateDetails", ctx, listing.ID, "Меч", "FreeSale", int64(1000), models.NegotiableAllowed).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	updated, err := svc.EditOwnListingStep2(ctx, EditListingInput{
		ListingID:     listing.ID,
		ActorID:       "seller",
		Title:         "Меч",
		Category:      "FreeSale",
		PriceRaw:      "1000",
		NegotiableRaw: "allowed",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Меч", updated.Title)
	assert.Equal(t, "FreeSale", updated.Category)
	assert.Equal(t, int64(1000), updated.Price)
	assert.Equal(t, models.NegotiableAllowed, updated.Negotiable)
}

func TestLifecycleService_EditStep2_FixedCategoryPreserved(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	listing.Kind = models.KindPunipuniStone
	listing.Category = models.KindLabels[models.KindPunipuniStone]
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("UpdateDetails", ctx, listing.ID, "Камень", listing.Category, int64(700), models.NegotiableRefused).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)

	updated, err := svc.EditOwnListingStep2(ctx, EditListingInput{
		ListingID:     listing.ID,
		ActorID:       "seller",
		Title:         "Камень",
		PriceRaw:      "700",
		NegotiableRaw: "refused",
	})

	assert.NoError(t, err)
	// Категория фиксированного вида не меняется через редактирование.
	assert.Equal(t, models.KindLabels[models.KindPunipuniStone], updated.Category)
}

func TestLifecycleService_EditStep2_SoldRejected(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	listing := openListing("seller")
	listing.Status = models.ListingStatusSold
	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)

	_, err := svc.EditOwnListingStep2(ctx, EditListingInput{
		ListingID:     listing.ID,
		ActorID:       "seller",
		Title:         "Меч",
		Category:      "FreeSale",
		PriceRaw:      "1000",
		NegotiableRaw: "allowed",
	})

	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "UpdateDetails", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Сценарий целиком: открытие, отклик, изменение цены, завершение сделки.
func TestLifecycleService_SwordScenario(t *testing.T) {
	repo := new(mockListingRepo)
	gw := new(mockGateway)
	svc := newTestService(repo, gw)
	ctx := context.Background()

	repo.On("Insert", ctx, mock.AnythingOfType("*models.Listing")).Return(nil)
	gw.On("PostMessage", ctx, "chan-free", mock.AnythingOfType("*messaging.Message")).Return("msg-public", nil)
	repo.On("SetPublicMessageRef", ctx, mock.AnythingOfType("uuid.UUID"), "chan-free", "msg-public").Return(nil)
	gw.On("SendDM", ctx, "seller", mock.AnythingOfType("*messaging.Message")).Return(nil)

	listing, err := svc.OpenListing(ctx, OpenListingInput{
		SellerID:      "seller",
		Kind:          models.KindFreeSale,
		Title:         "Sword",
		Category:      "FreeSale",
		PriceRaw:      "1000",
		NegotiableRaw: "allowed",
	})
	assert.NoError(t, err)

	repo.On("GetByID", ctx, listing.ID).Return(listing, nil)
	repo.On("Claim", ctx, listing.ID, "buyer").Return(nil)
	gw.On("CreatePrivateChannel", ctx, mock.AnythingOfType("string"), []string{"seller", "buyer"}, testAdminRoles).Return("chan-nego", nil)
	gw.On("PostMessage", ctx, "chan-nego", mock.AnythingOfType("*messaging.Message")).Return("msg-panel", nil)
	repo.On("SetNegotiationRefs", ctx, listing.ID, "chan-nego", "msg-panel").Return(nil)

	claimed, err := svc.Claim(ctx, listing.ID, Actor{ID: "buyer"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), claimed.Price)

	repo.On("UpdatePrice", ctx, listing.ID, int64(1200)).Return(nil)
	gw.On("EditMessage", ctx, "chan-free", "msg-public", mock.AnythingOfType("*messaging.Message")).Return(nil)
	gw.On("EditMessage", ctx, "chan-nego", "msg-panel", mock.AnythingOfType("*messaging.Message")).Return(nil)

	updated, err := svc.EditPrice(ctx, listing.ID, Actor{ID: "seller"}, "1200")
	assert.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Price)

	gw.On("SetChannelAccess", ctx, "chan-nego", "seller", false).Return(nil)
	gw.On("SetChannelAccess", ctx, "chan-nego", "buyer", false).Return(nil)
	repo.On("MarkSold", ctx, listing.ID).Return(nil)

	sold, err := svc.CompleteSale(ctx, listing.ID, Actor{ID: "seller"})
	assert.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, sold.Status)
	gw.AssertCalled(t, "SetChannelAccess", ctx, "chan-nego", "seller", false)
	gw.AssertCalled(t, "SetChannelAccess", ctx, "chan-nego", "buyer", false)
}
