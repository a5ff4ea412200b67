package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-bot/internal/messaging/discord"
	"github.com/ignatzorin/marketplace-bot/internal/models"
	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-bot/internal/service"
)

// Custom id компонентов фронтенда. Кнопки панелей живут в пакете service,
// здесь — только select меню и модальные окна.
const (
	customIDKindSelect      = "sale:kindselect"
	customIDEditLookupModal = "sale:editlookup"
	modalPrefixOpen         = "sale:open:"
	modalPrefixEdit         = "sale:edit:"
	modalPrefixPrice        = "sale:price:"
)

// onInteraction — единая точка входа всех интеракций.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case commandStoreOpen:
			b.handleStoreOpen(s, i)
		case commandStoreEdit:
			b.handleStoreEdit(s, i)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, s, i)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, s, i)
	}
}

// handleStoreOpen публикует панель выставления товара с выбором вида.
func (b *Bot) handleStoreOpen(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := make([]discordgo.SelectMenuOption, 0, len(models.KnownKinds))
	for _, kind := range models.KnownKinds {
		options = append(options, discordgo.SelectMenuOption{
			Label: models.KindLabels[kind],
			Value: kind,
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Выставить товар на продажу",
					Description: "Выберите вид товара, затем заполните форму объявления.",
					Color:       0x3498DB,
				},
			},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.SelectMenu{
							CustomID:    customIDKindSelect,
							Placeholder: "Вид товара",
							Options:     options,
						},
					},
				},
			},
		},
	})
	if err != nil {
		b.log.WithError(err).Error("не удалось опубликовать панель выставления")
	}
}

// handleStoreEdit открывает модальное окно запроса id объявления.
func (b *Bot) handleStoreEdit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondModal(s, i, editLookupModal())
}

// handleComponent обрабатывает select меню и кнопки панелей.
func (b *Bot) handleComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	if data.CustomID == customIDKindSelect {
		if len(data.Values) != 1 || !models.IsKnownKind(data.Values[0]) {
			b.respondEphemeralText(s, i, "неизвестный вид товара")
			return
		}
		b.respondModal(s, i, openListingModal(data.Values[0]))
		return
	}

	action, listingID, err := service.ParseButtonID(data.CustomID)
	if err != nil {
		b.log.WithError(err).WithField("custom_id", data.CustomID).Warn("кнопка с неизвестным custom id")
		return
	}

	actor := b.actorFrom(i)

	switch action {
	case service.ActionClaim:
		b.handleClaim(ctx, s, i, listingID, actor)
	case service.ActionComplete:
		b.handleComplete(ctx, s, i, listingID, actor)
	case service.ActionAbandon:
		b.handleAbandon(ctx, s, i, listingID, actor)
	case service.ActionEditPrice:
		b.respondModal(s, i, priceModal(listingID))
	case service.ActionEditConfirm:
		b.handleEditConfirm(ctx, s, i, listingID, actor)
	default:
		b.log.WithField("action", action).Warn("кнопка с неизвестным действием")
	}
}

// handleClaim ведёт отклик покупателя. Создание канала занимает время,
// поэтому ответ отложенный.
func (b *Bot) handleClaim(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, listingID uuid.UUID, actor service.Actor) {
	if !b.deferEphemeral(s, i) {
		return
	}

	listing, err := b.lifecycle.Claim(ctx, listingID, actor)
	if err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, fmt.Sprintf("Переговоры открыты: <#%s>", *listing.NegotiationChannelID))
}

func (b *Bot) handleComplete(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, listingID uuid.UUID, actor service.Actor) {
	if !b.deferEphemeral(s, i) {
		return
	}

	if _, err := b.lifecycle.CompleteSale(ctx, listingID, actor); err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, "Сделка завершена, объявление помечено проданным.")
}

func (b *Bot) handleAbandon(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, listingID uuid.UUID, actor service.Actor) {
	if !b.deferEphemeral(s, i) {
		return
	}

	if _, err := b.lifecycle.AbandonNegotiation(ctx, listingID, actor); err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, "Переговоры отменены, объявление снова принимает отклики.")
}

// handleEditConfirm открывает предзаполненную форму редактирования.
// Право продавца проверяется повторно: кнопка могла жить дольше сессии.
func (b *Bot) handleEditConfirm(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, listingID uuid.UUID, actor service.Actor) {
	_, listing, err := b.lifecycle.EditOwnListingStep1(ctx, listingID, actor.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	b.respondModal(s, i, editListingModal(listing))
}

// handleModal обрабатывает отправку модальных окон.
func (b *Bot) handleModal(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	actor := b.actorFrom(i)

	switch {
	case strings.HasPrefix(data.CustomID, modalPrefixOpen):
		b.handleOpenSubmit(ctx, s, i, strings.TrimPrefix(data.CustomID, modalPrefixOpen), actor)
	case data.CustomID == customIDEditLookupModal:
		b.handleEditLookupSubmit(ctx, s, i, actor)
	case strings.HasPrefix(data.CustomID, modalPrefixEdit):
		b.handleEditSubmit(ctx, s, i, strings.TrimPrefix(data.CustomID, modalPrefixEdit), actor)
	case strings.HasPrefix(data.CustomID, modalPrefixPrice):
		b.handlePriceSubmit(ctx, s, i, strings.TrimPrefix(data.CustomID, modalPrefixPrice), actor)
	}
}

func (b *Bot) handleOpenSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, kind string, actor service.Actor) {
	if !b.deferEphemeral(s, i) {
		return
	}

	data := i.ModalSubmitData()
	listing, err := b.lifecycle.OpenListing(ctx, service.OpenListingInput{
		SellerID:      actor.ID,
		Kind:          kind,
		Title:         modalValue(data, inputTitle),
		Category:      modalValue(data, inputCategory),
		PriceRaw:      modalValue(data, inputPrice),
		NegotiableRaw: modalValue(data, inputNegotiable),
	})
	if err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, fmt.Sprintf("Объявление «%s» опубликовано. ID: `%s`", listing.Title, listing.ID))
}

func (b *Bot) handleEditLookupSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor) {
	data := i.ModalSubmitData()
	raw := strings.TrimSpace(modalValue(data, inputListingID))

	listingID, err := uuid.Parse(raw)
	if err != nil {
		b.respondError(s, i, apperror.New(apperror.ErrCodeValidation, "невалидный id объявления"))
		return
	}

	view, _, err := b.lifecycle.EditOwnListingStep1(ctx, listingID, actor.ID)
	if err != nil {
		b.respondError(s, i, err)
		return
	}

	respErr := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     discord.RenderEmbeds(view),
			Components: discord.RenderComponents(view),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if respErr != nil {
		b.log.WithError(respErr).Error("не удалось ответить подтверждением редактирования")
	}
}

func (b *Bot) handleEditSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, rawID string, actor service.Actor) {
	listingID, err := uuid.Parse(rawID)
	if err != nil {
		b.respondError(s, i, apperror.New(apperror.ErrCodeValidation, "невалидный id объявления"))
		return
	}
	if !b.deferEphemeral(s, i) {
		return
	}

	data := i.ModalSubmitData()
	listing, err := b.lifecycle.EditOwnListingStep2(ctx, service.EditListingInput{
		ListingID:     listingID,
		ActorID:       actor.ID,
		Title:         modalValue(data, inputTitle),
		Category:      modalValue(data, inputCategory),
		PriceRaw:      modalValue(data, inputPrice),
		NegotiableRaw: modalValue(data, inputNegotiable),
	})
	if err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, fmt.Sprintf("Объявление «%s» обновлено.", listing.Title))
}

func (b *Bot) handlePriceSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, rawID string, actor service.Actor) {
	listingID, err := uuid.Parse(rawID)
	if err != nil {
		b.respondError(s, i, apperror.New(apperror.ErrCodeValidation, "невалидный id объявления"))
		return
	}
	if !b.deferEphemeral(s, i) {
		return
	}

	data := i.ModalSubmitData()
	listing, err := b.lifecycle.EditPrice(ctx, listingID, actor, modalValue(data, inputPrice))
	if err != nil {
		b.followupError(s, i, err)
		return
	}

	b.followupText(s, i, fmt.Sprintf("Цена обновлена: %d", listing.Price))
}
