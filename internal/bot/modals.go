package bot

import (
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-bot/internal/models"
)

// Custom id полей модальных окон.
const (
	inputTitle      = "title"
	inputCategory   = "category"
	inputPrice      = "price"
	inputNegotiable = "negotiable"
	inputListingID  = "listing_id"
)

// textRow оборачивает текстовое поле в строку компонентов.
func textRow(input discordgo.TextInput) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{input},
	}
}

// openListingModal собирает форму создания объявления. Поле категории
// показывается только для свободной продажи: у остальных видов категория
// фиксирована.
func openListingModal(kind string) *discordgo.InteractionResponseData {
	rows := []discordgo.MessageComponent{
		textRow(discordgo.TextInput{
			CustomID:  inputTitle,
			Label:     "Название товара",
			Style:     discordgo.TextInputShort,
			Required:  true,
			MaxLength: 100,
		}),
	}

	if !models.KindHasFixedCategory(kind) {
		rows = append(rows, textRow(discordgo.TextInput{
			CustomID:  inputCategory,
			Label:     "Категория",
			Style:     discordgo.TextInputShort,
			Required:  true,
			MaxLength: 50,
		}))
	}

	rows = append(rows,
		textRow(discordgo.TextInput{
			CustomID:    inputPrice,
			Label:       "Цена (целое число, без знаков)",
			Style:       discordgo.TextInputShort,
			Required:    true,
			Placeholder: "1000",
		}),
		textRow(discordgo.TextInput{
			CustomID:    inputNegotiable,
			Label:       "Торг: allowed или refused",
			Style:       discordgo.TextInputShort,
			Required:    true,
			Placeholder: "allowed",
		}),
	)

	return &discordgo.InteractionResponseData{
		CustomID:   modalPrefixOpen + kind,
		Title:      "Новое объявление: " + models.KindLabels[kind],
		Components: rows,
	}
}

// editListingModal собирает форму редактирования, предзаполненную
// текущими значениями.
func editListingModal(listing *models.Listing) *discordgo.InteractionResponseData {
	rows := []discordgo.MessageComponent{
		textRow(discordgo.TextInput{
			CustomID:  inputTitle,
			Label:     "Название товара",
			Style:     discordgo.TextInputShort,
			Required:  true,
			MaxLength: 100,
			Value:     listing.Title,
		}),
	}

	if !models.KindHasFixedCategory(listing.Kind) {
		rows = append(rows, textRow(discordgo.TextInput{
			CustomID:  inputCategory,
			Label:     "Категория",
			Style:     discordgo.TextInputShort,
			Required:  true,
			MaxLength: 50,
			Value:     listing.Category,
		}))
	}

	rows = append(rows,
		textRow(discordgo.TextInput{
			CustomID: inputPrice,
			Label:    "Цена (целое число, без знаков)",
			Style:    discordgo.TextInputShort,
			Required: true,
			Value:    strconv.FormatInt(listing.Price, 10),
		}),
		textRow(discordgo.TextInput{
			CustomID: inputNegotiable,
			Label:    "Торг: allowed или refused",
			Style:    discordgo.TextInputShort,
			Required: true,
			Value:    listing.Negotiable,
		}),
	)

	return &discordgo.InteractionResponseData{
		CustomID:   modalPrefixEdit + listing.ID.String(),
		Title:      "Редактирование объявления",
		Components: rows,
	}
}

// priceModal собирает форму быстрого изменения цены.
func priceModal(listingID uuid.UUID) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: modalPrefixPrice + listingID.String(),
		Title:    "Изменение цены",
		Components: []discordgo.MessageComponent{
			textRow(discordgo.TextInput{
				CustomID:    inputPrice,
				Label:       "Новая цена (целое число, без знаков)",
				Style:       discordgo.TextInputShort,
				Required:    true,
				Placeholder: "1000",
			}),
		},
	}
}

// editLookupModal собирает форму запроса id объявления для редактирования.
func editLookupModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customIDEditLookupModal,
		Title:    "Редактирование объявления",
		Components: []discordgo.MessageComponent{
			textRow(discordgo.TextInput{
				CustomID:    inputListingID,
				Label:       "ID объявления (из личного сообщения)",
				Style:       discordgo.TextInputShort,
				Required:    true,
				Placeholder: "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx",
			}),
		},
	}
}

// modalValue достаёт значение текстового поля из отправленной формы.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
