package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-bot/internal/messaging"
	"github.com/ignatzorin/marketplace-bot/internal/models"
)

// Цвета панелей.
const (
	colorGreen = 0x2ECC71
	colorBlue  = 0x3498DB
	colorGray  = 0x95A5A6
)

// Действия, закодированные в custom id кнопок. Фронтенд разбирает их
// через ParseButtonID и вызывает соответствующую операцию.
const (
	ActionClaim       = "sale:claim"
	ActionComplete    = "sale:complete"
	ActionAbandon     = "sale:abandon"
	ActionEditPrice   = "sale:editprice"
	ActionEditConfirm = "sale:editconfirm"
)

// buttonID собирает custom id кнопки из действия и id объявления.
func buttonID(action string, id uuid.UUID) string {
	return action + ":" + id.String()
}

// ParseButtonID разбирает custom id кнопки обратно в действие и id объявления.
func ParseButtonID(customID string) (string, uuid.UUID, error) {
	idx := strings.LastIndex(customID, ":")
	if idx < 0 {
		return "", uuid.Nil, fmt.Errorf("panels: некорректный custom id %q", customID)
	}
	action := customID[:idx]
	id, err := uuid.Parse(customID[idx+1:])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("panels: некорректный id объявления в %q: %w", customID, err)
	}
	return action, id, nil
}

// mention форматирует упоминание пользователя.
func mention(userID string) string {
	return "<@" + userID + ">"
}

// negotiableLabel переводит значение поля "торг" для показа.
func negotiableLabel(negotiable string) string {
	if negotiable == models.NegotiableAllowed {
		return "разрешён"
	}
	return "запрещён"
}

// PublicPanel собирает публичную панель продажи. Пока объявление не
// продано, под панелью есть кнопка отклика; у проданного — отметка
// о продаже и никаких кнопок.
func PublicPanel(listing *models.Listing) *messaging.Message {
	title := listing.Title
	color := colorGreen
	if listing.IsSold() {
		title = "【ПРОДАНО】" + title
		color = colorGray
	}

	msg := &messaging.Message{
		Title: title,
		Description: fmt.Sprintf(
			"Категория: %s\nЦена: %d\nТорг: %s\nПродавец: %s",
			listing.Category, listing.Price, negotiableLabel(listing.Negotiable), mention(listing.SellerID),
		),
		Color: color,
	}

	if !listing.IsSold() {
		msg.Buttons = []messaging.Button{
			{
				Label:    "Откликнуться",
				CustomID: buttonID(ActionClaim, listing.ID),
				Style:    messaging.ButtonStyleSuccess,
			},
		}
	}

	return msg
}

// ManagementPanel собирает панель управления сделкой внутри приватного канала.
func ManagementPanel(listing *models.Listing) *messaging.Message {
	msg := &messaging.Message{
		Title:       "Панель управления покупкой",
		Description: "Продавец управляет сделкой здесь.\nЕсли завершение нажато по ошибке, начните продажу заново.",
		Color:       colorBlue,
		Fields: []messaging.Field{
			{
				Name: "Текущая информация",
				Value: fmt.Sprintf(
					"Товар: %s\nКатегория: %s\nЦена: %d\nТорг: %s",
					listing.Title, listing.Category, listing.Price, negotiableLabel(listing.Negotiable),
				),
			},
		},
	}

	if !listing.IsSold() {
		msg.Buttons = []messaging.Button{
			{
				Label:    "Завершить продажу",
				CustomID: buttonID(ActionComplete, listing.ID),
				Style:    messaging.ButtonStyleSuccess,
			},
			{
				Label:    "Отменить переговоры",
				CustomID: buttonID(ActionAbandon, listing.ID),
				Style:    messaging.ButtonStyleDanger,
			},
			{
				Label:    "Изменить цену",
				CustomID: buttonID(ActionEditPrice, listing.ID),
				Style:    messaging.ButtonStylePrimary,
			},
		}
	}

	return msg
}

// NegotiationIntro — информационное сообщение при открытии приватного канала.
func NegotiationIntro(listing *models.Listing, claimantID string) *messaging.Message {
	return &messaging.Message{
		PlainText: fmt.Sprintf(
			"Переговоры по товару «%s».\nПродавец: %s\nПокупатель: %s",
			listing.Title, mention(listing.SellerID), mention(claimantID),
		),
	}
}

// SellerCreatedNotice — личное уведомление продавцу с id объявления.
// Id понадобится позже для команды редактирования.
func SellerCreatedNotice(listing *models.Listing) *messaging.Message {
	return &messaging.Message{
		Title: "Объявление опубликовано",
		Description: fmt.Sprintf(
			"Товар «%s» выставлен на продажу.\nID объявления: `%s`\nСохраните его — он нужен для редактирования.",
			listing.Title, listing.ID,
		),
		Color: colorGreen,
	}
}

// EditConfirmation — view-state первого шага редактирования: подтверждение
// с текущими значениями. Категория показывается как редактируемая только
// для свободной продажи.
func EditConfirmation(listing *models.Listing) *messaging.Message {
	value := fmt.Sprintf(
		"Товар: %s\nЦена: %d\nТорг: %s",
		listing.Title, listing.Price, negotiableLabel(listing.Negotiable),
	)
	if !models.KindHasFixedCategory(listing.Kind) {
		value += "\nКатегория: " + listing.Category
	}

	return &messaging.Message{
		Title:       "Редактирование объявления",
		Description: "Проверьте текущие значения и подтвердите переход к редактированию.",
		Color:       colorBlue,
		Fields: []messaging.Field{
			{Name: "Текущие значения", Value: value},
		},
		Buttons: []messaging.Button{
			{
				Label:    "Редактировать",
				CustomID: buttonID(ActionEditConfirm, listing.ID),
				Style:    messaging.ButtonStylePrimary,
			},
		},
	}
}
