package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы объявления. SOLD — терминальный, отмена переговоров
// возвращает объявление в OPEN, отдельного статуса отмены нет.
const (
	ListingStatusOpen        = "OPEN"
	ListingStatusNegotiating = "NEGOTIATING"
	ListingStatusSold        = "SOLD"
)

// Значения поля "торг".
const (
	NegotiableAllowed = "allowed"
	NegotiableRefused = "refused"
)

// Виды товара. Вид фиксируется при создании и определяет публичный
// канал продаж; для всех видов кроме свободной продажи категория
// совпадает с названием вида и не редактируется.
const (
	KindPunipuniStone   = "punipuni_stone"
	KindBountyStone     = "bounty_stone"
	KindPunipuniAccount = "punipuni_account"
	KindFreeSale        = "free_sale"
)

// KindLabels — отображаемые названия видов товара.
var KindLabels = map[string]string{
	KindPunipuniStone:   "Камень (ぷにぷに)",
	KindBountyStone:     "Камень (баунти)",
	KindPunipuniAccount: "Аккаунт (ぷにぷに)",
	KindFreeSale:        "Свободная продажа",
}

// KnownKinds перечисляет допустимые виды товара.
var KnownKinds = []string{KindPunipuniStone, KindBountyStone, KindPunipuniAccount, KindFreeSale}

// IsKnownKind проверяет, что вид товара входит в закрытый список.
func IsKnownKind(kind string) bool {
	_, ok := KindLabels[kind]
	return ok
}

// KindHasFixedCategory сообщает, зафиксирована ли категория видом товара.
// Только свободная продажа позволяет продавцу задать категорию текстом.
func KindHasFixedCategory(kind string) bool {
	return kind != KindFreeSale
}

// Listing описывает объявление о продаже. Идентификаторы продавца и
// покупателя — это Discord snowflake, а не внутренние UUID.
type Listing struct {
	ID       uuid.UUID `db:"id" json:"id"`
	SellerID string    `db:"seller_id" json:"seller_id"`
	Kind     string    `db:"kind" json:"kind"`
	Title    string    `db:"title" json:"title"`
	Category string    `db:"category" json:"category"`
	Price    int64     `db:"price" json:"price"`
	// Negotiable принимает ровно два значения: allowed или refused.
	Negotiable string `db:"negotiable" json:"negotiable"`
	Status     string `db:"status" json:"status"`
	// Поля переговоров присутствуют только пока объявление на стадии
	// NEGOTIATING; после продажи ссылки сохраняются как история.
	ClaimantID                *string   `db:"claimant_id" json:"claimant_id,omitempty"`
	NegotiationChannelID      *string   `db:"negotiation_channel_id" json:"negotiation_channel_id,omitempty"`
	NegotiationPanelMessageID *string   `db:"negotiation_panel_message_id" json:"negotiation_panel_message_id,omitempty"`
	PublicChannelID           *string   `db:"public_channel_id" json:"public_channel_id,omitempty"`
	PublicMessageID           *string   `db:"public_message_id" json:"public_message_id,omitempty"`
	CreatedAt                 time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time `db:"updated_at" json:"updated_at"`
}

// IsClaimed возвращает true, если объявление сейчас в переговорах.
func (l *Listing) IsClaimed() bool {
	return l.Status == ListingStatusNegotiating && l.ClaimantID != nil
}

// IsSold возвращает true для терминального состояния.
func (l *Listing) IsSold() bool {
	return l.Status == ListingStatusSold
}

// HasNegotiationChannel возвращает true, если у объявления есть
// ссылка на приватный канал (включая проданные, где канал сохранён для аудита).
func (l *Listing) HasNegotiationChannel() bool {
	return l.NegotiationChannelID != nil && l.NegotiationPanelMessageID != nil
}
