package messaging

import "context"

// Message — платформонезависимое описание сообщения-панели.
// Сервис собирает его как view-state, адаптер переводит в формат площадки.
type Message struct {
	Title       string
	Description string
	Fields      []Field
	Color       int
	Buttons     []Button
	// PlainText используется вместо embed для простых уведомлений.
	PlainText string
}

// Field — пара название/значение внутри панели.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Стили кнопок.
const (
	ButtonStylePrimary = iota
	ButtonStyleSuccess
	ButtonStyleDanger
)

// Button — кнопка под сообщением. CustomID кодирует операцию и id объявления.
type Button struct {
	Label    string
	CustomID string
	Style    int
	Disabled bool
}

// Gateway описывает возможности площадки, которые нужны движку жизненного
// цикла: сообщения, приватные каналы, права доступа, личные уведомления.
type Gateway interface {
	// PostMessage публикует сообщение в канал и возвращает его ID.
	PostMessage(ctx context.Context, channelID string, msg *Message) (string, error)
	// EditMessage перерисовывает ранее опубликованное сообщение на месте.
	EditMessage(ctx context.Context, channelID, messageID string, msg *Message) error
	// DeleteMessage удаляет сообщение.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// SendDM отправляет личное уведомление пользователю.
	SendDM(ctx context.Context, userID string, msg *Message) error
	// CreatePrivateChannel создаёт канал, видимый только перечисленным
	// участникам, боту и ролям администраторов.
	CreatePrivateChannel(ctx context.Context, name string, memberIDs []string, adminRoleIDs []string) (string, error)
	// DeletePrivateChannel удаляет приватный канал. Уже удалённый канал
	// не считается ошибкой.
	DeletePrivateChannel(ctx context.Context, channelID string) error
	// SetChannelAccess выдаёт или отзывает у участника право чтения канала.
	SetChannelAccess(ctx context.Context, channelID, userID string, canRead bool) error
}
