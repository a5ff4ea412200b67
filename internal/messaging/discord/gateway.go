package discord

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/ignatzorin/marketplace-bot/internal/messaging"
)

// Gateway реализует messaging.Gateway поверх сессии Discord.
type Gateway struct {
	session *discordgo.Session
	guildID string
}

// NewGateway создаёт адаптер для открытой сессии.
func NewGateway(session *discordgo.Session, guildID string) *Gateway {
	return &Gateway{session: session, guildID: guildID}
}

// PostMessage публикует сообщение и возвращает его ID.
func (g *Gateway) PostMessage(ctx context.Context, channelID string, msg *messaging.Message) (string, error) {
	sent, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.PlainText,
		Embeds:     buildEmbeds(msg),
		Components: buildComponents(msg),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: не удалось отправить сообщение в канал %s: %w", channelID, err)
	}
	return sent.ID, nil
}

// EditMessage перерисовывает сообщение на месте.
func (g *Gateway) EditMessage(ctx context.Context, channelID, messageID string, msg *messaging.Message) error {
	embeds := buildEmbeds(msg)
	components := buildComponents(msg)
	content := msg.PlainText
	_, err := g.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: не удалось отредактировать сообщение %s: %w", messageID, err)
	}
	return nil
}

// DeleteMessage удаляет сообщение.
func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := g.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("discord: не удалось удалить сообщение %s: %w", messageID, err)
	}
	return nil
}

// SendDM отправляет личное сообщение пользователю.
func (g *Gateway) SendDM(ctx context.Context, userID string, msg *messaging.Message) error {
	dm, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: не удалось открыть личный канал с %s: %w", userID, err)
	}
	_, err = g.PostMessage(ctx, dm.ID, msg)
	return err
}

// CreatePrivateChannel создаёт текстовый канал, скрытый от всех кроме
// участников сделки, бота и ролей администраторов.
func (g *Gateway) CreatePrivateChannel(ctx context.Context, name string, memberIDs []string, adminRoleIDs []string) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone канал не видит
			ID:   g.guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    g.session.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
	for _, memberID := range memberIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    memberID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}
	for _, roleID := range adminRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	channel, err := g.session.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord: не удалось создать приватный канал: %w", err)
	}
	return channel.ID, nil
}

// DeletePrivateChannel удаляет канал; уже удалённый канал считается успехом.
func (g *Gateway) DeletePrivateChannel(ctx context.Context, channelID string) error {
	if _, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("discord: не удалось удалить канал %s: %w", channelID, err)
	}
	return nil
}

// SetChannelAccess выдаёт или отзывает право чтения канала у участника.
func (g *Gateway) SetChannelAccess(ctx context.Context, channelID, userID string, canRead bool) error {
	var allow, deny int64
	if canRead {
		allow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	} else {
		deny = discordgo.PermissionViewChannel
	}
	err := g.session.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember, allow, deny, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("discord: не удалось изменить доступ %s к каналу %s: %w", userID, channelID, err)
	}
	return nil
}

// buildEmbeds переводит панель в discord embed.
func buildEmbeds(msg *messaging.Message) []*discordgo.MessageEmbed {
	if msg.Title == "" && msg.Description == "" && len(msg.Fields) == 0 {
		return nil
	}
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return []*discordgo.MessageEmbed{embed}
}

// buildComponents переводит кнопки панели в компоненты discord.
func buildComponents(msg *messaging.Message) []discordgo.MessageComponent {
	if len(msg.Buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range msg.Buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			CustomID: b.CustomID,
			Style:    buttonStyle(b.Style),
			Disabled: b.Disabled,
		})
	}
	return []discordgo.MessageComponent{row}
}

func buttonStyle(style int) discordgo.ButtonStyle {
	switch style {
	case messaging.ButtonStyleSuccess:
		return discordgo.SuccessButton
	case messaging.ButtonStyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// isNotFound распознаёт ответ 404 от Discord API.
func isNotFound(err error) bool {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
