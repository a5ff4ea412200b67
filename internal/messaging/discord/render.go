package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/ignatzorin/marketplace-bot/internal/messaging"
)

// RenderEmbeds переводит панель в embeds для ответов на интеракции.
func RenderEmbeds(msg *messaging.Message) []*discordgo.MessageEmbed {
	return buildEmbeds(msg)
}

// RenderComponents переводит кнопки панели в компоненты для ответов на интеракции.
func RenderComponents(msg *messaging.Message) []discordgo.MessageComponent {
	return buildComponents(msg)
}
