package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
)

// respondModal отвечает на интеракцию модальным окном.
func (b *Bot) respondModal(s *discordgo.Session, i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
	if err != nil {
		b.log.WithError(err).WithField("modal", modal.CustomID).Error("не удалось открыть модальное окно")
	}
}

// respondEphemeralText отвечает приватным текстовым сообщением.
func (b *Bot) respondEphemeralText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.WithError(err).Error("не удалось ответить на интеракцию")
	}
}

// respondError отвечает приватным сообщением об ошибке. Текст берётся
// из таксономии ошибок: внутренние подробности наружу не уходят.
func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, opErr error) {
	b.respondEphemeralText(s, i, apperror.UserMessage(opErr))
}

// deferEphemeral откладывает ответ для долгих операций. Возвращает false,
// если ответить не удалось: продолжать операцию тогда бессмысленно.
func (b *Bot) deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.WithError(err).Error("не удалось отложить ответ на интеракцию")
		return false
	}
	return true
}

// followupText досылает текст после отложенного ответа.
func (b *Bot) followupText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.log.WithError(err).Error("не удалось дослать ответ на интеракцию")
	}
}

// followupError досылает сообщение об ошибке после отложенного ответа.
func (b *Bot) followupError(s *discordgo.Session, i *discordgo.InteractionCreate, opErr error) {
	b.followupText(s, i, apperror.UserMessage(opErr))
}
