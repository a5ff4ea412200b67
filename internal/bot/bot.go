package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-bot/internal/logger"
	"github.com/ignatzorin/marketplace-bot/internal/service"
)

// Имена slash команд.
const (
	commandStoreOpen = "store_open"
	commandStoreEdit = "store_edit"
)

// Bot связывает интеракции Discord с движком жизненного цикла.
type Bot struct {
	session    *discordgo.Session
	lifecycle  *service.LifecycleService
	guildID    string
	adminRoles []string
	log        *logrus.Entry
}

// New создаёт фронтенд бота поверх открытой сессии.
func New(session *discordgo.Session, lifecycle *service.LifecycleService, guildID string, adminRoles []string) *Bot {
	return &Bot{
		session:    session,
		lifecycle:  lifecycle,
		guildID:    guildID,
		adminRoles: adminRoles,
		log:        logger.Component("bot"),
	}
}

// Start подписывается на интеракции и регистрирует slash команды.
// Сессия должна быть уже открыта.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onInteraction)
	return b.registerCommands()
}

// registerCommands перезаписывает slash команды гильдии целиком:
// при изменении набора устаревшие команды удаляются сами.
func (b *Bot) registerCommands() error {
	manageChannels := int64(discordgo.PermissionManageChannels)

	commands := []*discordgo.ApplicationCommand{
		{
			Name:                     commandStoreOpen,
			Description:              "Открыть панель выставления товара на продажу",
			DefaultMemberPermissions: &manageChannels,
		},
		{
			Name:        commandStoreEdit,
			Description: "Редактировать своё объявление по его ID",
		},
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands)
	return err
}

// actorFrom собирает инициатора операции из интеракции. Признак
// администратора определяется пересечением ролей участника со списком
// ролей из конфигурации.
func (b *Bot) actorFrom(i *discordgo.InteractionCreate) service.Actor {
	if i.Member == nil || i.Member.User == nil {
		return service.Actor{}
	}

	actor := service.Actor{ID: i.Member.User.ID}
	for _, roleID := range i.Member.Roles {
		for _, adminRole := range b.adminRoles {
			if roleID == adminRole {
				actor.Admin = true
				return actor
			}
		}
	}
	return actor
}
