package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ignatzorin/marketplace-bot/internal/logger"
)

// PresenceUpdater периодически обновляет статус бота: пинг шлюза и аптайм.
// Ни с каким состоянием объявлений не взаимодействует.
type PresenceUpdater struct {
	session   *discordgo.Session
	period    time.Duration
	startedAt time.Time
}

// NewPresenceUpdater создаёт обновлятор статуса.
func NewPresenceUpdater(session *discordgo.Session, period time.Duration) *PresenceUpdater {
	return &PresenceUpdater{
		session:   session,
		period:    period,
		startedAt: time.Now(),
	}
}

// Run крутит цикл обновления до отмены контекста.
func (p *PresenceUpdater) Run(ctx context.Context) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.update(); err != nil {
				logger.Component("presence").WithError(err).Warn("не удалось обновить статус")
			}
		}
	}
}

func (p *PresenceUpdater) update() error {
	ping := p.session.HeartbeatLatency().Round(time.Millisecond)
	uptime := time.Since(p.startedAt)

	totalSeconds := int(uptime.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	name := fmt.Sprintf("%dms | аптайм %dч%dм%dс", ping.Milliseconds(), hours, minutes, seconds)
	return p.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: name,
				Type: discordgo.ActivityTypeWatching,
			},
		},
	})
}
