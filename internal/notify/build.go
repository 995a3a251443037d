package notify

import (
	"time"

	"github.com/zulandar/ribbonlog/internal/config"
)

// FromConfig assembles the notifier chain: always the log, plus every
// configured chat target, sent in the background.
func FromConfig(cfg config.NotifyConfig) (*Async, error) {
	chain := Multi{LogNotifier{}}
	if cfg.Slack.Enabled() {
		s, err := NewSlack(SlackOpts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.ChannelID})
		if err != nil {
			return nil, err
		}
		chain = append(chain, s)
	}
	if cfg.Discord.Enabled() {
		d, err := NewDiscord(DiscordOpts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID})
		if err != nil {
			return nil, err
		}
		chain = append(chain, d)
	}
	return NewAsync(chain, 10*time.Second), nil
}
