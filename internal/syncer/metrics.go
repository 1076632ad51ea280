package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	newMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vk_backup",
		Name:      "new_messages_total",
		Help:      "Messages added to the archive by this run.",
	})

	usersResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vk_backup",
		Name:      "users_resolved_total",
		Help:      "User profiles fetched by this run.",
	})

	archivedMessages = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vk_backup",
		Name:      "archived_messages",
		Help:      "Messages in the local archive after the run.",
	})

	archivedDialogs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vk_backup",
		Name:      "archived_dialogs",
		Help:      "Dialogs in the local archive after the run.",
	})

	knownUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vk_backup",
		Name:      "known_users",
		Help:      "User profiles stored locally after the run.",
	})
)

func observe(res *Result, users int) {
	archivedMessages.Set(float64(res.Messages))
	archivedDialogs.Set(float64(res.Dialogs))
	knownUsers.Set(float64(users))
}
