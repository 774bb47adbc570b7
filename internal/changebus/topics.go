package changebus

// Action - вид изменения в событии.
type Action string

const (
	ActionCreated    Action = "created"
	ActionUpdated    Action = "updated"
	ActionDeleted    Action = "deleted"
	ActionDeletedAll Action = "deleted_all"
	ActionRefreshed  Action = "refreshed"
)

// Topic - тема шины с типом полезной нагрузки P. Набор тем закрыт: значения объявлены ниже.
type Topic[P any] struct {
	name string
}

// Name - стабильное имя темы (используется в SSE-ретрансляции).
func (t Topic[P]) Name() string { return t.name }

// ReceiptsChanged - полезная нагрузка темы ReceiptsChangedTopic.
// Для deleteAll заполнен только UserID.
type ReceiptsChanged struct {
	ID     int64  `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Action Action `json:"action"`
}

type UsersChanged struct {
	ID     int64  `json:"id"`
	UID    string `json:"uid"`
	Action Action `json:"action"`
}

type SettingsChanged struct {
	UserID string `json:"user_id"`
}

// HistoricalDataUpdated - кеш рыночных данных обновлён из сети.
type HistoricalDataUpdated struct {
	Symbol      string `json:"symbol"`
	Granularity string `json:"granularity"`
	Points      int    `json:"points"`
}

var (
	ReceiptsChangedTopic       = Topic[ReceiptsChanged]{name: "receipts_changed"}
	UsersChangedTopic          = Topic[UsersChanged]{name: "users_changed"}
	SettingsChangedTopic       = Topic[SettingsChanged]{name: "settings_changed"}
	HistoricalDataUpdatedTopic = Topic[HistoricalDataUpdated]{name: "historical_data_updated"}
)

// TopicNames - все темы шины.
func TopicNames() []string {
	return []string{
		ReceiptsChangedTopic.name,
		UsersChangedTopic.name,
		SettingsChangedTopic.name,
		HistoricalDataUpdatedTopic.name,
	}
}
