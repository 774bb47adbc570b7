package recordstore

// Модели gorm используются только для AutoMigrate: схема описывается здесь,
// а чтение/запись идут через ExecuteQuery/ExecuteNonQuery.
// Время хранится как unix-миллисекунды (INTEGER), чувствительные поля как TEXT (payload или legacy-значение).

// ReceiptRecord - таблица receipts.
type ReceiptRecord struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      string `gorm:"column:user_id;not null;index:idx_receipts_user_scan,priority:1"`
	ImageURI    string `gorm:"column:image_uri;not null;default:''"`
	TotalAmount string `gorm:"column:total_amount;not null;default:''"`
	ScanDate    int64  `gorm:"column:scan_date;not null;index:idx_receipts_user_scan,priority:2"`
	OCRData     string `gorm:"column:ocr_data;not null;default:''"`
	Synced      bool   `gorm:"column:synced;not null;default:false"`
	CreatedAt   int64  `gorm:"column:created_at;not null;autoCreateTime:false"`
	UpdatedAt   int64  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (ReceiptRecord) TableName() string { return "receipts" }

// UserRecord - таблица users. uid и email уникальны.
type UserRecord struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	UID         string `gorm:"column:uid;not null;uniqueIndex:idx_users_uid"`
	Email       string `gorm:"column:email;not null;uniqueIndex:idx_users_email"`
	DisplayName string `gorm:"column:display_name;not null;default:''"`
	CreatedAt   int64  `gorm:"column:created_at;not null;autoCreateTime:false"`
	LastLogin   int64  `gorm:"column:last_login;not null;default:0"`
}

func (UserRecord) TableName() string { return "users" }

// SettingsRecord - таблица user_settings, одна строка на пользователя.
type SettingsRecord struct {
	UserID               string `gorm:"column:user_id;primaryKey"`
	Theme                string `gorm:"column:theme;not null;default:''"`
	NotificationsEnabled bool   `gorm:"column:notifications_enabled;not null;default:true"`
	UpdatedAt            int64  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (SettingsRecord) TableName() string { return "user_settings" }

// MarketCacheRecord - таблица market_cache с ключом (symbol, granularity).
type MarketCacheRecord struct {
	Symbol      string `gorm:"column:symbol;primaryKey"`
	Granularity string `gorm:"column:granularity;primaryKey"`
	Payload     string `gorm:"column:payload;not null"`
	FetchedAt   int64  `gorm:"column:fetched_at;not null"`
	ExpiresAt   int64  `gorm:"column:expires_at;not null"`
}

func (MarketCacheRecord) TableName() string { return "market_cache" }

// Models - все модели схемы в порядке миграции.
func Models() []any {
	return []any{&UserRecord{}, &ReceiptRecord{}, &SettingsRecord{}, &MarketCacheRecord{}}
}
