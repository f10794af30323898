package queries

// User queries
const (
	GetUserByUUID = `
		SELECT uuid, name, email
		FROM users
		WHERE uuid = $1`

	GetUserByEmail = `
		SELECT uuid, name, email
		FROM users
		WHERE email = $1`

	UpsertUser = `
		INSERT INTO users (uuid, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP`
)

// Notification preference queries
const (
	GetNotificationPreference = `
		SELECT user_uuid, email_enabled, html_email, push_enabled, language
		FROM notification_preference
		WHERE user_uuid = $1`

	UpsertNotificationPreference = `
		INSERT INTO notification_preference (user_uuid, email_enabled, html_email, push_enabled, language)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_uuid) DO UPDATE SET
			email_enabled = excluded.email_enabled,
			html_email = excluded.html_email,
			push_enabled = excluded.push_enabled,
			language = excluded.language,
			updated_at = CURRENT_TIMESTAMP`
)
