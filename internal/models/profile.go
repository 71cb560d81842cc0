package models

import "time"

// Profile — денормализованная запись справочника, ключ — Subject провайдера.
// Повторная запись того же профиля полностью перезаписывает документ.
type Profile struct {
	UserID    string
	Email     string
	Name      string
	Phone     string
	CreatedAt time.Time
}
