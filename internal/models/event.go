package models

import (
	"strings"
	"time"
)

// Типы событий Clerk, которые обрабатывает релей.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

// WebhookEvent — конверт события Clerk. Поля сверх перечисленных игнорируются.
type WebhookEvent struct {
	Type   string      `json:"type"`
	Object string      `json:"object"`
	Data   UserPayload `json:"data"`
}

// UserPayload — объект пользователя Clerk в событиях user.*.
type UserPayload struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	PhoneNumbers          []PhoneNumber  `json:"phone_numbers"`
	PrimaryPhoneNumberID  string         `json:"primary_phone_number_id"`
	// CreatedAt — миллисекунды Unix.
	CreatedAt int64 `json:"created_at"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type PhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

// PrimaryEmail возвращает адрес с id = primary_email_address_id,
// иначе первый непустой адрес. Пустая строка — адресов нет.
func (u UserPayload) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != "" && e.ID == u.PrimaryEmailAddressID {
			if addr := strings.TrimSpace(e.EmailAddress); addr != "" {
				return addr
			}
		}
	}

	for _, e := range u.EmailAddresses {
		if addr := strings.TrimSpace(e.EmailAddress); addr != "" {
			return addr
		}
	}

	return ""
}

// PrimaryPhone — аналог PrimaryEmail для телефонов.
func (u UserPayload) PrimaryPhone() string {
	for _, p := range u.PhoneNumbers {
		if u.PrimaryPhoneNumberID != "" && p.ID == u.PrimaryPhoneNumberID {
			return strings.TrimSpace(p.PhoneNumber)
		}
	}

	if len(u.PhoneNumbers) > 0 {
		return strings.TrimSpace(u.PhoneNumbers[0].PhoneNumber)
	}

	return ""
}

// DisplayName склеивает имя и фамилию; отсутствующие части пропускаются.
func (u UserPayload) DisplayName() string {
	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}

	if u.LastName != nil {
		last = *u.LastName
	}

	return strings.TrimSpace(first + " " + last)
}

// Created возвращает момент создания пользователя в UTC
// (нулевое время, если поле не пришло).
func (u UserPayload) Created() time.Time {
	if u.CreatedAt <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(u.CreatedAt).UTC()
}
