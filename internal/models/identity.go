// models содержит доменные сущности релея.
// Эти типы используются слоями сервиса, хранилища и транспорта.
package models

// Identity — проверенная личность вызывающего, извлечённая из сессионного
// токена провайдера идентификации. Subject стабилен и служит uid в Firebase.
type Identity struct {
	Subject   string
	SessionID string
	// AuthorizedParty — claim azp (origin фронтенда, выпустившего сессию).
	AuthorizedParty string
}

// Credential — выпущенный бэкендом хранения custom token.
// Живёт только в рамках одного ответа и нигде не сохраняется.
type Credential struct {
	Token string
}
