// phone приводит телефонные номера профилей к E.164, чтобы справочник
// хранил единое представление и сопоставление контактов было точным.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion используется, если регион не задан конфигурацией.
const DefaultRegion = "US"

// Normalize возвращает номер в формате E.164 ("+12015550123").
// Номер без кода страны разбирается относительно region.
// Пустой, неразборчивый или невалидный номер даёт ("", false).
func Normalize(raw, region string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", false
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", false
	}

	return phonenumbers.Format(num, phonenumbers.E164), true
}
