// redact маскирует чувствительные данные перед записью в логи.
// Сами токены в логи не попадают никогда: вместо них пишется короткий
// отпечаток, по которому можно сопоставить записи одного запроса.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе "***";
//   - локальная часть заменяется на первые две руны + "***";
//   - если локальная часть не длиннее двух рун — "***@<domain>";
//   - домен сохраняется как есть.
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает отпечаток токена вида "sha256:<8 hex>".
// Пустой токен даёт "[EMPTY_TOKEN]".
func Token(tok string) string {
	if tok == "" {
		return "[EMPTY_TOKEN]"
	}

	sum := sha256.Sum256([]byte(tok))
	return "sha256:" + hex.EncodeToString(sum[:4])
}
