// Package sanitize redacts personal data from canonical rows before they
// cross the trust boundary toward the model provider. It is a pure
// transformation: no I/O, and sanitizing already-sanitized rows is a no-op.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/finglow/finglow/internal/ingest"
)

// RedactedMarker replaces values that cannot be partially masked.
const RedactedMarker = "[REDACTED]"

// sensitiveFieldRE matches column names that carry personal data: national
// IDs (CPF/CNPJ/RG), person and holder names, banking identifiers (PIX key,
// account, agency/branch) and contact info.
var sensitiveFieldRE = regexp.MustCompile(`(?i)cpf|cnpj|\brg\b|nome|name|titular|benefici[aá]rio|pagador|account.*holder|beneficiary|pix|chave|phone|telefone|celular|endereco|address|email|conta|agencia|agency|branch`)

// Patterns for sensitive substrings embedded in otherwise harmless text.
var (
	cpfRE    = regexp.MustCompile(`\d{3}\.?\d{3}\.?\d{3}-?\d{2}`)
	cnpjRE   = regexp.MustCompile(`\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}`)
	emailRE  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phoneRE  = regexp.MustCompile(`\(?\d{2}\)?[\s.-]?\d{4,5}[-.]?\d{4}`)
	pixKeyRE = regexp.MustCompile(`(?i)[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)

	// maskedRE recognizes output of MaskValue, which always contains a run
	// of asterisks. It is the idempotence guard: masked text is left alone.
	maskedRE = regexp.MustCompile(`\*{2,}`)
)

// Rows sanitizes canonical rows. Columns whose names match the sensitive
// pattern set are masked; every other string value is scanned for embedded
// sensitive substrings. The input slice is not modified.
func Rows(rows []ingest.Row) []ingest.Row {
	out := make([]ingest.Row, len(rows))
	for i, row := range rows {
		out[i] = sanitizeRow(row)
	}
	return out
}

func sanitizeRow(row ingest.Row) ingest.Row {
	row.Date = ScrubText(row.Date)
	row.Description = ScrubText(row.Description)
	row.Category = ScrubText(row.Category)

	extra := make(map[string]any, len(row.Extra))
	for key, value := range row.Extra {
		if sensitiveFieldRE.MatchString(key) {
			if s, ok := value.(string); ok {
				extra[key] = MaskValue(s)
			} else {
				extra[key] = RedactedMarker
			}
			continue
		}
		if s, ok := value.(string); ok {
			extra[key] = ScrubText(s)
		} else {
			extra[key] = value
		}
	}
	row.Extra = extra
	return row
}

// MaskValue masks the value of a sensitive field, keeping just enough shape
// for the model to recognize "there was a name here".
func MaskValue(text string) string {
	if text == "" || text == RedactedMarker || maskedRE.MatchString(text) {
		// Empty values carry no shape worth keeping; already-masked values
		// must pass through unchanged so sanitizing is idempotent.
		if text == "" {
			return RedactedMarker
		}
		return text
	}

	if emailRE.MatchString(text) {
		local, _, _ := strings.Cut(text, "@")
		runes := []rune(local)
		if len(runes) > 2 {
			return string(runes[0]) + strings.Repeat("*", min(len(runes)-1, 5)) + "@***"
		}
		return "***@***"
	}

	words := strings.Fields(text)
	if len(words) > 1 {
		// Multi-word text is treated as a person name.
		masked := make([]string, len(words))
		for i, word := range words {
			masked[i] = maskWord(word, 5)
		}
		return strings.Join(masked, " ")
	}

	runes := []rune(text)
	if len(runes) > 2 {
		return string(runes[0]) + strings.Repeat("*", min(len(runes)-1, 8))
	}
	return RedactedMarker
}

func maskWord(word string, maxStars int) string {
	runes := []rune(word)
	if len(runes) > 2 {
		return string(runes[0]) + strings.Repeat("*", min(len(runes)-1, maxStars))
	}
	return "**"
}

// ScrubText replaces embedded sensitive substrings (national IDs, emails,
// phone numbers, UUID-shaped PIX keys) with fixed placeholder tokens,
// independent of the field name.
func ScrubText(text string) string {
	if text == "" {
		return text
	}
	// Longest shapes first: a UUID's digit runs would otherwise be eaten by
	// the CPF pattern, and a bare CNPJ contains a CPF-sized prefix.
	text = pixKeyRE.ReplaceAllString(text, "[PIX_KEY]")
	text = cnpjRE.ReplaceAllString(text, "**.***.***/****-**")
	text = cpfRE.ReplaceAllString(text, "***.***.***-**")
	text = emailRE.ReplaceAllString(text, "[EMAIL]")
	text = phoneRE.ReplaceAllString(text, "[PHONE]")
	return text
}
