package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxURLLength               = 2048
	MaxSearchLength            = 200
	MaxReportDescriptionLength = 2000
	MaxReviewerNotesLength     = 2000
	MaxSuggestionTitleLength   = 300
	MaxSuggestionDescription   = 2000
	MaxTagLength               = 50
	MaxTagsCount               = 20
	MaxNameLength              = 200
	MinDMCADescriptionLength   = 10
	MaxDMCADescriptionLength   = 5000
	MaxFilterValues            = 50
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return fmt.Errorf("некорректный формат email")
	}
	if len(local) == 0 || len(local) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domain) == 0 || len(domain) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(local) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domain) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}
	return nil
}

// ValidateOptionalEmail пропускает пустое значение.
func ValidateOptionalEmail(email *string) error {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil
	}
	return ValidateEmail(*email)
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateURL проверяет обязательную http(s) ссылку.
func ValidateURL(fieldName, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("%s обязательна", fieldName)
	}
	if err := ValidateLength(fieldName, link, 0, MaxURLLength); err != nil {
		return err
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%s: некорректный формат URL", fieldName)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s должна начинаться с http:// или https://", fieldName)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s должна содержать доменное имя", fieldName)
	}
	return nil
}

// ValidateOptionalURL пропускает пустое значение.
func ValidateOptionalURL(fieldName string, link *string) error {
	if link == nil || strings.TrimSpace(*link) == "" {
		return nil
	}
	return ValidateURL(fieldName, *link)
}

// ValidateOptionalText проверяет длину необязательного текста.
func ValidateOptionalText(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateEnum проверяет, что значение входит в допустимый набор.
func ValidateEnum(fieldName, value string, allowed map[string]struct{}) error {
	if _, ok := allowed[value]; !ok {
		return fmt.Errorf("недопустимое значение %s: %q", fieldName, value)
	}
	return nil
}

// ValidateEnumList проверяет каждый элемент списка.
func ValidateEnumList(fieldName string, values []string, allowed map[string]struct{}) error {
	if len(values) > MaxFilterValues {
		return fmt.Errorf("%s: не более %d значений", fieldName, MaxFilterValues)
	}
	for _, v := range values {
		if err := ValidateEnum(fieldName, v, allowed); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTags проверяет список тегов предложения.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagsCount {
		return fmt.Errorf("количество тегов не может превышать %d", MaxTagsCount)
	}

	seen := make(map[string]bool)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return fmt.Errorf("тег не может быть пустым")
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return fmt.Errorf("тег не может быть длиннее %d символов", MaxTagLength)
		}

		lower := strings.ToLower(tag)
		if seen[lower] {
			return fmt.Errorf("тег '%s' указан дважды", tag)
		}
		seen[lower] = true
	}
	return nil
}
