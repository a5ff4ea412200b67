package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/marketplace-bot/internal/models"
)

// Константы валидации
const (
	MinTitleLength    = 1
	MaxTitleLength    = 100
	MaxCategoryLength = 50
)

// Цена принимается строкой из формы и должна состоять только из цифр —
// это одновременно гарантирует неотрицательность.
var priceRegex = regexp.MustCompile(`^[0-9]+$`)

// ValidatePrice проверяет строку цены и возвращает разобранное значение.
// Правила одинаковы при создании и при любом редактировании.
func ValidatePrice(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("цена обязательна")
	}
	if !priceRegex.MatchString(raw) {
		return 0, fmt.Errorf("цена должна состоять только из цифр")
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("цена слишком велика")
	}
	return price, nil
}

// ValidateNegotiable проверяет поле "торг": ровно два допустимых значения.
func ValidateNegotiable(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != models.NegotiableAllowed && raw != models.NegotiableRefused {
		return fmt.Errorf("торг должен быть %q или %q", models.NegotiableAllowed, models.NegotiableRefused)
	}
	return nil
}

// ValidateTitle проверяет название товара.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("название товара обязательно")
	}
	if err := validateLength("название товара", title, MinTitleLength, MaxTitleLength); err != nil {
		return err
	}
	return nil
}

// ValidateCategory проверяет категорию с учётом вида товара.
// Для видов с фиксированной категорией значение задаёт система, а не
// продавец; свободная продажа принимает произвольный непустой текст.
func ValidateCategory(kind, category string) error {
	category = strings.TrimSpace(category)
	if models.KindHasFixedCategory(kind) {
		if category != "" && category != models.KindLabels[kind] {
			return fmt.Errorf("категория для этого вида товара фиксирована и не редактируется")
		}
		return nil
	}
	if category == "" {
		return fmt.Errorf("категория обязательна")
	}
	if err := validateLength("категория", category, 1, MaxCategoryLength); err != nil {
		return err
	}
	return nil
}

// ValidateKind проверяет, что вид товара известен.
func ValidateKind(kind string) error {
	if !models.IsKnownKind(kind) {
		return fmt.Errorf("неизвестный вид товара %q", kind)
	}
	return nil
}

// validateLength проверяет длину строки в рунах.
func validateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должно быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должно быть не более %d символов", fieldName, max)
	}
	return nil
}
