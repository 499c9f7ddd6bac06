package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// ErrDivisionByZero возвращается при делении на ноль.
var ErrDivisionByZero = errors.New("деление на ноль")

// ExpressionEvaluator вычисляет арифметические выражения калькулятора.
type ExpressionEvaluator struct{}

func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

func (e *ExpressionEvaluator) Evaluate(expression string) (string, error) {
	normalized := normalizeExpression(expression)
	if normalized == "" {
		return "", errors.New("пустое выражение")
	}

	expr, err := govaluate.NewEvaluableExpression(normalized)
	if err != nil {
		return "", fmt.Errorf("некорректное выражение: %w", err)
	}

	raw, err := expr.Evaluate(nil)
	if err != nil {
		return "", fmt.Errorf("ошибка вычисления: %w", err)
	}

	num, ok := raw.(float64)
	if !ok {
		return "", errors.New("нечисловой результат")
	}
	if math.IsInf(num, 0) || math.IsNaN(num) {
		return "", ErrDivisionByZero
	}

	return formatNumber(num), nil
}

// normalizeExpression приводит экранные символы к операторам выражения.
func normalizeExpression(expression string) string {
	replacer := strings.NewReplacer(
		",", ".",
		"×", "*",
		"÷", "/",
		"−", "-",
	)
	return strings.TrimSpace(replacer.Replace(expression))
}

// formatNumber печатает целые результаты без дробной части. Дробная
// часть отделяется запятой, как на клавиатуре калькулятора.
func formatNumber(num float64) string {
	if num == math.Trunc(num) && math.Abs(num) < 1e15 {
		return strconv.FormatFloat(num, 'f', 0, 64)
	}
	return strings.Replace(strconv.FormatFloat(num, 'f', -1, 64), ".", ",", 1)
}
