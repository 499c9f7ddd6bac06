package service

import (
	"context"
	"strings"
	"time"

	"calcbot/internal/domain"
	"calcbot/internal/events"
	"calcbot/internal/models"

	"github.com/rs/zerolog"
)

// CalculatorService держит состояние калькулятора в хранилище и обрабатывает
// нажатия кнопок. Ошибки хранилища не прерывают работу: дисплей считается
// из того, что удалось прочитать.
type CalculatorService struct {
	repo      domain.Repository
	evaluator domain.Evaluator
	events    domain.EventPublisher
	logger    *zerolog.Logger
}

func NewCalculatorService(
	repo domain.Repository,
	evaluator domain.Evaluator,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *CalculatorService {
	return &CalculatorService{
		repo:      repo,
		evaluator: evaluator,
		events:    eventBus,
		logger:    logger,
	}
}

// Session возвращает сессию пользователя; при отсутствии или ошибке — пустую.
func (s *CalculatorService) Session(ctx context.Context, userID int64) *models.CalculatorSession {
	session, err := s.repo.GetCalculatorSession(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось прочитать сессию калькулятора")
	}
	if session == nil {
		session = &models.CalculatorSession{UserID: userID}
	}
	return session
}

// Press обрабатывает нажатие кнопки и возвращает новое состояние дисплея.
func (s *CalculatorService) Press(ctx context.Context, userID int64, key string) models.Display {
	session := s.Session(ctx, userID)
	value := session.Value

	var display models.Display

	switch {
	case key == "C":
		session.Value = ""
		session.OldValue = ""
		display = models.EmptyDisplay()

	case key == "⌫":
		runes := []rune(value)
		if len(runes) > 0 {
			value = string(runes[:len(runes)-1])
		}
		session.Value = value
		display = models.ValueDisplay(value)

	case key == "=":
		display = s.evaluate(ctx, userID, session)

	case isOperatorKey(key):
		display = models.ValueDisplay(s.appendOperator(session, key))

	default:
		// Цифры и десятичный разделитель
		value += key
		session.Value = value
		display = models.ValueDisplay(value)
	}

	session.LastActivity = time.Now()
	if err := s.repo.UpdateCalculatorSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось сохранить сессию калькулятора")
	}

	return display
}

func (s *CalculatorService) evaluate(ctx context.Context, userID int64, session *models.CalculatorSession) models.Display {
	expression := session.Value
	if strings.TrimSpace(expression) == "" {
		return models.EmptyDisplay()
	}

	result, err := s.evaluator.Evaluate(expression)
	if err != nil {
		s.logger.Debug().Err(err).Int64("user_id", userID).Str("expression", expression).Msg("Ошибка вычисления")
		// Ошибка показывается на дисплее, ввод очищается
		session.OldValue = expression
		session.Value = ""
		return models.ErrorDisplay("Ошибка: " + err.Error())
	}

	session.OldValue = expression
	session.Value = result

	if err := s.repo.IncrementCalculationCount(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось обновить счетчик вычислений")
	}
	if err := s.repo.AddCalculationRecord(ctx, userID, expression, result); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось записать историю вычислений")
	}
	if s.events != nil {
		_ = s.events.PublishJSON(events.EventCalculationDone, events.CalculationEventPayload{
			UserID:     userID,
			Expression: expression,
			Result:     result,
			At:         time.Now(),
		})
	}

	return models.ValueDisplay(result)
}

// appendOperator дописывает оператор, заменяя предыдущий, если два подряд.
func (s *CalculatorService) appendOperator(session *models.CalculatorSession, key string) string {
	value := session.Value
	if value == "" {
		// Начинать выражение можно только с минуса
		if key == "-" {
			session.Value = key
			return key
		}
		return value
	}

	runes := []rune(value)
	if isOperatorKey(string(runes[len(runes)-1])) {
		value = string(runes[:len(runes)-1]) + key
	} else {
		value += key
	}
	session.Value = value
	return value
}

// SaveMessageID запоминает сообщение, в котором отрисован калькулятор.
func (s *CalculatorService) SaveMessageID(ctx context.Context, userID int64, messageID int) {
	session := s.Session(ctx, userID)
	session.MessageID = messageID
	session.LastActivity = time.Now()
	if err := s.repo.UpdateCalculatorSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось сохранить сессию калькулятора")
	}
}

// Reset удаляет сессию пользователя.
func (s *CalculatorService) Reset(ctx context.Context, userID int64) {
	if err := s.repo.ResetCalculatorSession(ctx, userID); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось сбросить сессию калькулятора")
	}
}

// History возвращает последние вычисления пользователя; пустой срез при ошибке.
func (s *CalculatorService) History(ctx context.Context, userID int64, limit int) []*models.CalculationRecord {
	records, err := s.repo.GetUserCalculationHistory(ctx, userID, limit)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Не удалось прочитать историю вычислений")
		return nil
	}
	return records
}

func isOperatorKey(key string) bool {
	switch key {
	case "+", "-", "*", "/", "×", "÷":
		return true
	default:
		return false
	}
}
