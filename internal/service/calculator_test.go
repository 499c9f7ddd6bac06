package service

import (
	"context"
	"testing"

	"calcbot/internal/events"
	"calcbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCalculatorService(repo *MockRepository) *CalculatorService {
	logger := zerolog.Nop()
	return NewCalculatorService(repo, NewExpressionEvaluator(), events.NewEventBus(), &logger)
}

func TestCalculatorPress_Digits(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).Return(nil, nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
		return s.UserID == 1 && s.Value == "7"
	})).Return(nil).Once()

	display := svc.Press(ctx, 1, "7")
	assert.Equal(t, models.DisplayValue, display.Kind)
	assert.Equal(t, "7", display.Render())
	repo.AssertExpectations(t)
}

func TestCalculatorPress_Clear(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).
		Return(&models.CalculatorSession{UserID: 1, Value: "12+3"}, nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
		return s.Value == "" && s.OldValue == ""
	})).Return(nil).Once()

	display := svc.Press(ctx, 1, "C")
	assert.Equal(t, models.DisplayEmpty, display.Kind)
	assert.Equal(t, "0", display.Render())
	repo.AssertExpectations(t)
}

func TestCalculatorPress_Backspace(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).
		Return(&models.CalculatorSession{UserID: 1, Value: "12+"}, nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.Anything).Return(nil).Once()

	display := svc.Press(ctx, 1, "⌫")
	assert.Equal(t, "12", display.Render())
}

func TestCalculatorPress_OperatorRules(t *testing.T) {
	tests := []struct {
		name    string
		current string
		key     string
		want    string
	}{
		{"AppendToNumber", "12", "+", "12+"},
		{"ReplaceTrailingOperator", "12+", "*", "12*"},
		{"LeadingMinusAllowed", "", "-", "-"},
		{"LeadingPlusIgnored", "", "+", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := newCalculatorService(repo)
			ctx := context.Background()

			repo.On("GetCalculatorSession", ctx, int64(1)).
				Return(&models.CalculatorSession{UserID: 1, Value: tt.current}, nil).Once()
			repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
				return s.Value == tt.want
			})).Return(nil).Once()

			svc.Press(ctx, 1, tt.key)
			repo.AssertExpectations(t)
		})
	}
}

func TestCalculatorPress_Evaluate(t *testing.T) {
	repo := new(MockRepository)
	logger := zerolog.Nop()
	bus := events.NewEventBus()

	var published *events.Event
	bus.Subscribe(events.EventCalculationDone, func(e *events.Event) error {
		published = e
		return nil
	})

	svc := NewCalculatorService(repo, NewExpressionEvaluator(), bus, &logger)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(42)).
		Return(&models.CalculatorSession{UserID: 42, Value: "12+3"}, nil).Once()
	repo.On("IncrementCalculationCount", ctx, int64(42)).Return(nil).Once()
	repo.On("AddCalculationRecord", ctx, int64(42), "12+3", "15").Return(nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
		return s.Value == "15" && s.OldValue == "12+3"
	})).Return(nil).Once()

	display := svc.Press(ctx, 42, "=")
	assert.Equal(t, "15", display.Render())
	assert.False(t, display.IsError())

	require.NotNil(t, published)
	repo.AssertExpectations(t)
}

func TestCalculatorPress_DivisionByZero(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).
		Return(&models.CalculatorSession{UserID: 1, Value: "5/0"}, nil).Once()
	// Ввод очищается, счетчик и история не трогаются
	repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
		return s.Value == "" && s.OldValue == "5/0"
	})).Return(nil).Once()

	display := svc.Press(ctx, 1, "=")
	assert.True(t, display.IsError())
	assert.Contains(t, display.Render(), "Ошибка")
	assert.Equal(t, "", display.Input())

	repo.AssertNotCalled(t, "IncrementCalculationCount", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AddCalculationRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCalculatorPress_EvaluateEmpty(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).Return(nil, nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.Anything).Return(nil).Once()

	display := svc.Press(ctx, 1, "=")
	assert.Equal(t, models.DisplayEmpty, display.Kind)
	repo.AssertNotCalled(t, "IncrementCalculationCount", mock.Anything, mock.Anything)
}

func TestCalculatorPress_StorageDegraded(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	// Чтение и запись падают, но нажатие все равно обрабатывается
	repo.On("GetCalculatorSession", ctx, int64(1)).Return(nil, assert.AnError).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.Anything).Return(assert.AnError).Once()

	display := svc.Press(ctx, 1, "9")
	assert.Equal(t, "9", display.Render())
}

func TestCalculatorReset(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("ResetCalculatorSession", ctx, int64(1)).Return(nil).Once()
	svc.Reset(ctx, 1)
	repo.AssertExpectations(t)
}

func TestCalculatorSaveMessageID(t *testing.T) {
	repo := new(MockRepository)
	svc := newCalculatorService(repo)
	ctx := context.Background()

	repo.On("GetCalculatorSession", ctx, int64(1)).
		Return(&models.CalculatorSession{UserID: 1, Value: "3"}, nil).Once()
	repo.On("UpdateCalculatorSession", ctx, mock.MatchedBy(func(s *models.CalculatorSession) bool {
		return s.MessageID == 555 && s.Value == "3"
	})).Return(nil).Once()

	svc.SaveMessageID(ctx, 1, 555)
	repo.AssertExpectations(t)
}
