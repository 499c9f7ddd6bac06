package models

// DisplayKind различает пустой дисплей, обычное значение и сообщение
// об ошибке. Ошибка никогда не сохраняется как ввод — только показывается.
type DisplayKind int

const (
	DisplayEmpty DisplayKind = iota
	DisplayValue
	DisplayError
)

// Display — состояние дисплея калькулятора.
type Display struct {
	Kind    DisplayKind
	Value   string // для DisplayValue
	Message string // для DisplayError
}

func EmptyDisplay() Display {
	return Display{Kind: DisplayEmpty}
}

func ValueDisplay(value string) Display {
	if value == "" {
		return EmptyDisplay()
	}
	return Display{Kind: DisplayValue, Value: value}
}

func ErrorDisplay(message string) Display {
	return Display{Kind: DisplayError, Message: message}
}

// Render возвращает текст для показа в сообщении калькулятора.
func (d Display) Render() string {
	switch d.Kind {
	case DisplayValue:
		return d.Value
	case DisplayError:
		return d.Message
	default:
		return "0"
	}
}

// Input возвращает значение, пригодное как набранный ввод.
// Для ошибок и пустого дисплея это пустая строка.
func (d Display) Input() string {
	if d.Kind == DisplayValue {
		return d.Value
	}
	return ""
}

func (d Display) IsError() bool {
	return d.Kind == DisplayError
}
