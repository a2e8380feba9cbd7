package entity

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ActionType — тип действия из config.yaml.
// Закрытый набор: всё, что не входит в него, должно падать с ошибкой,
// а не молча пропускаться.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionInput    ActionType = "input"
	ActionDownload ActionType = "download"
	ActionWait     ActionType = "wait"
)

// Known сообщает, входит ли тип в поддерживаемый набор.
func (t ActionType) Known() bool {
	switch t {
	case ActionClick, ActionInput, ActionDownload, ActionWait:
		return true
	}
	return false
}

// Selectors — селектор элемента: либо одна строка, либо упорядоченный
// список запасных вариантов. Порядок важен: пробуем по очереди.
type Selectors []string

// UnmarshalYAML принимает и скаляр, и последовательность.
func (s *Selectors) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = Selectors{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = Selectors(many)
		return nil
	}
	return fmt.Errorf("selector: ожидалась строка или список, получен узел %v", node.Kind)
}

// Action — один декларативный шаг автоматизации.
// Загружается из конфигурации один раз и дальше не меняется.
type Action struct {
	Type        ActionType `yaml:"type"`
	Selector    Selectors  `yaml:"selector"`
	Value       string     `yaml:"value"`
	WaitFor     *bool      `yaml:"wait_for"` // nil = true, как в конфиге портала
	Wait        float64    `yaml:"wait"`     // пауза ПЕРЕД действием, сек
	Timeout     float64    `yaml:"timeout"`  // пауза ПОСЛЕ действия, сек
	Filename    string     `yaml:"filename"` // базовое имя для download
	Description string     `yaml:"description"`

	// Предыдущий шаг запускает долгую операцию на портале,
	// это время её ожидания в миллисекундах.
	TimeToProceed int `yaml:"time_to_proceed"`
}

// ShouldWaitFor — wait_for по умолчанию включён.
func (a Action) ShouldWaitFor() bool {
	return a.WaitFor == nil || *a.WaitFor
}
