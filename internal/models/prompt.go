package models

// PromptProfile is a named summarization prompt, loadable from YAML.
// Template must contain {question} and {context} placeholders.
type PromptProfile struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Question string `json:"question" yaml:"question"`
	Template string `json:"template" yaml:"template"`
	BuiltIn  bool   `json:"builtIn" yaml:"-"`
}
