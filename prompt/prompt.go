// Package prompt stores the named text templates sent to the generator.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Names of the built-in templates.
const (
	Answer   = "answer"
	Merge    = "merge"
	Critique = "critique"
	Revise   = "revise"
)

const answerTemplate = `Answer the following question based only on the provided context. If the answer is not in the context, say 'The context does not contain enough information to answer this.' Be specific.

Context:
{{.Context}}

Question: {{.Question}}

Answer:`

const mergeTemplate = `Combine these partial answers into one clear response. Don't add information that isn't already there.

{{.Parts}}

Original question: {{.Question}}

Combined answer:`

const critiqueTemplate = `Evaluate this answer for completeness and accuracy. Point out anything missing or wrong.

Question: {{.Question}}

Context: {{.Context}}

Answer: {{.Answer}}

Evaluation:`

const reviseTemplate = `Improve this answer based on the feedback below. Stay grounded in the context, don't make stuff up.

Question: {{.Question}}

Context: {{.Context}}

Original answer: {{.Answer}}

Feedback: {{.Feedback}}

Improved answer:`

// Template represents a prompt template with variables
type Template struct {
	Name     string
	Content  string
	template *template.Template
}

// NewTemplate creates a new prompt template
func NewTemplate(name, content string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Template{
		Name:     name,
		Content:  content,
		template: tmpl,
	}, nil
}

// Render renders the template with given variables
func (t *Template) Render(vars map[string]any) (string, error) {
	var buf strings.Builder
	if err := t.template.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Manager manages prompt templates
// All operations are thread-safe using RWMutex protection
type Manager struct {
	mu        sync.RWMutex // Protects templates map
	templates map[string]*Template
}

// NewManager creates an empty prompt manager
func NewManager() *Manager {
	return &Manager{
		templates: make(map[string]*Template),
	}
}

// Defaults returns a manager holding the answer, merge, critique and revise
// templates.
func Defaults() *Manager {
	m := NewManager()
	for name, content := range map[string]string{
		Answer:   answerTemplate,
		Merge:    mergeTemplate,
		Critique: critiqueTemplate,
		Revise:   reviseTemplate,
	} {
		if err := m.RegisterString(name, content); err != nil {
			panic(err)
		}
	}
	return m
}

// Register adds a template to the manager
func (m *Manager) Register(tmpl *Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[tmpl.Name]; exists {
		return fmt.Errorf("template %s already registered", tmpl.Name)
	}
	m.templates[tmpl.Name] = tmpl
	return nil
}

// RegisterString registers a template from string content
func (m *Manager) RegisterString(name, content string) error {
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	return m.Register(tmpl)
}

// Override replaces a template, registering it if absent.
func (m *Manager) Override(name, content string) error {
	if name == "" {
		return fmt.Errorf("template name cannot be empty")
	}
	tmpl, err := NewTemplate(name, content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[name] = tmpl
	return nil
}

// Get retrieves a template by name
func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// Render renders a template by name with given variables
func (m *Manager) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(vars)
}

// List returns all registered template names in sorted order
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
