// Package catalog loads and validates the ordered question catalog.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/surveyflow/pkg/api"
)

//go:embed questions.yaml
var defaultCatalog []byte

// document is the on-disk shape of a catalog.
type document struct {
	Questions []api.QuestionDefinition `yaml:"questions"`
}

// Catalog is an immutable, ordered list of question definitions.
type Catalog struct {
	questions []api.QuestionDefinition
	byID      map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a YAML (or JSON) catalog document from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil)
		}
		return nil, fmt.Errorf("%w: decode: %v", api.ErrInvalidCatalog, err)
	}
	return New(doc.Questions)
}

// New builds a catalog from definitions, validating ids, options and
// branching references.
func New(questions []api.QuestionDefinition) (*Catalog, error) {
	c := &Catalog{
		questions: make([]api.QuestionDefinition, 0, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}

	for i, q := range questions {
		if err := c.validate(q); err != nil {
			return nil, fmt.Errorf("%w: question %d (%q): %v", api.ErrInvalidCatalog, i, q.ID, err)
		}
		c.byID[q.ID] = len(c.questions)
		c.questions = append(c.questions, cloneQuestion(q))
	}

	return c, nil
}

// validate checks q against the questions already accepted, so a branching
// reference can only point backwards.
func (c *Catalog) validate(q api.QuestionDefinition) error {
	if q.ID == "" {
		return errors.New("missing id")
	}
	if _, dup := c.byID[q.ID]; dup {
		return errors.New("duplicate id")
	}
	if q.Text == "" {
		return errors.New("missing text")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unknown type %q", q.Type)
	}
	if !q.Importance.Valid() {
		return fmt.Errorf("unknown importance %q", q.Importance)
	}
	if len(q.Options) == 0 {
		return errors.New("no options")
	}

	seen := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if o.Value == "" {
			return errors.New("option with empty value")
		}
		if _, dup := seen[o.Value]; dup {
			return fmt.Errorf("duplicate option value %q", o.Value)
		}
		seen[o.Value] = struct{}{}
	}

	if b := q.Branching; b != nil {
		idx, ok := c.byID[b.Question]
		if !ok {
			return fmt.Errorf("branching references %q which is not an earlier question", b.Question)
		}
		ref := c.questions[idx]
		if !ref.HasOption(b.Includes) {
			return fmt.Errorf("branching value %q is not an option of %q", b.Includes, b.Question)
		}
		// The active list asks high before medium, so a question may only
		// depend on one asked no later than itself.
		if rank(ref.Importance) > rank(q.Importance) {
			return fmt.Errorf("branching references %q (%s) which is asked after this %s question",
				b.Question, ref.Importance, q.Importance)
		}
	}

	return nil
}

func rank(i api.Importance) int {
	switch i {
	case api.ImportanceHigh:
		return 0
	case api.ImportanceMedium:
		return 1
	}
	return 2
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int { return len(c.questions) }

// Questions returns all definitions in catalog order.
func (c *Catalog) Questions() []api.QuestionDefinition {
	out := make([]api.QuestionDefinition, len(c.questions))
	for i, q := range c.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

// Question looks up a definition by id.
func (c *Catalog) Question(id string) (api.QuestionDefinition, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return api.QuestionDefinition{}, false
	}
	return cloneQuestion(c.questions[idx]), true
}

// ActiveQuestions returns the high-importance questions followed by the
// medium ones, each tier in catalog order, without duplicates.
func (c *Catalog) ActiveQuestions() []api.QuestionDefinition {
	ids := c.ActiveQuestionIDs()
	out := make([]api.QuestionDefinition, len(ids))
	for i, id := range ids {
		out[i] = cloneQuestion(c.questions[c.byID[id]])
	}
	return out
}

// ActiveQuestionIDs is ActiveQuestions reduced to ids.
func (c *Catalog) ActiveQuestionIDs() []string {
	ids := make([]string, 0, len(c.questions))
	seen := make(map[string]struct{}, len(c.questions))

	for _, tier := range []api.Importance{api.ImportanceHigh, api.ImportanceMedium} {
		for _, q := range c.questions {
			if q.Importance != tier {
				continue
			}
			if _, dup := seen[q.ID]; dup {
				continue
			}
			seen[q.ID] = struct{}{}
			ids = append(ids, q.ID)
		}
	}

	return ids
}

func cloneQuestion(q api.QuestionDefinition) api.QuestionDefinition {
	if q.Options != nil {
		opts := make([]api.Option, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts
	}
	if q.Branching != nil {
		b := *q.Branching
		q.Branching = &b
	}
	return q
}
