/*
SPDX-License-Identifier: Apache-2.0
*/

package validate

// Step is one named check of a Pipeline.
type Step struct {
	Name  string
	Check func() error
}

// Pipeline runs checks in a fixed order and stops at the first failure, so
// the reported error always belongs to the highest-precedence failing check.
type Pipeline struct {
	steps []Step
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Then appends a step.
func (p *Pipeline) Then(name string, check func() error) *Pipeline {
	p.steps = append(p.steps, Step{Name: name, Check: check})
	return p
}

// names lists the steps in execution order.
func (p *Pipeline) names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps in order. It returns the name of the failing step
// along with its error, or "" and nil when every step passed.
func (p *Pipeline) Run() (string, error) {
	for _, s := range p.steps {
		if err := s.Check(); err != nil {
			return s.Name, err
		}
	}
	return "", nil
}
