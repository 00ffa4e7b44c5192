package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/themsquared/agent-playground/logging"
	"github.com/themsquared/agent-playground/provider"
)

// ErrNoResponses is returned by Run when every selected model failed to
// answer.
var ErrNoResponses = errors.New("no responses received from any model")

// ModelSelection names one provider/model pair to evaluate.
type ModelSelection struct {
	Provider string `json:"provider"`
	ModelID  string `json:"modelId"`
}

// ResponseRecord is one model's answer to one question.
type ResponseRecord struct {
	ID            string  `json:"id,omitempty"`
	Provider      string  `json:"provider"`
	ModelID       string  `json:"modelId"`
	QuestionIndex int     `json:"questionIndex"`
	Response      string  `json:"response"`
	Rank          *int    `json:"rank"`
	Cost          float64 `json:"cost"`
}

// Test is one evaluation run: the questions asked and every collected
// answer, with the summed estimated cost.
type Test struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	Questions []string         `json:"questions"`
	TotalCost float64          `json:"total_cost"`
	Results   []ResponseRecord `json:"results"`
}

// ProviderSource resolves backend names to providers. It is satisfied by
// the playground facade.
type ProviderSource interface {
	Provider(name string) (provider.Provider, bool)
}

// RunnerOptions configure a Runner.
type RunnerOptions struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Runner compares models by asking each selected provider/model pair the
// same questions and collecting every reply with its cost.
type Runner struct {
	providers ProviderSource
	logger    logging.Logger
}

// NewRunner creates a Runner over the given backends.
func NewRunner(providers ProviderSource, optFns ...func(o *RunnerOptions)) *Runner {
	opts := RunnerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Runner{providers: providers, logger: opts.Logger}
}

// Run asks every question of every selection. Unknown providers and failed
// generations are skipped, not fatal; only a run where no model answered at
// all returns ErrNoResponses. Answers use one-shot exchanges so evaluation
// never pollutes conversation history.
func (r *Runner) Run(ctx context.Context, id, name string, questions []string, selections []ModelSelection) (*Test, error) {
	test := &Test{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Questions: questions,
		Results:   []ResponseRecord{},
	}

	for _, sel := range selections {
		if sel.Provider == "" || sel.ModelID == "" {
			continue
		}

		prov, ok := r.providers.Provider(sel.Provider)
		if !ok {
			r.logger.Warn("Skipping unknown provider", "provider", sel.Provider)
			continue
		}

		prov.SetModel(sel.ModelID)

		for i, question := range questions {
			resp, err := prov.Generate(ctx, question)
			if err != nil {
				r.logger.Warn("Evaluation generation failed",
					"provider", sel.Provider, "model", sel.ModelID, "error", err)
				continue
			}

			test.Results = append(test.Results, ResponseRecord{
				Provider:      sel.Provider,
				ModelID:       sel.ModelID,
				QuestionIndex: i,
				Response:      resp.Content,
				Cost:          resp.Cost.TotalCost,
			})
			test.TotalCost += resp.Cost.TotalCost
		}
	}

	if len(test.Results) == 0 {
		return nil, ErrNoResponses
	}

	return test, nil
}
