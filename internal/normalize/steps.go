package normalize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pnae-dados/merenda-pipeline/internal/extract"
	"github.com/pnae-dados/merenda-pipeline/internal/logger"
	"github.com/pnae-dados/merenda-pipeline/internal/table"
)

// numericColumns are coerced to float64 before any text pass runs.
var numericColumns = []string{"valor_unidade", "valor_nota_fiscal", "valor_unidade_total", "qt"}

// State is the shared state threaded through the cleaning steps.
type State struct {
	Table *table.Table

	// Extraction collaborators, used by ExtractUnitsStep.
	Cache      *extract.Cache
	Extractor  extract.Extractor
	Workers    int
	DailyLimit int

	// surrogates is filled by AssignSurrogateStep for ComposeInvoiceIDStep.
	surrogates []int
}

// Step is a single pass over the table. Order matters: later steps depend on
// earlier steps' output.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		log.Info().Int("step", i+1).Str("name", step.Name()).Msg("running cleaning step")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("cleaning step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}

// NewCleaningPipeline builds the standard seven-pass normalization pipeline.
func NewCleaningPipeline() *Pipeline {
	return NewPipeline(
		&CoerceNumericStep{},
		&CleanTextStep{},
		&LowercaseColumnsStep{},
		&StripUnitTokensStep{},
		&ExtractUnitsStep{},
		&AssignSurrogateStep{},
		&ComposeInvoiceIDStep{},
	)
}

// Step 1: CoerceNumericStep casts the price/quantity columns to float64;
// unparseable values become 0, never null, never a dropped row.
type CoerceNumericStep struct{}

func (s *CoerceNumericStep) Name() string { return "coerce numeric fields" }

func (s *CoerceNumericStep) Execute(ctx context.Context, state *State) error {
	t := state.Table
	for _, col := range numericColumns {
		if !t.HasColumn(col) {
			t.AddColumn(col)
		}
		for i := 0; i < t.NumRows(); i++ {
			t.Set(i, col, CoerceFloat(t.Get(i, col)))
		}
	}
	return nil
}

// Step 2: CleanTextStep applies the generic text cleanup to every text cell,
// not just item descriptions.
type CleanTextStep struct{}

func (s *CleanTextStep) Name() string { return "clean text fields" }

func (s *CleanTextStep) Execute(ctx context.Context, state *State) error {
	t := state.Table
	for _, col := range t.Columns() {
		for i := 0; i < t.NumRows(); i++ {
			if cell, ok := t.Get(i, col).(string); ok {
				t.Set(i, col, CleanText(cell))
			}
		}
	}
	return nil
}

// Step 3: LowercaseColumnsStep normalizes every column name.
type LowercaseColumnsStep struct{}

func (s *LowercaseColumnsStep) Name() string { return "lowercase column names" }

func (s *LowercaseColumnsStep) Execute(ctx context.Context, state *State) error {
	state.Table.RenameAll(strings.ToLower)
	return nil
}

// Step 4: StripUnitTokensStep derives the unit-free description token.
type StripUnitTokensStep struct{}

func (s *StripUnitTokensStep) Name() string { return "strip unit tokens from items" }

func (s *StripUnitTokensStep) Execute(ctx context.Context, state *State) error {
	t := state.Table
	t.AddColumn("item_deduplicado")
	for i := 0; i < t.NumRows(); i++ {
		if item, ok := t.Get(i, "item").(string); ok {
			t.Set(i, "item_deduplicado", StripUnitTokens(item))
		}
	}
	return nil
}

// Step 5: ExtractUnitsStep resolves distinct item descriptions through the
// cached extractor and fans the results out to every row sharing the
// description. Rows whose description stays unresolved this run read as
// Desconhecido / null / 0.
type ExtractUnitsStep struct{}

func (s *ExtractUnitsStep) Name() string { return "extract units and quantities" }

func (s *ExtractUnitsStep) Execute(ctx context.Context, state *State) error {
	t := state.Table

	var descriptions []string
	for i := 0; i < t.NumRows(); i++ {
		if item, ok := t.Get(i, "item").(string); ok {
			descriptions = append(descriptions, item)
		}
	}

	batch := &extract.Batch{
		Extractor:  state.Extractor,
		Cache:      state.Cache,
		Workers:    state.Workers,
		DailyLimit: state.DailyLimit,
	}
	if _, err := batch.Run(ctx, descriptions); err != nil {
		return err
	}

	t.AddColumn("unidade_item")
	t.AddColumn("quantidade_item")
	t.AddColumn("confident")
	for i := 0; i < t.NumRows(); i++ {
		item, _ := t.Get(i, "item").(string)
		entry, ok := state.Cache.Get(item)
		if !ok {
			entry = extract.Placeholder()
		}
		t.Set(i, "unidade_item", entry.UnitOrUnknown())
		if entry.Quantity != nil {
			t.Set(i, "quantidade_item", *entry.Quantity)
		} else {
			t.Set(i, "quantidade_item", nil)
		}
		t.Set(i, "confident", entry.Confidence)
	}
	return nil
}

// Step 6: AssignSurrogateStep indexes distinct invoice header tuples.
type AssignSurrogateStep struct{}

func (s *AssignSurrogateStep) Name() string { return "assign invoice surrogate keys" }

func (s *AssignSurrogateStep) Execute(ctx context.Context, state *State) error {
	state.surrogates = AssignSurrogates(state.Table)
	return nil
}

// Step 7: ComposeInvoiceIDStep assembles id_nota_fiscal from the document
// number, issue date, truncated total and surrogate.
type ComposeInvoiceIDStep struct{}

func (s *ComposeInvoiceIDStep) Name() string { return "compose invoice IDs" }

func (s *ComposeInvoiceIDStep) Execute(ctx context.Context, state *State) error {
	t := state.Table
	if state.surrogates == nil {
		return fmt.Errorf("surrogate keys not assigned")
	}
	t.AddColumn("id_nota_fiscal")
	for i := 0; i < t.NumRows(); i++ {
		t.Set(i, "id_nota_fiscal", CompositeID(t, i, state.surrogates[i]))
	}
	return nil
}
