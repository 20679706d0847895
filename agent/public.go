package agent

import (
	"context"
	"fmt"

	"github.com/lendscope/lendscope"
	"github.com/lendscope/lendscope/docs"
	"github.com/lendscope/lendscope/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is a portfolio or risk manager of a commercial lending book. He is here primarily
			to understand the delinquency, pricing and client health of his portfolio.

			Devise a plan of questions to ask each expert and come up with the best response to the
			user's request. The user will assume that you looked at his loan book first.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewRiskAnalyst returns the expert in charge of the loan book stored in
// the given folder. Its tools recompute reports on demand, so its answers
// always reflect the current snapshot.
func NewRiskAnalyst(folder, currency string) *Expert {
	lib := bookFunctions(folder, currency)

	return &Expert{
		Name: "RiskAnalyst",
		Description: `This is the risk analyst. He is in charge of reading the user's loan book.
		He can compute the full risk report, the loan aging, the client lifecycle census and
		pricing lookups for any reference date.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a credit risk analyst in charge of the user's commercial lending book.
				You know how to use the Tools to compute delinquency, KPIs, pricing and client
				lifecycle figures. You are part of a team of experts, yours is everything about
				the loan book itself. Pardon their approximative language and figure out what
				they meant.

				Reference documentation about the figures you produce:

			` + must(docs.Topics("dpd", "kpis", "lifecycle"))}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Exec func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Exec(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

const dateArgDoc = `The reference date, in YYYY-MM-DD format or relative like "-1m" for
a month ago. Today is the default.`

// bookFunctions binds the report tools to one book folder.
func bookFunctions(folder, currency string) []Function {
	report := func(args map[string]any) (*lendscope.PortfolioReport, error) {
		date, err := parseDate(args)
		if err != nil {
			return nil, err
		}
		snapshot, err := lendscope.LoadSnapshot(folder)
		if err != nil {
			return nil, err
		}
		policies, err := lendscope.LoadPolicies(folder, currency)
		if err != nil {
			return nil, err
		}
		return lendscope.NewPortfolioReport(snapshot, policies, date)
	}

	render := func(name, id string, args map[string]any, f func(*lendscope.PortfolioReport) string) *genai.FunctionResponse {
		r, err := report(args)
		if err != nil {
			return &genai.FunctionResponse{
				ID:   id,
				Name: name,
				Response: map[string]any{
					"error": err.Error(),
				},
			}
		}
		return &genai.FunctionResponse{
			ID:   id,
			Name: name,
			Response: map[string]any{
				"output": f(r),
			},
		}
	}

	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Report",
				Description: `Report computes the full portfolio risk report: KPIs, delinquency, tenor mix, concentration, client lifecycle and exceptions.`,
				Parameters:  dateParams(),
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown-formatted risk report.",
				},
			},
			Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return render("Report", id, args, renderer.ReportMarkdown)
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Aging",
				Description: `Aging lists every loan with its days past due, past due amount and aging bucket.`,
				Parameters:  dateParams(),
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown-formatted per-loan aging table.",
				},
			},
			Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return render("Aging", id, args, func(r *lendscope.PortfolioReport) string {
					return renderer.AgingMarkdown(r.ReferenceDate, r.Loans)
				})
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Lifecycle",
				Description: `Lifecycle classifies every client as new, recurring, recovered or churned.`,
				Parameters:  dateParams(),
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown-formatted client lifecycle census.",
				},
			},
			Exec: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				return render("Lifecycle", id, args, func(r *lendscope.PortfolioReport) string {
					return renderer.LifecycleMarkdown(r.Clients, true)
				})
			},
		},
	}
}

func dateParams() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date": {
				Type:        genai.TypeString,
				Description: dateArgDoc,
			},
		},
	}
}

func parseDate(args map[string]any) (lendscope.Date, error) {
	idate, hasDate := args["date"]
	if !hasDate {
		return lendscope.Today(), nil
	}
	sdate, ok := idate.(string)
	if !ok {
		return lendscope.Today(), fmt.Errorf("argument 'date' is not a string as expected but %T", idate)
	}
	date, err := lendscope.ParseDate(sdate)
	if err != nil {
		return lendscope.Today(), fmt.Errorf("argument 'date' must be a valid date, got %q: %w", sdate, err)
	}
	return date, nil
}
