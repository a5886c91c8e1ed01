package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"ordersense/internal/domain"
	"ordersense/internal/llm"
)

// Planner turns a natural-language question into a validated query plan.
// It never fails: any malformed model output degrades to the default
// plan.
type Planner struct {
	oracle llm.Oracle
	logger *slog.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(oracle llm.Oracle, logger *slog.Logger) *Planner {
	return &Planner{oracle: oracle, logger: logger}
}

const planPromptTemplate = `Jsi analytický asistent nad tabulkou objednávek.

%s
Přelož dotaz uživatele na JSON popis dotazu. Odpověz JEDNÍM JSON objektem:
{"select": "*" nebo ["sloupec", ...],
 "filters": [{"column": "...", "operator": "eq|gt|gte|lt|lte|like|ilike", "value": "..."}],
 "order": {"column": "...", "ascending": true/false} nebo null,
 "random": true/false,
 "limit": číslo,
 "aggregation": null nebo {"type": "count|countDistinct|sum|avg", "column": "...", "groupBy": "..." nebo ""}}

Pravidla:
- "kolik objednávek" = countDistinct na sloupci code (jedna objednávka může mít více řádků). "Kolik řádků/položek" = count.
- "největší/nejdražší" = order podle total_price sestupně; "nejmenší/nejlevnější" = vzestupně.
- "náhodný/náhodné" = "random": true.
- Rok 2024 = dva filtry na order_date: gte "2024-01-01" a lte "2024-12-31".
- U operátorů like/ilike obal hodnotu znaky %%.
- Sloupec raw_data nikdy nepoužívej.
- Hodnoty filtrů piš jako řetězce.`

// Plan asks the model for a structured plan for the question. On any
// extraction or parse failure the default plan is returned, never an
// error.
func (p *Planner) Plan(ctx context.Context, question string, schema SchemaDescription) domain.Plan {
	system := fmt.Sprintf(planPromptTemplate, schema.Text())

	text, err := p.oracle.Complete(ctx, system, question)
	if err != nil {
		p.logger.Warn("planner model call failed, using default plan", "error", err)
		return domain.DefaultPlan()
	}

	obj, ok := extractJSONObject(text)
	if !ok {
		p.logger.Warn("planner response contained no JSON object, using default plan")
		return domain.DefaultPlan()
	}

	plan, err := parsePlan(obj, schema.Source)
	if err != nil {
		p.logger.Warn("planner response unparseable, using default plan", "error", err)
		return domain.DefaultPlan()
	}
	return plan
}

// extractJSONObject returns the first balanced {...} substring of text.
// Models routinely prepend commentary before the object they were asked
// for, so a plain json.Unmarshal of the whole response is not enough.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parsePlan decodes the extracted object and validates it into a Plan.
// Anything outside the closed enumerations is dropped rather than
// trusted: a filter with an unknown operator or column disappears, an
// unknown aggregation type clears the aggregation.
func parsePlan(obj string, src domain.Source) (domain.Plan, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return domain.Plan{}, fmt.Errorf("decode plan object: %w", err)
	}

	plan := domain.Plan{Limit: domain.DefaultLimit}

	if sel, ok := raw["select"]; ok {
		var star string
		var cols []string
		if err := json.Unmarshal(sel, &cols); err == nil {
			for _, c := range cols {
				if src.HasColumn(c) {
					plan.Select = append(plan.Select, c)
				}
			}
		} else if err := json.Unmarshal(sel, &star); err == nil && star != "*" && src.HasColumn(star) {
			plan.Select = []string{star}
		}
	}

	if f, ok := raw["filters"]; ok {
		var filters []struct {
			Column   string          `json:"column"`
			Operator string          `json:"operator"`
			Value    json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(f, &filters); err == nil {
			for _, rf := range filters {
				op := domain.Operator(rf.Operator)
				if !domain.ValidOperator(op) {
					continue
				}
				if rf.Column == "raw_data" || !src.HasColumn(rf.Column) {
					continue
				}
				plan.Filters = append(plan.Filters, domain.Filter{
					Column: rf.Column,
					Op:     op,
					Value:  scalarString(rf.Value),
				})
			}
		}
	}

	if o, ok := raw["order"]; ok {
		var ord domain.Ordering
		if err := json.Unmarshal(o, &ord); err == nil && ord.Column != "" {
			plan.Order = &ord
		}
	}

	if r, ok := raw["random"]; ok {
		var random bool
		if err := json.Unmarshal(r, &random); err == nil {
			plan.Random = random
		}
	}

	if l, ok := raw["limit"]; ok {
		var limit float64
		if err := json.Unmarshal(l, &limit); err == nil && int(limit) > 0 {
			plan.Limit = int(limit)
		}
	}

	if a, ok := raw["aggregation"]; ok && string(a) != "null" {
		var agg struct {
			Type    string `json:"type"`
			Column  string `json:"column"`
			GroupBy string `json:"groupBy"`
		}
		if err := json.Unmarshal(a, &agg); err == nil {
			t := domain.AggType(agg.Type)
			if domain.ValidAggType(t) && agg.Column != "raw_data" && agg.GroupBy != "raw_data" {
				plan.Aggregation = &domain.Aggregation{
					Type:    t,
					Column:  agg.Column,
					GroupBy: agg.GroupBy,
				}
			}
		}
	}

	return plan, nil
}

// scalarString renders a JSON scalar filter value as a string. Models
// sometimes emit numbers where the store expects text.
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}
