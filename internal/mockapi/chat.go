package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"byproduct-catalog/internal/model"
)

const maxChatContext = 3

// retrieve ranks products by how many question words they mention and keeps
// the best maxChatContext of them.
func retrieve(products []model.Product, question string) []model.Product {
	words := questionWords(question)
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		p     model.Product
		score int
	}
	var hits []scored
	for _, p := range products {
		text := strings.ToLower(productText(p))
		score := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{p: p, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > maxChatContext {
		hits = hits[:maxChatContext]
	}
	out := make([]model.Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.p)
	}
	return out
}

// questionWords lowercases question and keeps words of three letters or more.
func questionWords(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	for _, f := range fields {
		if len([]rune(f)) >= 3 {
			out = append(out, f)
		}
	}
	return out
}

func productText(p model.Product) string {
	parts := []string{p.ProductName, p.FeaturesDesc}
	for _, a := range p.Applications {
		parts = append(parts, a.ApplicationName)
	}
	for _, i := range p.Ingredients {
		parts = append(parts, i.IngredientsName)
	}
	for _, h := range p.Healthclaims {
		parts = append(parts, h.HealthclaimName)
	}
	return strings.Join(parts, " ")
}

// composeAnswer writes a short markdown answer from the retrieved products.
func composeAnswer(question string, found []model.Product) string {
	if len(found) == 0 {
		return fmt.Sprintf("Thank you for asking about \"%s\". We're sorry, we don't currently carry a matching product. "+
			"Please try another keyword or browse our **upcycled ingredients** catalog for alternatives.",
			strings.TrimSpace(question))
	}

	var b strings.Builder
	b.WriteString("We recommend ")
	for i, p := range found {
		switch {
		case i > 0 && i == len(found)-1:
			b.WriteString(" and ")
		case i > 0:
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "[%s](/products/%s)", p.ProductName, p.ProductID)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "**%s**: %s", found[0].ProductName, found[0].FeaturesDesc)
	return b.String()
}

// fragments splits answer on word boundaries and groups the pieces so that
// every fragment but the last is longer than three bytes.
func fragments(answer string) []string {
	var out []string
	var buf strings.Builder
	for _, piece := range strings.SplitAfter(answer, " ") {
		buf.WriteString(piece)
		if buf.Len() > 3 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}
