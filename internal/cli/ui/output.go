package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"byproduct-catalog/internal/model"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	successColor.Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	errorColor.Printf("✗ %s\n", fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	warningColor.Printf("⚠ %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	infoColor.Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}

// PrintErrorBox prints an error message in a box
func PrintErrorBox(title, content string) {
	fmt.Println(Styles.ErrorBox.Render(errorColor.Sprint(title) + "\n\n" + content))
}

// WriteProducts prints one line per product summary.
func WriteProducts(w io.Writer, products []model.ProductSummary) {
	if len(products) == 0 {
		dimColor.Fprintln(w, "  no products match")
		return
	}
	for _, p := range products {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			boldColor.Sprint(p.Title),
			dimColor.Sprint(p.ID),
			infoColor.Sprint(p.WeightLabel))
		if p.Description != "" {
			fmt.Fprintf(w, "    %s\n", truncate(p.Description, 96))
		}
	}
}

// WriteFacetOptions prints the available facet values, marking the selected ones.
func WriteFacetOptions(w io.Writer, options []model.FacetOption, q model.SearchQuery) {
	for _, opt := range options {
		if len(opt.Values) == 0 {
			continue
		}
		names := make([]string, 0, len(opt.Values))
		for _, v := range opt.Values {
			label := fmt.Sprintf("%s (%s)", v.Name, v.ID)
			if q.IsSelected(opt.Key, v.ID) {
				label = successColor.Sprint("[x] " + label)
			}
			names = append(names, label)
		}
		fmt.Fprintf(w, "  %s %s: %s\n",
			boldColor.Sprint(opt.Key.Label()),
			dimColor.Sprintf("--facet %s=", opt.Key),
			strings.Join(names, ", "))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
