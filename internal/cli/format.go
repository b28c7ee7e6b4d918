package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	appanalyses "github.com/bryanwahyu/repair-analysis/internal/application/analyses"
	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// record is the printable form of an analysis
type record struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Device     string `json:"device" yaml:"device"`
	DamageType string `json:"damage_type" yaml:"damage_type"`
	Analysis   string `json:"analysis" yaml:"analysis"`
	Category   string `json:"category" yaml:"category"`
	Severity   string `json:"severity" yaml:"severity"`
}

type listing struct {
	Tab         string         `json:"tab" yaml:"tab"`
	Search      string         `json:"search,omitempty" yaml:"search,omitempty"`
	Counts      map[string]int `json:"counts" yaml:"counts"`
	Records     []record       `json:"records" yaml:"records"`
	RefreshedAt *time.Time     `json:"refreshed_at,omitempty" yaml:"refreshed_at,omitempty"`
}

func toRecord(a domain.Analysis) record {
	return record{
		ID:         string(a.ID),
		Device:     a.Device,
		DamageType: a.DamageType,
		Analysis:   a.Analysis,
		Category:   string(a.Category),
		Severity:   string(a.Severity),
	}
}

func toListing(st appanalyses.State) listing {
	l := listing{
		Tab:         string(st.Tab),
		Search:      st.Search,
		Counts:      map[string]int{},
		Records:     make([]record, 0, len(st.Visible)),
		RefreshedAt: st.RefreshedAt,
	}
	for _, c := range domain.Categories {
		l.Counts[string(c)] = st.Counts[c]
	}
	for _, a := range st.Visible {
		l.Records = append(l.Records, toRecord(a))
	}
	return l
}

// DisplayState writes the visible records of st in format (human, json, yaml).
func DisplayState(w io.Writer, st appanalyses.State, format string) error {
	switch format {
	case "json":
		return displayJSON(w, toListing(st))
	case "yaml":
		return displayYAML(w, toListing(st))
	case "human", "":
		displayHuman(w, st)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (human, json, yaml)", format)
	}
}

// DisplayRecord writes a single record.
func DisplayRecord(w io.Writer, a domain.Analysis, format string) error {
	switch format {
	case "json":
		return displayJSON(w, toRecord(a))
	case "yaml":
		return displayYAML(w, toRecord(a))
	case "human", "":
		printRecord(w, 0, a)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (human, json, yaml)", format)
	}
}

func displayJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayYAML(w io.Writer, v any) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func displayHuman(w io.Writer, st appanalyses.State) {
	cyan := color.New(color.FgCyan, color.Bold)

	// tab header, the selected one highlighted
	tabs := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		label := fmt.Sprintf("%s (%d)", c.Label(), st.Counts[c])
		if c == st.Tab {
			label = cyan.Sprintf("[%s]", label)
		}
		tabs = append(tabs, label)
	}
	fmt.Fprintln(w, strings.Join(tabs, "  "))
	if st.Search != "" {
		fmt.Fprintf(w, "Busca: %q\n", st.Search)
	}
	fmt.Fprintln(w)

	switch {
	case st.Loading:
		fmt.Fprintln(w, color.HiBlackString("Carregando..."))
	case len(st.Visible) == 0:
		fmt.Fprintln(w, color.HiBlackString("Nenhuma análise encontrada."))
	default:
		for i, a := range st.Visible {
			printRecord(w, i+1, a)
		}
	}

	if st.LastError != "" {
		fmt.Fprintln(w, color.RedString("✗ %s", st.LastError))
	}
}

func printRecord(w io.Writer, n int, a domain.Analysis) {
	white := color.New(color.FgWhite, color.Bold)
	prefix := ""
	if n > 0 {
		prefix = fmt.Sprintf("%d. ", n)
	}
	white.Fprintf(w, "%s%s", prefix, a.Device)
	fmt.Fprintf(w, " %s\n", severityColor(a.Severity).Sprint(strings.ToUpper(string(a.Severity))))
	if a.DamageType != "" {
		fmt.Fprintf(w, "   Tipo: %s\n", a.DamageType)
	}
	fmt.Fprintln(w, wrapText(a.Analysis, 80, "   "))
	if a.ID != "" {
		fmt.Fprintf(w, "   %s\n", color.HiBlackString("id: %s", a.ID))
	}
	fmt.Fprintln(w)
}

func severityColor(s domain.Severity) *color.Color {
	switch s {
	case domain.SeverityComplex:
		return color.New(color.FgRed, color.Bold)
	case domain.SeverityModerate:
		return color.New(color.FgYellow)
	case domain.SeveritySimple:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

func wrapText(text string, width int, indent string) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := indent
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				result.WriteString(currentLine + "\n")
				currentLine = indent + word
			} else if currentLine == indent {
				currentLine += word
			} else {
				currentLine += " " + word
			}
		}

		if currentLine != indent {
			result.WriteString(currentLine + "\n")
		}
	}

	return strings.TrimSuffix(result.String(), "\n")
}

func printSuccess(w io.Writer, msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(w, "✓ %s\n", msg)
}
