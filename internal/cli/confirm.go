package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// promptConfirmer asks on out and reads one line from in. Anything but an
// explicit yes declines.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(ctx context.Context, a domain.Analysis) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	what := string(a.ID)
	if a.Device != "" {
		what = fmt.Sprintf("%s (%s)", a.Device, a.ID)
	}
	fmt.Fprintf(p.out, "Excluir a análise %s? [y/N]: ", what)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true, nil
	default:
		return false, nil
	}
}

// yesConfirmer backs --yes
type yesConfirmer struct{}

func (yesConfirmer) Confirm(context.Context, domain.Analysis) (bool, error) { return true, nil }
