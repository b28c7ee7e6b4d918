package prompt

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

var _ domain.Advisor = Heuristic{}

// Heuristic drafts a diagnosis from keyword rules. Used when no model is
// configured; it never calls out.
type Heuristic struct{}

type rule struct {
	keywords []string
	text     string
}

var rules = []rule{
	{[]string{"setor", "sector", "bad block"}, "Setores defeituosos identificados na superfície. Recomenda-se clonagem setor por setor com equipamento especializado antes de qualquer tentativa de reparo lógico."},
	{[]string{"firmware", "controlador", "controller"}, "Falha de firmware no controlador impedindo o acesso à tabela de alocação. Requer leitura e reprogramação do firmware com ferramenta compatível."},
	{[]string{"conector", "connector", "usb", "solda"}, "Conector danificado com possível comprometimento das trilhas da placa. Necessário reparo da solda e teste de continuidade antes da leitura dos dados."},
	{[]string{"cabeça", "head", "clique", "click"}, "Ruído mecânico indicando falha no conjunto de cabeças de leitura. A substituição deve ser feita em sala limpa com peça doadora compatível."},
	{[]string{"partição", "partition", "formata", "format", "exclu", "delet"}, "Estrutura lógica comprometida. Recomenda-se varredura completa da mídia em modo somente leitura para reconstrução das partições e arquivos."},
	{[]string{"curto", "short", "queim", "burn", "tvs"}, "Indícios de curto-circuito na placa eletrônica. Verificar diodos de proteção e componentes de alimentação antes de energizar a unidade novamente."},
}

var byCategory = map[domain.Category]string{
	domain.CategoryLogical:    "Falha lógica sem dano físico aparente. Recomenda-se criar imagem da mídia e trabalhar apenas sobre a cópia.",
	domain.CategoryPhysical:   "Dano físico na unidade. Evitar novas energizações até inspeção mecânica completa.",
	domain.CategoryElectronic: "Falha eletrônica na placa controladora. Necessária inspeção de componentes e do firmware.",
}

// SuggestAnalysis implements domain.Advisor.
func (Heuristic) SuggestAnalysis(ctx context.Context, f domain.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	haystack := strings.ToLower(f.DamageType + " " + f.Analysis)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(haystack, k) {
				return fmt.Sprintf("%s: %s", f.Device, r.text), nil
			}
		}
	}
	if text, ok := byCategory[f.Category]; ok {
		return fmt.Sprintf("%s: %s", f.Device, text), nil
	}
	return "", fmt.Errorf("no rule for category %q", f.Category)
}
