package analyses

import (
	"context"
	"errors"

	domain "github.com/bryanwahyu/repair-analysis/internal/domain/analyses"
)

// SampleAnalyses are the reference records shipped with the tool.
func SampleAnalyses() []domain.Fields {
	return []domain.Fields{
		{
			Device:     "HD Seagate 2TB",
			DamageType: "Falha de Setores",
			Analysis:   "Múltiplos setores defeituosos identificados. Necessária recuperação setor por setor com equipamento especializado.",
			Category:   domain.CategoryLogical,
			Severity:   domain.SeverityComplex,
		},
		{
			Device:     "SSD Kingston 500GB",
			DamageType: "Corrupção de Firmware",
			Analysis:   "Firmware apresentando falhas na tabela de alocação. Requer reprogramação do controlador.",
			Category:   domain.CategoryElectronic,
			Severity:   domain.SeverityModerate,
		},
		{
			Device:     "Pendrive Sandisk 32GB",
			DamageType: "Danos Físicos",
			Analysis:   "Conector USB danificado com possível comprometimento da placa. Necessário reparo da solda e recuperação da conexão.",
			Category:   domain.CategoryPhysical,
			Severity:   domain.SeveritySimple,
		},
	}
}

// Seed creates the sample records and refreshes once at the end. It stops at
// the first failing create; records created before it are kept.
func (c *Controller) Seed(ctx context.Context) (int, error) {
	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	created := 0
	for _, f := range SampleAnalyses() {
		if err := c.repo.Create(ctx, f); err != nil {
			var refreshErr error
			if created > 0 {
				refreshErr = c.refreshLocked(ctx)
			}
			createErr := c.ioFailure(ctx, "create", "", err)
			if refreshErr != nil {
				return created, errors.Join(createErr, refreshErr)
			}
			return created, createErr
		}
		created++
		c.notifier.Notify(ctx, domain.Event{Kind: domain.EventCreated})
	}
	return created, c.refreshLocked(ctx)
}
