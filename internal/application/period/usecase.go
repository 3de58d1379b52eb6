// Package period implementa el guardián de períodos fiscales: decide qué
// meses contables siguen aceptando movimientos y ejecuta el cierre.
package period

import (
	"context"
	"time"

	"github.com/tu-usuario/kardex-core/internal/domain"
	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
	"github.com/tu-usuario/kardex-core/pkg/logger"
)

// TxRunner ejecuta una función con repositorios de períodos atados a una
// transacción. El cierre del período vigente debe crear y activar el
// siguiente de forma atómica (exactamente un período vigente siempre).
type TxRunner interface {
	RunPeriods(ctx context.Context, fn func(
		periodRepo repository.PeriodRepository,
		configRepo repository.FiscalConfigRepository,
	) error) error
}

// Defaults valores de arranque para el primer EnsureCurrent.
type Defaults struct {
	LockAfterPeriods   int
	AllowNegativeStock bool
}

// GuardUseCase casos de uso de períodos fiscales.
type GuardUseCase struct {
	txRunner   TxRunner
	periodRepo repository.PeriodRepository
	configRepo repository.FiscalConfigRepository
	defaults   Defaults
	log        *logger.Logger
}

// NewGuardUseCase construye el guardián.
func NewGuardUseCase(
	txRunner TxRunner,
	periodRepo repository.PeriodRepository,
	configRepo repository.FiscalConfigRepository,
	defaults Defaults,
	log *logger.Logger,
) *GuardUseCase {
	return &GuardUseCase{
		txRunner:   txRunner,
		periodRepo: periodRepo,
		configRepo: configRepo,
		defaults:   defaults,
		log:        log,
	}
}

// EnsureCurrent arranque en frío: crea la configuración fiscal y el
// período del mes calendario presente si todavía no existen. Idempotente.
func (uc *GuardUseCase) EnsureCurrent(ctx context.Context) error {
	return uc.txRunner.RunPeriods(ctx, func(
		periodRepo repository.PeriodRepository,
		configRepo repository.FiscalConfigRepository,
	) error {
		cfg, err := configRepo.Get(ctx)
		if err != nil {
			return err
		}
		if cfg == nil {
			now := time.Now()
			cfg = &entity.FiscalConfig{
				LockAfterPeriods:   uc.defaults.LockAfterPeriods,
				PeriodType:         "monthly",
				AllowNegativeStock: uc.defaults.AllowNegativeStock,
				UpdatedAt:          now,
			}
			if err := configRepo.Save(ctx, cfg); err != nil {
				return err
			}
		}

		current, err := periodRepo.GetCurrent(ctx)
		if err != nil {
			return err
		}
		if current != nil {
			return nil
		}
		now := time.Now().UTC()
		p := entity.NewFiscalPeriod(now.Year(), int(now.Month()), true, now)
		if err := periodRepo.Create(ctx, p); err != nil {
			return err
		}
		uc.log.Info().Str("period_id", p.ID).Msg("período fiscal inicial creado")
		return nil
	})
}

// Current devuelve el período vigente.
func (uc *GuardUseCase) Current(ctx context.Context) (*entity.FiscalPeriod, error) {
	p, err := uc.periodRepo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrPeriodNotFound
	}
	return p, nil
}

// CurrentID devuelve el ID del período vigente (puerto ledger.PeriodGuard).
func (uc *GuardUseCase) CurrentID(ctx context.Context) (string, error) {
	p, err := uc.Current(ctx)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// CheckEditable retorna nil si el período acepta mutaciones:
// existe, no está cerrado ni bloqueado, y su distancia en meses hacia atrás
// respecto del vigente no supera lock_after_periods. Un período futuro
// siempre es editable bajo esta regla.
func (uc *GuardUseCase) CheckEditable(ctx context.Context, periodID string) error {
	p, err := uc.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrPeriodNotFound
	}
	if p.Status != entity.PeriodStatusOpen {
		return domain.ErrPeriodClosed
	}
	current, err := uc.periodRepo.GetCurrent(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrPeriodNotFound
	}
	cfg, err := uc.configRepo.Get(ctx)
	if err != nil {
		return err
	}
	lockAfter := uc.defaults.LockAfterPeriods
	if cfg != nil {
		lockAfter = cfg.LockAfterPeriods
	}
	if current.MonthIndex()-p.MonthIndex() > lockAfter {
		return domain.ErrPeriodClosed
	}
	return nil
}

// IsEditable variante booleana de CheckEditable para la superficie de consulta.
func (uc *GuardUseCase) IsEditable(ctx context.Context, periodID string) (bool, error) {
	err := uc.CheckEditable(ctx, periodID)
	switch {
	case err == nil:
		return true, nil
	case err == domain.ErrPeriodNotFound || err == domain.ErrPeriodClosed:
		return false, nil
	default:
		return false, err
	}
}

// ClosePeriod cierra un período abierto y registra actor y fecha. Si el
// período cerrado era el vigente, en la misma transacción apaga is_current
// y crea (idempotentemente) el mes calendario siguiente como nuevo período
// vigente y abierto. Invariante: exactamente un período vigente después de
// cualquier cierre exitoso.
func (uc *GuardUseCase) ClosePeriod(ctx context.Context, periodID, actorID string) error {
	err := uc.txRunner.RunPeriods(ctx, func(
		periodRepo repository.PeriodRepository,
		configRepo repository.FiscalConfigRepository,
	) error {
		p, err := periodRepo.GetByID(ctx, periodID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrPeriodNotFound
		}
		if p.Status != entity.PeriodStatusOpen {
			return domain.ErrPeriodNotOpen
		}

		now := time.Now()
		wasCurrent := p.IsCurrent
		p.Status = entity.PeriodStatusClosed
		p.IsCurrent = false
		p.ClosedBy = actorID
		p.ClosedAt = &now
		if err := periodRepo.Update(ctx, p); err != nil {
			return err
		}

		if !wasCurrent {
			return nil
		}
		year, month := p.NextPeriod()
		next, err := periodRepo.GetByID(ctx, entity.PeriodID(year, month))
		if err != nil {
			return err
		}
		if next == nil {
			return periodRepo.Create(ctx, entity.NewFiscalPeriod(year, month, true, now))
		}
		next.IsCurrent = true
		return periodRepo.Update(ctx, next)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("period_id", periodID).Str("closed_by", actorID).Msg("período fiscal cerrado")
	return nil
}

// LockPeriod congela administrativamente un período abierto (terminal).
// El período vigente no se puede bloquear: quedaría el sistema sin período
// editable por defecto; hay que cerrarlo para avanzar al siguiente.
func (uc *GuardUseCase) LockPeriod(ctx context.Context, periodID, actorID string) error {
	err := uc.txRunner.RunPeriods(ctx, func(
		periodRepo repository.PeriodRepository,
		configRepo repository.FiscalConfigRepository,
	) error {
		p, err := periodRepo.GetByID(ctx, periodID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrPeriodNotFound
		}
		if p.Status != entity.PeriodStatusOpen {
			return domain.ErrPeriodNotOpen
		}
		if p.IsCurrent {
			return domain.ErrInvalidInput
		}
		now := time.Now()
		p.Status = entity.PeriodStatusLocked
		p.ClosedBy = actorID
		p.ClosedAt = &now
		return periodRepo.Update(ctx, p)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("period_id", periodID).Str("locked_by", actorID).Msg("período fiscal bloqueado")
	return nil
}

// List lista períodos fiscales.
func (uc *GuardUseCase) List(ctx context.Context, limit, offset int) ([]*entity.FiscalPeriod, error) {
	return uc.periodRepo.List(ctx, limit, offset)
}

// GetConfig devuelve la configuración fiscal vigente.
func (uc *GuardUseCase) GetConfig(ctx context.Context) (*entity.FiscalConfig, error) {
	cfg, err := uc.configRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

// UpdateConfig actualiza la configuración fiscal (ajustes).
func (uc *GuardUseCase) UpdateConfig(ctx context.Context, cfg *entity.FiscalConfig) error {
	if cfg.LockAfterPeriods < 0 {
		return domain.ErrInvalidInput
	}
	if cfg.PeriodType == "" {
		cfg.PeriodType = "monthly"
	}
	cfg.UpdatedAt = time.Now()
	return uc.configRepo.Save(ctx, cfg)
}
