package symbols

import (
	"sort"

	"github.com/sirupsen/logrus"

	domain "refdatasync/internal/domain/entity/refdata"
)

// Reconciler diffs an exchange listing against the persisted symbols of the
// same exchange.
type Reconciler struct {
	log   *logrus.Entry
	codes domain.StateCodes
}

func NewReconciler(log *logrus.Logger, codes domain.StateCodes) *Reconciler {
	return &Reconciler{
		log:   log.WithField("component", "symbol_reconciler"),
		codes: codes,
	}
}

// Reconcile returns the incoming symbols missing from existing whose assets
// are all known, plus the ones rejected for an unknown asset. Both slices are
// ordered by pair code. knownAssets must already reflect the assets persisted
// in this run.
func (r *Reconciler) Reconcile(existing, incoming map[string]*domain.Symbol, knownAssets map[string]struct{}) ([]*domain.Symbol, []domain.Rejection) {
	var (
		toInsert []*domain.Symbol
		rejected []domain.Rejection
	)
	for _, pairCode := range sortedPairCodes(incoming) {
		if _, ok := existing[pairCode]; ok {
			continue
		}
		sym := incoming[pairCode]
		if sym == nil {
			continue
		}
		if missing := sym.MissingAssets(knownAssets); len(missing) > 0 {
			r.log.WithFields(logrus.Fields{
				"pair_code":      pairCode,
				"missing_assets": missing,
			}).Warn("symbol rejected")
			rejected = append(rejected, domain.Rejection{
				PairCode:      pairCode,
				Symbol:        sym.Name(),
				Reason:        domain.ErrReferentialIntegrity.Error(),
				MissingAssets: missing,
			})
			continue
		}
		toInsert = append(toInsert, sym)
	}
	return toInsert, rejected
}

// Audit proposes a lifecycle transition for every live persisted symbol that
// no longer appears in incoming. Symbols already delisted are left alone.
func (r *Reconciler) Audit(existing, incoming map[string]*domain.Symbol) []domain.Transition {
	var transitions []domain.Transition
	for _, pairCode := range sortedPairCodes(existing) {
		if _, ok := incoming[pairCode]; ok {
			continue
		}
		sym := existing[pairCode]
		if sym == nil || !r.codes.IsLive(sym.Live) {
			continue
		}
		target := r.codes.DeactivationTarget(sym.InstrumentType)
		transitions = append(transitions, domain.Transition{
			InstrumentID:   sym.InstrumentID,
			PairCode:       pairCode,
			InstrumentType: sym.InstrumentType,
			From:           sym.Live,
			To:             target,
			Label:          r.codes.Label(target),
		})
	}
	return transitions
}

func sortedPairCodes(set map[string]*domain.Symbol) []string {
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
