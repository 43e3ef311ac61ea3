package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"dossier/internal/dossier/models"
	"dossier/internal/storage/registry"
	"dossier/pkg/domain"
	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/platform/sentinel"
	pstrings "dossier/pkg/platform/strings"
)

// Branch names, as reported in CompositeRecord.Unavailable.
const (
	BranchEmails          = "emails"
	BranchPhones          = "phones"
	BranchAddresses       = "addresses"
	BranchScore           = "score"
	BranchIncomeTax       = "irpf"
	BranchPIS             = "pis"
	BranchProfession      = "profession"
	BranchEducation       = "education"
	BranchElectoral       = "electoral"
	BranchRelatives       = "relatives"
	BranchPurchasingPower = "purchasing_power"
)

var branchStore = map[string]string{
	BranchEmails:          registry.StoreEmails,
	BranchPhones:          registry.StorePhoneHistory,
	BranchAddresses:       registry.StoreAddresses,
	BranchScore:           registry.StoreScore,
	BranchIncomeTax:       registry.StoreIncomeTax,
	BranchPIS:             registry.StorePIS,
	BranchProfession:      registry.StoreProfession,
	BranchEducation:       registry.StoreUniversity,
	BranchElectoral:       registry.StoreElectoral,
	BranchRelatives:       registry.StoreRelatives,
	BranchPurchasingPower: registry.StorePurchasingPower,
}

// aggregate resolves the contact id, then fans out over the auxiliary stores.
// Branch failures never fail the aggregate; only the primary lookup can.
func (s *Service) aggregate(ctx context.Context, cpf domain.CPF) (*models.CompositeRecord, error) {
	basic, err := s.lookups.Basic(ctx, cpf)
	if err != nil {
		return nil, s.primaryError(ctx, err)
	}

	rec := &models.CompositeRecord{Basic: *basic}
	id := basic.ContactID

	var (
		g           errgroup.Group
		mu          sync.Mutex
		unavailable []string
	)
	g.SetLimit(s.fanOutLimit)

	branch := func(name string, fetch func(ctx context.Context) error) {
		g.Go(func() error {
			start := time.Now()
			bctx, span := s.tracer.Start(ctx, "dossier.branch."+name)
			defer span.End()

			err := fetch(bctx)
			elapsed := time.Since(start)
			if err == nil {
				s.metrics.ObserveBranch(name, "ok", elapsed)
				return nil
			}

			mu.Lock()
			unavailable = append(unavailable, name)
			mu.Unlock()

			s.metrics.ObserveBranch(name, "unavailable", elapsed)
			span.RecordError(err)
			span.SetStatus(codes.Error, "unavailable")
			span.SetAttributes(attribute.String("store", branchStore[name]))
			s.logger.WarnContext(ctx, "store lookup failed, leaving branch empty",
				"branch", name,
				"store", branchStore[name],
				"contact_id", id,
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
			// branch errors never cancel siblings
			return nil
		})
	}

	branch(BranchEmails, func(ctx context.Context) error {
		v, err := s.lookups.Emails(ctx, id)
		if err != nil {
			return err
		}
		rec.Contacts.Emails = orEmpty(pstrings.SortedSet(pstrings.DedupeAndTrimLower(v)))
		return nil
	})
	branch(BranchPhones, func(ctx context.Context) error {
		v, err := s.lookups.Phones(ctx, id)
		if err != nil {
			return err
		}
		rec.Contacts.Phones = orEmpty(pstrings.SortedSet(pstrings.DedupeDigits(v)))
		return nil
	})
	if s.addresses != nil {
		branch(BranchAddresses, func(ctx context.Context) error {
			v, err := s.addresses.Addresses(ctx, id)
			if err != nil {
				return err
			}
			rec.Addresses = v
			return nil
		})
	}
	branch(BranchScore, func(ctx context.Context) error {
		v, err := s.lookups.Score(ctx, id)
		if err == nil {
			rec.Financial.Score = v
		}
		return err
	})
	branch(BranchIncomeTax, func(ctx context.Context) error {
		v, err := s.lookups.IncomeTax(ctx, id)
		if err == nil {
			rec.Financial.IncomeTax = v
		}
		return err
	})
	branch(BranchPurchasingPower, func(ctx context.Context) error {
		v, err := s.lookups.PurchasingPower(ctx, id)
		if err == nil {
			rec.Financial.PurchasingPower = v
		}
		return err
	})
	branch(BranchPIS, func(ctx context.Context) error {
		v, err := s.lookups.PIS(ctx, id)
		if err == nil {
			rec.Professional.PIS = v
		}
		return err
	})
	branch(BranchProfession, func(ctx context.Context) error {
		v, err := s.lookups.Profession(ctx, id)
		if err == nil {
			rec.Professional.Profession = v
		}
		return err
	})
	branch(BranchEducation, func(ctx context.Context) error {
		v, err := s.lookups.Education(ctx, id)
		if err == nil {
			rec.Education = v
		}
		return err
	})
	branch(BranchElectoral, func(ctx context.Context) error {
		v, err := s.lookups.Electoral(ctx, id)
		if err == nil {
			rec.Electoral = v
		}
		return err
	})
	branch(BranchRelatives, func(ctx context.Context) error {
		v, err := s.lookups.Relatives(ctx, cpf)
		if err == nil {
			rec.Relatives = v
		}
		return err
	})

	_ = g.Wait()

	sort.Strings(unavailable)
	rec.Unavailable = unavailable
	return rec, nil
}

// primaryError classifies a failed primary lookup. Without the contact id no
// branch can run, so this is the one store failure a caller sees.
func (s *Service) primaryError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "cpf not found")
	case dErrors.HasCode(err, dErrors.CodeRouting):
		return err
	case ctx.Err() != nil:
		// the tracker turns this into Timeout or Cancelled
		return ctx.Err()
	default:
		s.logger.ErrorContext(ctx, "primary store lookup failed",
			"store", registry.StoreContacts,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "primary store unavailable")
	}
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
