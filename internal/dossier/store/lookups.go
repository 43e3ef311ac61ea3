package store

import (
	"context"
	"strings"

	"dossier/internal/dossier/models"
	"dossier/internal/storage/pool"
	"dossier/internal/storage/registry"
	"dossier/pkg/domain"
)

// Emails returns the raw non-empty addresses on file for a contact.
func (s *Store) Emails(ctx context.Context, contactID int64) ([]string, error) {
	return s.firstColumn(ctx, registry.StoreEmails, queryEmails, contactID)
}

// Phones returns DDD and number concatenated, as stored.
func (s *Store) Phones(ctx context.Context, contactID int64) ([]string, error) {
	return s.firstColumn(ctx, registry.StorePhoneHistory, queryPhones, contactID)
}

func (s *Store) firstColumn(ctx context.Context, store, q string, contactID int64) ([]string, error) {
	var out []string
	err := s.query(ctx, store, q, []any{contactID}, func(r pool.Row) error {
		if !r.IsNull(0) {
			out = append(out, r.Text(0))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Addresses skips rows without street type or name.
func (s *Store) Addresses(ctx context.Context, contactID int64) ([]models.Address, error) {
	var out []models.Address
	err := s.query(ctx, registry.StoreAddresses, queryAddresses, []any{contactID}, func(r pool.Row) error {
		if r.IsNull(0) || r.IsNull(1) {
			return nil
		}
		out = append(out, models.Address{
			Street:     strings.TrimSpace(r.Text(0) + " " + r.Text(1)),
			Number:     r.Text(2),
			Complement: r.Text(3),
			District:   r.Text(4),
			City:       r.Text(5),
			UF:         r.Text(6),
			ZipCode:    r.Text(7),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Score(ctx context.Context, contactID int64) (*models.Score, error) {
	var out *models.Score
	err := s.query(ctx, registry.StoreScore, queryScore, []any{contactID}, func(r pool.Row) error {
		out = &models.Score{
			CSB8:     r.Text(0),
			CSB8Band: r.Text(1),
			CSBA:     r.Text(2),
			CSBABand: r.Text(3),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type incomeTaxRow struct {
	models.IncomeTax
	version models.Versioned
}

// IncomeTax returns the most recently consulted income-tax row.
func (s *Store) IncomeTax(ctx context.Context, contactID int64) (*models.IncomeTax, error) {
	var rows []incomeTaxRow
	err := s.query(ctx, registry.StoreIncomeTax, queryIncomeTax, []any{contactID}, func(r pool.Row) error {
		rows = append(rows, incomeTaxRow{
			IncomeTax: models.IncomeTax{
				DocNumber:     r.Text(0),
				Bank:          r.Text(1),
				Branch:        r.Text(2),
				Batch:         r.Text(3),
				ReferenceYear: r.Text(4),
				BatchDate:     r.Text(5),
				Status:        r.Text(6),
				ConsultedAt:   r.Text(7),
			},
			version: models.Versioned{IncludedAt: r.Text(7), RowID: r.Int64(8)},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	latest, ok := models.Latest(rows, func(r incomeTaxRow) models.Versioned { return r.version })
	if !ok {
		return nil, nil
	}
	return &latest.IncomeTax, nil
}

type pisRow struct {
	pis     string
	version models.Versioned
}

// PIS returns the most recently included PIS number, or "".
func (s *Store) PIS(ctx context.Context, contactID int64) (string, error) {
	var rows []pisRow
	err := s.query(ctx, registry.StorePIS, queryPIS, []any{contactID}, func(r pool.Row) error {
		if r.IsNull(0) {
			return nil
		}
		rows = append(rows, pisRow{
			pis:     r.Text(0),
			version: models.Versioned{IncludedAt: r.Text(1), RowID: r.Int64(2)},
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	latest, _ := models.Latest(rows, func(r pisRow) models.Versioned { return r.version })
	return latest.pis, nil
}

type professionRow struct {
	models.Profession
	rowID int64
}

func (s *Store) Profession(ctx context.Context, contactID int64) (*models.Profession, error) {
	var rows []professionRow
	err := s.query(ctx, registry.StoreProfession, queryProfession, []any{contactID}, func(r pool.Row) error {
		rows = append(rows, professionRow{
			Profession: models.Profession{
				ID:             r.Text(0),
				Code:           r.Text(1),
				Description:    r.Text(2),
				RegistrationID: r.Text(3),
				IncludedAt:     r.Text(4),
				Increment:      r.Text(5),
				UpdatedAt:      r.Text(6),
				CBOMissing:     r.Text(7),
				SameProfession: r.Text(8),
			},
			rowID: r.Int64(9),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	latest, ok := models.Latest(rows, func(r professionRow) models.Versioned {
		return models.Versioned{IncludedAt: r.IncludedAt, RowID: r.rowID}
	})
	if !ok {
		return nil, nil
	}
	return &latest.Profession, nil
}

type educationRow struct {
	models.Education
	rowID int64
}

func (s *Store) Education(ctx context.Context, contactID int64) (*models.Education, error) {
	var rows []educationRow
	err := s.query(ctx, registry.StoreUniversity, queryEducation, []any{contactID}, func(r pool.Row) error {
		rows = append(rows, educationRow{
			Education: models.Education{
				Name:           r.Text(0),
				EntranceYear:   r.Text(1),
				Institution:    r.Text(2),
				UF:             r.Text(3),
				Campus:         r.Text(4),
				Course:         r.Text(5),
				Period:         r.Text(6),
				Enrollment:     r.Text(7),
				BirthDate:      r.Text(8),
				Quota:          r.Text(9),
				GraduationYear: r.Text(10),
				IncludedAt:     r.Text(11),
				RegistrationID: r.Text(12),
			},
			rowID: r.Int64(13),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	latest, ok := models.Latest(rows, func(r educationRow) models.Versioned {
		return models.Versioned{IncludedAt: r.IncludedAt, RowID: r.rowID}
	})
	if !ok {
		return nil, nil
	}
	return &latest.Education, nil
}

func (s *Store) Electoral(ctx context.Context, contactID int64) (*models.Electoral, error) {
	var out *models.Electoral
	err := s.query(ctx, registry.StoreElectoral, queryElectoral, []any{contactID}, func(r pool.Row) error {
		out = &models.Electoral{VoterID: r.Text(0), Zone: r.Text(1), Section: r.Text(2)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Relatives is keyed by the person's CPF rather than the contact id.
func (s *Store) Relatives(ctx context.Context, cpf domain.CPF) ([]models.Relative, error) {
	var out []models.Relative
	err := s.query(ctx, registry.StoreRelatives, queryRelatives, []any{cpf.String()}, func(r pool.Row) error {
		out = append(out, models.Relative{Kinship: r.Text(0), CPF: r.Text(1), Name: r.Text(2)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PurchasingPower(ctx context.Context, contactID int64) (*models.PurchasingPower, error) {
	var out *models.PurchasingPower
	err := s.query(ctx, registry.StorePurchasingPower, queryPurchasingPower, []any{contactID}, func(r pool.Row) error {
		out = &models.PurchasingPower{
			Level:  r.Text(0),
			Income: r.Text(1),
			Band:   r.Text(2),
			Code:   r.Text(3),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
