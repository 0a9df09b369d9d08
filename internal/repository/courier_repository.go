package repository

import (
	"context"
	"errors"
	"fmt"

	"farmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const courierColumns = `user_id, business_name, business_registration_number, tax_id,
	drivers_license_number, national_id_number, drivers_license_url, national_id_url,
	business_certificate_url, vehicle_type, vehicle_registration, vehicle_insurance_url,
	created_at, updated_at`

type courierRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCourierRepository creates a new PostgreSQL-backed courier repository.
func NewCourierRepository(pool *pgxpool.Pool, logger zerolog.Logger) CourierRepository {
	return &courierRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "courier").Logger(),
	}
}

func (r *courierRepository) Upsert(ctx context.Context, c *model.Courier) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO couriers (`+courierColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			business_registration_number = EXCLUDED.business_registration_number,
			tax_id = EXCLUDED.tax_id,
			drivers_license_number = EXCLUDED.drivers_license_number,
			national_id_number = EXCLUDED.national_id_number,
			drivers_license_url = EXCLUDED.drivers_license_url,
			national_id_url = EXCLUDED.national_id_url,
			business_certificate_url = EXCLUDED.business_certificate_url,
			vehicle_type = EXCLUDED.vehicle_type,
			vehicle_registration = EXCLUDED.vehicle_registration,
			vehicle_insurance_url = EXCLUDED.vehicle_insurance_url,
			updated_at = EXCLUDED.updated_at
	`, c.UserID, c.BusinessName, c.BusinessRegistrationNumber, c.TaxID,
		c.DriversLicenseNumber, c.NationalIDNumber, c.DriversLicenseURL, c.NationalIDURL,
		c.BusinessCertificateURL, c.VehicleType, c.VehicleRegistration, c.VehicleInsuranceURL,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", c.UserID).Msg("failed to upsert courier")
		return fmt.Errorf("failed to upsert courier: %w", err)
	}
	return nil
}

func (r *courierRepository) GetByUserID(ctx context.Context, userID string) (*model.Courier, error) {
	c, err := scanCourier(r.pool.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query courier")
		return nil, fmt.Errorf("failed to query courier: %w", err)
	}
	return c, nil
}

func (r *courierRepository) List(ctx context.Context) ([]model.Courier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+courierColumns+` FROM couriers ORDER BY created_at, user_id`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query couriers")
		return nil, fmt.Errorf("failed to query couriers: %w", err)
	}
	defer rows.Close()

	couriers := []model.Courier{}
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan courier: %w", err)
		}
		couriers = append(couriers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating couriers: %w", err)
	}
	return couriers, nil
}

func scanCourier(row pgx.Row) (*model.Courier, error) {
	var c model.Courier
	err := row.Scan(&c.UserID, &c.BusinessName, &c.BusinessRegistrationNumber, &c.TaxID,
		&c.DriversLicenseNumber, &c.NationalIDNumber, &c.DriversLicenseURL, &c.NationalIDURL,
		&c.BusinessCertificateURL, &c.VehicleType, &c.VehicleRegistration, &c.VehicleInsuranceURL,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
