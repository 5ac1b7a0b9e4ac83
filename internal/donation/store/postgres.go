package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dana/internal/donation/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// Postgres persists donations via database/sql (pgx stdlib driver).
//
// Execute wraps every lifecycle mutation in a transaction that locks the
// donation row with SELECT ... FOR UPDATE, so concurrent transitions on one
// donation serialize at the database and the loser revalidates against the
// committed state.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const donationColumns = "id, donor_id, ngo_id, recipient_id, food_type, title, description, expiry_date, location_id, pickup_time, status, image_urls, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, donation *models.Donation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create donation: %w", err)
	}
	defer tx.Rollback()

	images, err := json.Marshal(donation.ImageURLs)
	if err != nil {
		return fmt.Errorf("marshal image urls: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO donations (`+donationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		donation.ID.String(), donation.DonorID.String(),
		nullableID(donation.NgoID), nullableID(donation.RecipientID),
		donation.FoodType, donation.Title, donation.Description,
		donation.ExpiryDate, nullableLocationID(donation.LocationID),
		donation.PickupTime, string(donation.Status), images,
		donation.CreatedAt, donation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	for _, item := range donation.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO food_items (id, donation_id, name, quantity, estimated_expiry_hours)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID.String(), donation.ID.String(), item.Name, item.Quantity, item.EstimatedExpiryHours,
		)
		if err != nil {
			return fmt.Errorf("insert food item: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) FindByID(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE id = $1", donationID.String())
	donation, err := scanDonation(row)
	if err != nil {
		return nil, err
	}
	donation.Items, err = s.loadItems(ctx, s.db, donationID)
	if err != nil {
		return nil, err
	}
	return donation, nil
}

func (s *Postgres) Execute(ctx context.Context, donationID id.DonationID, validate func(*models.Donation) error, mutate func(*models.Donation)) (*models.Donation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin donation update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE id = $1 FOR UPDATE", donationID.String())
	donation, err := scanDonation(row)
	if err != nil {
		return nil, err
	}
	donation.Items, err = s.loadItems(ctx, tx, donationID)
	if err != nil {
		return nil, err
	}

	if err := validate(donation); err != nil {
		return nil, err
	}
	mutate(donation)

	images, err := json.Marshal(donation.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("marshal image urls: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE donations
		SET ngo_id = $2, recipient_id = $3, food_type = $4, title = $5, description = $6,
		    expiry_date = $7, location_id = $8, pickup_time = $9, status = $10,
		    image_urls = $11, updated_at = $12
		WHERE id = $1`,
		donation.ID.String(),
		nullableID(donation.NgoID), nullableID(donation.RecipientID),
		donation.FoodType, donation.Title, donation.Description,
		donation.ExpiryDate, nullableLocationID(donation.LocationID),
		donation.PickupTime, string(donation.Status), images, donation.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update donation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit donation update: %w", err)
	}
	return donation, nil
}

func (s *Postgres) Delete(ctx context.Context, donationID id.DonationID) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM donations WHERE id = $1", donationID.String())
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Donation, error) {
	query := "SELECT " + donationColumns + " FROM donations"
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		conds = append(conds, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if filter.NgoID != "" {
		args = append(args, filter.NgoID)
		conds = append(conds, fmt.Sprintf("ngo_id = $%d", len(args)))
	}
	if filter.RecipientID != "" {
		args = append(args, filter.RecipientID)
		conds = append(conds, fmt.Sprintf("recipient_id = $%d", len(args)))
	}
	if filter.ExpiresBefore != nil {
		args = append(args, *filter.ExpiresBefore)
		conds = append(conds, fmt.Sprintf("expiry_date IS NOT NULL AND expiry_date <= $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR food_type ILIKE $%d)", n, n, n))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + orderClause(filter.Ordering)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, donation := range out {
		donation.Items, err = s.loadItems(ctx, s.db, donation.ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func orderClause(ordering string) string {
	switch ordering {
	case "pickup_time":
		return "pickup_time ASC"
	case "-pickup_time":
		return "pickup_time DESC"
	case "created_at":
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}

func (s *Postgres) ListExpirable(ctx context.Context, now time.Time) ([]*models.Donation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE expiry_date IS NOT NULL AND expiry_date <= $1
		  AND status NOT IN ($2, $3, $4)`,
		now, string(models.StatusCompleted), string(models.StatusCancelled), string(models.StatusExpired))
	if err != nil {
		return nil, fmt.Errorf("list expirable donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, donation)
	}
	return out, rows.Err()
}

// FindOrCreateLocation reuses a location with the same address. The unique
// index on LOWER(address) makes the insert race-safe; on conflict we fall
// back to the winner's row.
func (s *Postgres) FindOrCreateLocation(ctx context.Context, input models.LocationInput) (*models.PickupLocation, error) {
	location := models.PickupLocation{
		ID:        id.NewLocationID(),
		Address:   input.Address,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pickup_locations (id, address, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LOWER(address)) DO NOTHING`,
		location.ID.String(), location.Address, location.Latitude, location.Longitude,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pickup location: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return &location, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, address, latitude, longitude FROM pickup_locations
		WHERE LOWER(address) = LOWER($1)`, input.Address)
	return scanLocation(row)
}

func (s *Postgres) FindLocation(ctx context.Context, locationID id.LocationID) (*models.PickupLocation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, address, latitude, longitude FROM pickup_locations WHERE id = $1",
		locationID.String())
	return scanLocation(row)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) loadItems(ctx context.Context, q querier, donationID id.DonationID) ([]models.FoodItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, donation_id, name, quantity, estimated_expiry_hours
		FROM food_items WHERE donation_id = $1 ORDER BY name`, donationID.String())
	if err != nil {
		return nil, fmt.Errorf("load food items: %w", err)
	}
	defer rows.Close()

	var items []models.FoodItem
	for rows.Next() {
		var item models.FoodItem
		var rawID, rawDonationID string
		if err := rows.Scan(&rawID, &rawDonationID, &item.Name, &item.Quantity, &item.EstimatedExpiryHours); err != nil {
			return nil, fmt.Errorf("scan food item: %w", err)
		}
		itemID, err := parseUUID(rawID)
		if err != nil {
			return nil, err
		}
		item.ID = id.FoodItemID(itemID)
		item.DonationID = donationID
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var donation models.Donation
	var rawID, rawDonorID, status string
	var rawNgoID, rawRecipientID, rawLocationID sql.NullString
	var images []byte
	err := row.Scan(&rawID, &rawDonorID, &rawNgoID, &rawRecipientID,
		&donation.FoodType, &donation.Title, &donation.Description,
		&donation.ExpiryDate, &rawLocationID, &donation.PickupTime,
		&status, &images, &donation.CreatedAt, &donation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donation: %w", err)
	}

	donationID, err := id.ParseDonationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan donation id: %w", err)
	}
	donation.ID = donationID
	donorID, err := id.ParseActorID(rawDonorID)
	if err != nil {
		return nil, fmt.Errorf("scan donor id: %w", err)
	}
	donation.DonorID = donorID
	if rawNgoID.Valid {
		ngoID, err := id.ParseActorID(rawNgoID.String)
		if err != nil {
			return nil, fmt.Errorf("scan ngo id: %w", err)
		}
		donation.NgoID = &ngoID
	}
	if rawRecipientID.Valid {
		recipientID, err := id.ParseActorID(rawRecipientID.String)
		if err != nil {
			return nil, fmt.Errorf("scan recipient id: %w", err)
		}
		donation.RecipientID = &recipientID
	}
	if rawLocationID.Valid {
		parsed, err := parseUUID(rawLocationID.String)
		if err != nil {
			return nil, err
		}
		locationID := id.LocationID(parsed)
		donation.LocationID = &locationID
	}
	donation.Status = models.Status(status)
	if err := json.Unmarshal(images, &donation.ImageURLs); err != nil {
		return nil, fmt.Errorf("unmarshal image urls: %w", err)
	}
	return &donation, nil
}

func scanLocation(row rowScanner) (*models.PickupLocation, error) {
	var location models.PickupLocation
	var rawID string
	err := row.Scan(&rawID, &location.Address, &location.Latitude, &location.Longitude)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan pickup location: %w", err)
	}
	parsed, err := parseUUID(rawID)
	if err != nil {
		return nil, err
	}
	location.ID = id.LocationID(parsed)
	return &location, nil
}

func parseUUID(raw string) ([16]byte, error) {
	parsed, err := id.ParseDonationID(raw)
	if err != nil {
		return [16]byte{}, fmt.Errorf("scan uuid: %w", err)
	}
	return [16]byte(parsed), nil
}

func nullableID(actorID *id.ActorID) any {
	if actorID == nil {
		return nil
	}
	return actorID.String()
}

func nullableLocationID(locationID *id.LocationID) any {
	if locationID == nil {
		return nil
	}
	return locationID.String()
}
