package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eliasJakobi123/sellable-sub001/app/models"
)

const productColumns = `
	id, user_id, prompt, product_type, status, title, description, content,
	price_cents, currency, marketing_copy, assets, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	assets := p.Assets
	if assets == nil {
		assets = []models.Asset{}
	}
	assetsJSON, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("marshal assets: %w", err)
	}

	const q = `
		INSERT INTO products (
			id, user_id, prompt, product_type, status, title, description, content,
			price_cents, currency, marketing_copy, assets
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at;
	`
	err = s.db.QueryRowContext(ctx, q,
		p.ID, p.UserID, p.Prompt, p.ProductType, p.Status,
		nullIfEmpty(p.Title), nullIfEmpty(p.Description), nullIfEmpty(p.Content),
		p.PriceCents, nullIfEmpty(p.Currency), nullIfEmpty(p.MarketingCopy), assetsJSON,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	p.Assets = assets
	return nil
}

// ListProducts returns the user's newest products first.
func (s *Store) ListProducts(ctx context.Context, userID string, limit int) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, userID, productID string) (models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE id = $1 AND user_id = $2;
	`, productID, userID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

func (s *Store) DeleteProduct(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM products
		WHERE id = $1 AND user_id = $2;
	`, productID, userID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p                                    models.Product
		title, desc, content, cur, marketing sql.NullString
		assetsJSON                           []byte
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Prompt, &p.ProductType, &p.Status,
		&title, &desc, &content, &p.PriceCents, &cur, &marketing,
		&assetsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Product{}, err
		}
		return models.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Title = title.String
	p.Description = desc.String
	p.Content = content.String
	p.Currency = cur.String
	p.MarketingCopy = marketing.String
	p.Assets = []models.Asset{}
	if len(assetsJSON) > 0 {
		if err := json.Unmarshal(assetsJSON, &p.Assets); err != nil {
			return models.Product{}, fmt.Errorf("unmarshal assets: %w", err)
		}
	}
	return p, nil
}
