package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"fxstats/internal/models"
)

// Ошибки репозитория конфигураций брокера
var (
	ErrBrokerConfigNotFound = errors.New("broker config not found")
	ErrBrokerConfigExists   = errors.New("broker config already exists")
	ErrNoActiveConfig       = errors.New("no active broker config")
)

// BrokerConfigRepository - работа с таблицей broker_configs
//
// Учетные данные (api_key, api_secret, access_token) хранятся
// зашифрованными; шифрованием занимается service слой, репозиторий
// оперирует уже готовыми ciphertext-строками.
type BrokerConfigRepository struct {
	db *sql.DB
}

// NewBrokerConfigRepository создает новый экземпляр репозитория
func NewBrokerConfigRepository(db *sql.DB) *BrokerConfigRepository {
	return &BrokerConfigRepository{db: db}
}

const brokerConfigColumns = `id, name, api_url, account_id, api_key, api_secret, access_token, active, testnet, created_at, updated_at`

func scanBrokerConfig(row interface{ Scan(...interface{}) error }) (*models.BrokerConfig, error) {
	cfg := &models.BrokerConfig{}
	err := row.Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.APIURL,
		&cfg.AccountID,
		&cfg.APIKey,
		&cfg.APISecret,
		&cfg.AccessToken,
		&cfg.Active,
		&cfg.Testnet,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Create создает новую конфигурацию брокера
func (r *BrokerConfigRepository) Create(cfg *models.BrokerConfig) error {
	query := `
		INSERT INTO broker_configs (name, api_url, account_id, api_key, api_secret, access_token, active, testnet, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	now := time.Now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	err := r.db.QueryRow(
		query,
		cfg.Name,
		cfg.APIURL,
		cfg.AccountID,
		cfg.APIKey,
		cfg.APISecret,
		cfg.AccessToken,
		cfg.Active,
		cfg.Testnet,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	).Scan(&cfg.ID)

	if err != nil {
		if isBrokerConfigUniqueViolation(err) {
			return ErrBrokerConfigExists
		}
		return err
	}

	return nil
}

// GetByID возвращает конфигурацию по ID
func (r *BrokerConfigRepository) GetByID(id int64) (*models.BrokerConfig, error) {
	query := `SELECT ` + brokerConfigColumns + ` FROM broker_configs WHERE id = $1`

	cfg, err := scanBrokerConfig(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrokerConfigNotFound
		}
		return nil, err
	}

	return cfg, nil
}

// GetAll возвращает все конфигурации
func (r *BrokerConfigRepository) GetAll() ([]*models.BrokerConfig, error) {
	query := `SELECT ` + brokerConfigColumns + ` FROM broker_configs ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.BrokerConfig
	for rows.Next() {
		cfg, err := scanBrokerConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return configs, nil
}

// GetActive возвращает активную конфигурацию
//
// Активной может быть не более одной (инвариант поддерживается Activate).
func (r *BrokerConfigRepository) GetActive() (*models.BrokerConfig, error) {
	query := `SELECT ` + brokerConfigColumns + ` FROM broker_configs WHERE active = true LIMIT 1`

	cfg, err := scanBrokerConfig(r.db.QueryRow(query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveConfig
		}
		return nil, err
	}

	return cfg, nil
}

// Update обновляет конфигурацию
func (r *BrokerConfigRepository) Update(cfg *models.BrokerConfig) error {
	query := `
		UPDATE broker_configs
		SET name = $1, api_url = $2, account_id = $3, api_key = $4, api_secret = $5, access_token = $6, testnet = $7, updated_at = $8
		WHERE id = $9`

	cfg.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		query,
		cfg.Name,
		cfg.APIURL,
		cfg.AccountID,
		cfg.APIKey,
		cfg.APISecret,
		cfg.AccessToken,
		cfg.Testnet,
		cfg.UpdatedAt,
		cfg.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBrokerConfigNotFound
	}

	return nil
}

// Delete удаляет конфигурацию
func (r *BrokerConfigRepository) Delete(id int64) error {
	query := `DELETE FROM broker_configs WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBrokerConfigNotFound
	}

	return nil
}

// Activate делает конфигурацию активной, снимая флаг со всех остальных
//
// Обе операции выполняются в одной транзакции: в любой момент времени
// активна не более одной конфигурации.
func (r *BrokerConfigRepository) Activate(id int64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE broker_configs SET active = false, updated_at = $1 WHERE active = true`, time.Now()); err != nil {
		return err
	}

	result, err := tx.Exec(`UPDATE broker_configs SET active = true, updated_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBrokerConfigNotFound
	}

	return tx.Commit()
}

// isBrokerConfigUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isBrokerConfigUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
