package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fxstats/internal/models"
	"fxstats/pkg/crypto"
)

// CredentialService управляет конфигурациями подключения к брокеру.
//
// Учетные данные (api_key, api_secret, access_token) шифруются AES-256-GCM
// перед сохранением и расшифровываются только по явному запросу
// (GetDecrypted - для создания клиента брокера). Списки и ответы API
// секретов не содержат.
type CredentialService struct {
	repo          BrokerConfigRepositoryInterface
	encryptionKey string
	logger        *zap.Logger
}

// NewCredentialService создает новый экземпляр CredentialService
func NewCredentialService(repo BrokerConfigRepositoryInterface, encryptionKey string, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		repo:          repo,
		encryptionKey: encryptionKey,
		logger:        logger,
	}
}

// CreateConfigRequest - запрос создания конфигурации
type CreateConfigRequest struct {
	Name        string `json:"name"`
	APIURL      string `json:"api_url"`
	AccountID   string `json:"account_id"`
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Testnet     bool   `json:"testnet"`
	Activate    bool   `json:"activate"`
}

// Validate проверяет обязательные поля запроса
func (r *CreateConfigRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(r.APIURL) == "" {
		return fmt.Errorf("%w: api_url is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("%w: account_id is required", ErrInvalidConfig)
	}
	if r.AccessToken == "" && r.APIKey == "" {
		return fmt.Errorf("%w: access_token or api_key is required", ErrInvalidConfig)
	}
	return nil
}

// Create создает конфигурацию, шифруя учетные данные
func (s *CredentialService) Create(req *CreateConfigRequest) (*models.BrokerConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg := &models.BrokerConfig{
		Name:      strings.TrimSpace(req.Name),
		APIURL:    strings.TrimRight(strings.TrimSpace(req.APIURL), "/"),
		AccountID: strings.TrimSpace(req.AccountID),
		Testnet:   req.Testnet,
	}

	var err error
	if cfg.APIKey, err = s.encrypt(req.APIKey); err != nil {
		return nil, err
	}
	if cfg.APISecret, err = s.encrypt(req.APISecret); err != nil {
		return nil, err
	}
	if cfg.AccessToken, err = s.encrypt(req.AccessToken); err != nil {
		return nil, err
	}

	if err := s.repo.Create(cfg); err != nil {
		return nil, err
	}

	if req.Activate {
		if err := s.repo.Activate(cfg.ID); err != nil {
			return nil, err
		}
		cfg.Active = true
	}

	s.logger.Info("broker config created",
		zap.Int64("id", cfg.ID),
		zap.String("name", cfg.Name),
		zap.Bool("active", cfg.Active),
	)

	return sanitize(cfg), nil
}

// List возвращает все конфигурации без секретов
func (s *CredentialService) List() ([]*models.BrokerConfig, error) {
	configs, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}

	out := make([]*models.BrokerConfig, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, sanitize(cfg))
	}
	return out, nil
}

// Get возвращает конфигурацию по ID без секретов
func (s *CredentialService) Get(id int64) (*models.BrokerConfig, error) {
	cfg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return sanitize(cfg), nil
}

// GetActive возвращает активную конфигурацию без секретов
func (s *CredentialService) GetActive() (*models.BrokerConfig, error) {
	cfg, err := s.repo.GetActive()
	if err != nil {
		return nil, err
	}
	return sanitize(cfg), nil
}

// GetDecrypted возвращает активную конфигурацию с расшифрованными
// учетными данными - для создания клиента брокера
func (s *CredentialService) GetDecrypted() (*models.BrokerConfig, error) {
	cfg, err := s.repo.GetActive()
	if err != nil {
		return nil, err
	}

	if cfg.APIKey, err = s.decrypt(cfg.APIKey); err != nil {
		return nil, err
	}
	if cfg.APISecret, err = s.decrypt(cfg.APISecret); err != nil {
		return nil, err
	}
	if cfg.AccessToken, err = s.decrypt(cfg.AccessToken); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Update обновляет конфигурацию; пустые поля учетных данных означают
// "оставить как есть"
func (s *CredentialService) Update(id int64, req *CreateConfigRequest) (*models.BrokerConfig, error) {
	cfg, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) != "" {
		cfg.Name = strings.TrimSpace(req.Name)
	}
	if strings.TrimSpace(req.APIURL) != "" {
		cfg.APIURL = strings.TrimRight(strings.TrimSpace(req.APIURL), "/")
	}
	if strings.TrimSpace(req.AccountID) != "" {
		cfg.AccountID = strings.TrimSpace(req.AccountID)
	}
	cfg.Testnet = req.Testnet

	if req.APIKey != "" {
		if cfg.APIKey, err = s.encrypt(req.APIKey); err != nil {
			return nil, err
		}
	}
	if req.APISecret != "" {
		if cfg.APISecret, err = s.encrypt(req.APISecret); err != nil {
			return nil, err
		}
	}
	if req.AccessToken != "" {
		if cfg.AccessToken, err = s.encrypt(req.AccessToken); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(cfg); err != nil {
		return nil, err
	}

	return sanitize(cfg), nil
}

// Delete удаляет конфигурацию
func (s *CredentialService) Delete(id int64) error {
	return s.repo.Delete(id)
}

// Activate делает конфигурацию активной (единственной активной)
func (s *CredentialService) Activate(id int64) error {
	if err := s.repo.Activate(id); err != nil {
		return err
	}
	s.logger.Info("broker config activated", zap.Int64("id", id))
	return nil
}

// encrypt шифрует значение; пустая строка проходит без шифрования
func (s *CredentialService) encrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return crypto.EncryptWithKeyString(value, s.encryptionKey)
}

// decrypt расшифровывает значение; пустая строка проходит как есть
func (s *CredentialService) decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	return crypto.DecryptWithKeyString(value, s.encryptionKey)
}

// sanitize возвращает копию конфигурации без секретов
func sanitize(cfg *models.BrokerConfig) *models.BrokerConfig {
	out := *cfg
	out.APIKey = ""
	out.APISecret = ""
	out.AccessToken = ""
	return &out
}
