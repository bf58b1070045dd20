package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fxstats/internal/models"
	"fxstats/internal/repository"
	"fxstats/internal/service"
)

// ConfigHandler управляет конфигурациями подключения к брокеру.
//
// Endpoints:
// - GET    /api/v1/config - список конфигураций (без секретов)
// - POST   /api/v1/config - создать конфигурацию
// - GET    /api/v1/config/active - активная конфигурация
// - GET    /api/v1/config/{id} - конфигурация по ID
// - PUT    /api/v1/config/{id} - обновить конфигурацию
// - DELETE /api/v1/config/{id} - удалить конфигурацию
// - POST   /api/v1/config/{id}/activate - сделать конфигурацию активной
//
// Секреты (api_key, api_secret, access_token) принимаются на вход,
// но никогда не возвращаются в ответах.
type ConfigHandler struct {
	credentialService service.CredentialServiceInterface
}

// NewConfigHandler создает новый ConfigHandler с внедрением зависимостей
func NewConfigHandler(credentialService service.CredentialServiceInterface) *ConfigHandler {
	return &ConfigHandler{
		credentialService: credentialService,
	}
}

// pathID извлекает {id} из пути
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// List возвращает все конфигурации без секретов.
//
// GET /api/v1/config
func (h *ConfigHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.credentialService.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list configs", err)
		return
	}

	if configs == nil {
		configs = []*models.BrokerConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// Create создает конфигурацию брокера.
//
// POST /api/v1/config
//
// Request:
//
//	{
//	  "name": "oanda-practice",
//	  "api_url": "https://api-fxpractice.oanda.com",
//	  "account_id": "001-001-1234567-001",
//	  "access_token": "...",
//	  "testnet": true,
//	  "activate": true
//	}
//
// Response 201 Created: созданная конфигурация без секретов.
// Response 400 Bad Request: не заполнены обязательные поля.
// Response 409 Conflict: конфигурация с таким именем уже существует.
func (h *ConfigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload", err)
		return
	}

	cfg, err := h.credentialService.Create(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidConfig):
			writeError(w, http.StatusBadRequest, "invalid config", err)
		case errors.Is(err, repository.ErrBrokerConfigExists):
			writeError(w, http.StatusConflict, "config already exists", nil)
		default:
			writeError(w, http.StatusInternalServerError, "failed to create config", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

// GetActive возвращает активную конфигурацию без секретов.
//
// GET /api/v1/config/active
//
// Response 404 Not Found: активной конфигурации нет.
func (h *ConfigHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.credentialService.GetActive()
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveConfig) {
			writeError(w, http.StatusNotFound, "no active config", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load active config", err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Get возвращает конфигурацию по ID без секретов.
//
// GET /api/v1/config/{id}
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid config id", nil)
		return
	}

	cfg, err := h.credentialService.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrBrokerConfigNotFound) {
			writeError(w, http.StatusNotFound, "config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load config", err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Update обновляет конфигурацию; пустые поля учетных данных
// оставляют сохраненные секреты без изменений.
//
// PUT /api/v1/config/{id}
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid config id", nil)
		return
	}

	var req service.CreateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload", err)
		return
	}

	cfg, err := h.credentialService.Update(id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrBrokerConfigNotFound) {
			writeError(w, http.StatusNotFound, "config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update config", err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Delete удаляет конфигурацию.
//
// DELETE /api/v1/config/{id}
func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid config id", nil)
		return
	}

	if err := h.credentialService.Delete(id); err != nil {
		if errors.Is(err, repository.ErrBrokerConfigNotFound) {
			writeError(w, http.StatusNotFound, "config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete config", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "config deleted"})
}

// Activate делает конфигурацию активной (единственной активной).
//
// POST /api/v1/config/{id}/activate
//
// Смена активной конфигурации вступает в силу после перезапуска сервиса:
// клиент брокера создается один раз при старте.
func (h *ConfigHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid config id", nil)
		return
	}

	if err := h.credentialService.Activate(id); err != nil {
		if errors.Is(err, repository.ErrBrokerConfigNotFound) {
			writeError(w, http.StatusNotFound, "config not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to activate config", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "config activated"})
}
