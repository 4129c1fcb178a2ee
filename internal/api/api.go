package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/customer-api/internal/config"
	"github.com/hypernova-labs/customer-api/internal/models"
	"github.com/hypernova-labs/customer-api/internal/services"
	"github.com/hypernova-labs/customer-api/internal/validation"
	"github.com/sirupsen/logrus"
)

// API maneja todos los endpoints de la API
type API struct {
	customerService *services.CustomerService
	cfg             *config.Config
	logger          *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(customerService *services.CustomerService, cfg *config.Config, logger *logrus.Logger) *API {
	return &API{
		customerService: customerService,
		cfg:             cfg,
		logger:          logger,
	}
}

// ListCustomers lista todos los clientes, o filtra por CPF con ?cpf=
func (api *API) ListCustomers(c *gin.Context) {
	cpf := c.Query("cpf")
	if cpf == "" {
		customers, err := api.customerService.FindAll()
		if err != nil {
			api.logger.WithError(err).Error("Error listing customers")
			c.JSON(http.StatusInternalServerError, models.NewInternalError("Error retrieving customers"))
			return
		}

		if customers == nil {
			customers = []models.Customer{}
		}
		c.JSON(http.StatusOK, customers)
		return
	}

	customer, err := api.customerService.FindByCPF(cpf)
	if err != nil {
		api.logger.WithError(err).Error("Error getting customer by CPF")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error retrieving customer"))
		return
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with CPF %s not found.", cpf)))
		return
	}

	// Lista de un solo elemento para mantener la forma de la respuesta
	c.JSON(http.StatusOK, []models.Customer{*customer})
}

// GetCustomer obtiene un cliente por ID
func (api *API) GetCustomer(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	customer, err := api.customerService.FindByID(id)
	if err != nil {
		api.logger.WithError(err).Error("Error getting customer")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error retrieving customer"))
		return
	}
	if customer == nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with ID %d not found.", id)))
		return
	}

	c.JSON(http.StatusOK, customer)
}

// CreateCustomer crea un cliente nuevo junto con su dirección
func (api *API) CreateCustomer(c *gin.Context) {
	customer, ok := api.bindCustomer(c)
	if !ok {
		return
	}

	// Los identificadores los asigna el store; se descarta lo que venga en el body
	customer.ID = 0
	customer.Address.ID = 0
	customer.Address.CustomerID = 0

	created, err := api.customerService.Save(customer)
	if err != nil {
		var dup *models.DuplicateCPFError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, models.NewConflictError(dup.Detail))
			return
		}
		api.logger.WithError(err).Error("Error creating customer")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error creating customer"))
		return
	}

	c.Header("Location", fmt.Sprintf("/customers/%d", created.ID))
	c.JSON(http.StatusCreated, created)
}

// UpdateCustomer reemplaza un cliente existente. El ID del cliente se
// fija al de la ruta y el ID de la dirección al ya registrado, de modo
// que el body no pueda re-parentar ni duplicar una dirección.
func (api *API) UpdateCustomer(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	existing, err := api.customerService.FindByID(id)
	if err != nil {
		api.logger.WithError(err).Error("Error getting customer for update")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error retrieving customer"))
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with ID %d not found.", id)))
		return
	}

	customer, ok := api.bindCustomer(c)
	if !ok {
		return
	}

	customer.ID = id
	customer.Address.ID = existing.Address.ID
	customer.Address.CustomerID = id

	updated, err := api.customerService.Update(customer)
	if err != nil {
		var dup *models.DuplicateCPFError
		switch {
		case errors.As(err, &dup):
			c.JSON(http.StatusConflict, models.NewConflictError(dup.Detail))
		case errors.Is(err, models.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with ID %d not found.", id)))
		default:
			api.logger.WithError(err).Error("Error updating customer")
			c.JSON(http.StatusInternalServerError, models.NewInternalError("Error updating customer"))
		}
		return
	}

	api.logger.WithField("customer_id", id).Debug("Customer updated")
	c.JSON(http.StatusOK, updated)
}

// DeleteCustomer elimina un cliente por ID (solo administradores)
func (api *API) DeleteCustomer(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	existing, err := api.customerService.FindByID(id)
	if err != nil {
		api.logger.WithError(err).Error("Error getting customer for delete")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error retrieving customer"))
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with ID %d not found.", id)))
		return
	}

	if err := api.customerService.DeleteByID(id); err != nil {
		if errors.Is(err, models.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, models.NewNotFoundError(fmt.Sprintf("Customer with ID %d not found.", id)))
			return
		}
		api.logger.WithError(err).Error("Error deleting customer")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error deleting customer"))
		return
	}

	api.logger.WithField("customer_id", id).Debug("Customer deleted")
	c.Status(http.StatusOK)
}

// bindCustomer parsea y valida el body. En caso de violación se reporta
// solo la primera encontrada, con el campo y la regla violada.
func (api *API) bindCustomer(c *gin.Context) (*models.Customer, bool) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		if detail, ok := validation.FirstViolation(err); ok {
			c.JSON(http.StatusBadRequest, models.NewValidationError(
				detail.Field+" "+detail.Issue,
				[]models.ErrorDetail{detail},
			))
			return nil, false
		}

		api.logger.WithError(err).Error("Error binding customer request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return nil, false
	}

	return &customer, true
}

// parseID parsea el ID de la ruta; responde 400 si no es un entero positivo
func (api *API) parseID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid customer ID", []models.ErrorDetail{
			{Field: "id", Issue: "must be a positive integer"},
		}))
		return 0, false
	}

	return id, true
}
