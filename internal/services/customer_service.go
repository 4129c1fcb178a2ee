package services

import (
	"errors"
	"fmt"

	"github.com/hypernova-labs/customer-api/internal/cache"
	"github.com/hypernova-labs/customer-api/internal/database"
	"github.com/hypernova-labs/customer-api/internal/models"
	"github.com/sirupsen/logrus"
)

// CustomerService maneja la lógica de negocio para Customer.
//
// El cache es read-through en FindByID y write-through en Update.
// Save y DeleteByID no tocan el cache a propósito: la ventana de
// inconsistencia que eso abre está acotada por el TTL configurado.
type CustomerService struct {
	customerRepo  *database.CustomerRepository
	customerCache *cache.CustomerCache
	logger        *logrus.Logger
}

// NewCustomerService crea una nueva instancia del servicio
func NewCustomerService(db *database.DB, customerCache *cache.CustomerCache, logger *logrus.Logger) *CustomerService {
	return &CustomerService{
		customerRepo:  database.NewCustomerRepository(db, logger),
		customerCache: customerCache,
		logger:        logger,
	}
}

// FindByID obtiene un cliente por ID. La ausencia no es un error:
// se señala con (nil, nil).
func (s *CustomerService) FindByID(id int64) (*models.Customer, error) {
	if customer, ok := s.customerCache.Get(id); ok {
		return customer, nil
	}

	customer, err := s.customerRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, models.ErrCustomerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting customer: %w", err)
	}

	s.customerCache.Put(customer)

	return customer, nil
}

// FindByCPF obtiene un cliente por su CPF. Nunca consulta el cache.
// La ausencia se señala con (nil, nil).
func (s *CustomerService) FindByCPF(cpf string) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByCPF(cpf)
	if err != nil {
		if errors.Is(err, models.ErrCustomerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting customer: %w", err)
	}

	return customer, nil
}

// FindAll obtiene todos los clientes
func (s *CustomerService) FindAll() ([]models.Customer, error) {
	customers, err := s.customerRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("error getting customers: %w", err)
	}

	return customers, nil
}

// Save persiste un cliente nuevo o existente sin refrescar el cache
func (s *CustomerService) Save(customer *models.Customer) (*models.Customer, error) {
	saved, err := s.customerRepo.Save(customer)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": saved.ID,
		"cpf":         saved.CPF,
	}).Info("Customer saved successfully")

	return saved, nil
}

// Update persiste un cliente existente y escribe el resultado en el
// cache, garantizando que una lectura inmediata no sirva un valor viejo
func (s *CustomerService) Update(customer *models.Customer) (*models.Customer, error) {
	updated, err := s.customerRepo.Save(customer)
	if err != nil {
		return nil, err
	}

	s.customerCache.Put(updated)

	s.logger.WithFields(logrus.Fields{
		"customer_id": updated.ID,
	}).Info("Customer updated successfully")

	return updated, nil
}

// DeleteByID elimina un cliente junto con su dirección
func (s *CustomerService) DeleteByID(id int64) error {
	if err := s.customerRepo.DeleteByID(id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"customer_id": id,
	}).Info("Customer deleted successfully")

	return nil
}
