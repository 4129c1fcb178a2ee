package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hypernova-labs/customer-api/internal/models"
	"github.com/sirupsen/logrus"
)

// Store es el backend clave→valor del cache. *database.Redis lo implementa;
// MemoryStore es la alternativa en proceso.
type Store interface {
	Get(key string) (string, error)
	SetWithTTL(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error
}

// CustomerCache memoiza clientes por ID delante del repositorio.
// Un cache nil es válido y todas sus operaciones son no-ops, de modo
// que el servicio funciona sin cache cuando Redis no está disponible.
type CustomerCache struct {
	store  Store
	ttl    time.Duration
	logger *logrus.Logger
}

// New crea un cache de clientes sobre el store dado
func New(store Store, ttl time.Duration, logger *logrus.Logger) *CustomerCache {
	return &CustomerCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Get busca un cliente en el cache. Cualquier error de lectura se
// degrada a un miss: el caller siempre puede ir al repositorio.
func (c *CustomerCache) Get(id int64) (*models.Customer, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}

	value, err := c.store.Get(cacheKey(id))
	if err != nil {
		return nil, false
	}

	var customer models.Customer
	if err := json.Unmarshal([]byte(value), &customer); err != nil {
		c.logger.WithError(err).WithField("customer_id", id).Warn("Discarding malformed cache entry")
		return nil, false
	}

	return &customer, true
}

// Put escribe un cliente en el cache con el TTL configurado.
// Los errores de escritura se registran pero no se propagan: el cache
// nunca hace fallar una operación que ya se persistió.
func (c *CustomerCache) Put(customer *models.Customer) {
	if c == nil || c.store == nil {
		return
	}

	value, err := json.Marshal(customer)
	if err != nil {
		c.logger.WithError(err).Error("Error marshaling customer for cache")
		return
	}

	if err := c.store.SetWithTTL(cacheKey(customer.ID), string(value), c.ttl); err != nil {
		c.logger.WithError(err).WithField("customer_id", customer.ID).Warn("Error writing customer to cache")
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("customer:%d", id)
}
