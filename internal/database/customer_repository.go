package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hypernova-labs/customer-api/internal/models"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// uniqueViolation es el código de error de PostgreSQL para violaciones de unicidad
const uniqueViolation = "23505"

// customerColumns son las columnas seleccionadas por todas las queries de lectura
const customerColumns = `
	c.id, c.first_name, c.last_name, c.email, c.cpf, c.date_of_birth,
	a.id, a.street, a.number, a.zip_code, a.complement, a.neighbourhood, a.city, a.uf
`

// CustomerRepository maneja las operaciones de base de datos para Customer
type CustomerRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewCustomerRepository crea una nueva instancia del repositorio
func NewCustomerRepository(db *DB, logger *logrus.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID obtiene un cliente por ID junto con su dirección
func (r *CustomerRepository) GetByID(id int64) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers c
		JOIN addresses a ON a.customer_id = c.id
		WHERE c.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error querying customer: %w", err)
	}

	return customer, nil
}

// GetByCPF obtiene un cliente por su CPF
func (r *CustomerRepository) GetByCPF(cpf string) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers c
		JOIN addresses a ON a.customer_id = c.id
		WHERE c.cpf = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, cpf))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error querying customer: %w", err)
	}

	return customer, nil
}

// GetAll obtiene todos los clientes. Sin paginación: aceptable solo
// para conjuntos de resultados pequeños.
func (r *CustomerRepository) GetAll() ([]models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers c
		JOIN addresses a ON a.customer_id = c.id
		ORDER BY c.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

// Save persiste un cliente y su dirección dentro de una sola transacción:
// inserta cuando el ID es cero, actualiza en caso contrario. Una violación
// de la restricción única de CPF se reporta como DuplicateCPFError.
func (r *CustomerRepository) Save(customer *models.Customer) (*models.Customer, error) {
	var err error
	if customer.ID == 0 {
		err = r.db.WithTransaction(func(tx *sql.Tx) error {
			return r.insert(tx, customer)
		})
	} else {
		err = r.db.WithTransaction(func(tx *sql.Tx) error {
			return r.update(tx, customer)
		})
	}

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			detail := pqErr.Message
			if pqErr.Detail != "" {
				detail += ": " + pqErr.Detail
			}
			return nil, &models.DuplicateCPFError{Detail: detail}
		}
		return nil, err
	}

	return customer, nil
}

func (r *CustomerRepository) insert(tx *sql.Tx, customer *models.Customer) error {
	query := `
		INSERT INTO customers (first_name, last_name, email, cpf, date_of_birth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := tx.QueryRow(query,
		customer.FirstName, customer.LastName, customer.Email,
		customer.CPF, customer.DateOfBirth.Time,
	).Scan(&customer.ID)
	if err != nil {
		return fmt.Errorf("error inserting customer: %w", err)
	}

	customer.Address.CustomerID = customer.ID

	query = `
		INSERT INTO addresses (customer_id, street, number, zip_code, complement, neighbourhood, city, uf)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err = tx.QueryRow(query,
		customer.Address.CustomerID, customer.Address.Street, customer.Address.Number,
		customer.Address.ZipCode, nullable(customer.Address.Complement),
		customer.Address.Neighbourhood, customer.Address.City, customer.Address.UF,
	).Scan(&customer.Address.ID)
	if err != nil {
		return fmt.Errorf("error inserting address: %w", err)
	}

	return nil
}

func (r *CustomerRepository) update(tx *sql.Tx, customer *models.Customer) error {
	query := `
		UPDATE customers
		SET first_name = $1, last_name = $2, email = $3, cpf = $4, date_of_birth = $5
		WHERE id = $6
	`

	result, err := tx.Exec(query,
		customer.FirstName, customer.LastName, customer.Email,
		customer.CPF, customer.DateOfBirth.Time, customer.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrCustomerNotFound
	}

	customer.Address.CustomerID = customer.ID

	// El ID de la dirección se preserva: solo se reemplazan los valores de sus campos
	query = `
		UPDATE addresses
		SET street = $1, number = $2, zip_code = $3, complement = $4, neighbourhood = $5, city = $6, uf = $7
		WHERE id = $8 AND customer_id = $9
	`

	_, err = tx.Exec(query,
		customer.Address.Street, customer.Address.Number, customer.Address.ZipCode,
		nullable(customer.Address.Complement), customer.Address.Neighbourhood,
		customer.Address.City, customer.Address.UF,
		customer.Address.ID, customer.Address.CustomerID,
	)
	if err != nil {
		return fmt.Errorf("error updating address: %w", err)
	}

	return nil
}

// DeleteByID elimina un cliente y su dirección en una sola transacción
func (r *CustomerRepository) DeleteByID(id int64) error {
	return r.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM addresses WHERE customer_id = $1`, id); err != nil {
			return fmt.Errorf("error deleting address: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM customers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("error deleting customer: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("error getting rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return models.ErrCustomerNotFound
		}

		return nil
	})
}

// rowScanner abstrae *sql.Row y *sql.Rows para el escaneo compartido
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var customer models.Customer
	var address models.Address
	var complement sql.NullString

	err := row.Scan(
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
		&customer.CPF, &customer.DateOfBirth.Time,
		&address.ID, &address.Street, &address.Number, &address.ZipCode,
		&complement, &address.Neighbourhood, &address.City, &address.UF,
	)
	if err != nil {
		return nil, err
	}

	address.Complement = complement.String
	address.CustomerID = customer.ID
	customer.Address = &address

	return &customer, nil
}

// nullable convierte un string vacío en NULL
func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
