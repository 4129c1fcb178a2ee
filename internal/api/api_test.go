package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/customer-api/internal/config"
	"github.com/hypernova-labs/customer-api/internal/database"
	"github.com/hypernova-labs/customer-api/internal/models"
	"github.com/hypernova-labs/customer-api/internal/services"
	"github.com/hypernova-labs/customer-api/internal/validation"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var customerRows = []string{
	"id", "first_name", "last_name", "email", "cpf", "date_of_birth",
	"a_id", "street", "number", "zip_code", "complement", "neighbourhood", "city", "uf",
}

const validBody = `{
	"firstName": "Joao",
	"lastName": "Silva",
	"email": "j@x.com",
	"cpf": "93350016006",
	"dateOfBirth": "22-02-1989",
	"address": {
		"street": "Rua A",
		"number": 71,
		"zipCode": "13400111",
		"neighbourhood": "Centro",
		"city": "Campinas",
		"uf": "SP"
	}
}`

// newTestRouter monta la API completa sobre una conexión SQL simulada,
// sin cache, con la credencial admin/secret
func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Auth.AdminUser = "admin"
	cfg.Auth.AdminPassword = "secret"

	customerService := services.NewCustomerService(&database.DB{DB: mockDB}, nil, logger)
	apiHandler := NewAPI(customerService, cfg, logger)

	router := gin.New()
	router.Use(RequestID())

	customers := router.Group("/customers")
	{
		customers.GET("", apiHandler.ListCustomers)
		customers.GET("/:id", apiHandler.GetCustomer)
		customers.POST("", apiHandler.CreateCustomer)
		customers.POST("/new", apiHandler.CreateCustomer)
		customers.PUT("/:id", apiHandler.UpdateCustomer)
		customers.PUT("/update/:id", apiHandler.UpdateCustomer)
		customers.DELETE("/:id", apiHandler.AdminAuthMiddleware(), apiHandler.DeleteCustomer)
	}

	return router, mock
}

func customerRow(id int64) *sqlmock.Rows {
	return sqlmock.NewRows(customerRows).AddRow(
		id, "Joao", "Silva", "j@x.com", "93350016006",
		time.Date(1989, time.February, 22, 0, 0, 0, 0, time.UTC),
		int64(5), "Rua A", 71, "13400111", nil, "Centro", "Campinas", "SP",
	)
}

func perform(router *gin.Engine, method, path, body string, auth func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		auth(req)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func asAdmin(req *http.Request) {
	req.SetBasicAuth("admin", "secret")
}

func TestListCustomers(t *testing.T) {
	t.Run("returns every customer", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`ORDER BY c\.id`).WillReturnRows(customerRow(1))

		resp := perform(router, http.MethodGet, "/customers", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)

		var customers []models.Customer
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &customers))
		require.Len(t, customers, 1)
		assert.Equal(t, "93350016006", customers[0].CPF)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty store yields an empty list", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`ORDER BY c\.id`).WillReturnRows(sqlmock.NewRows(customerRows))

		resp := perform(router, http.MethodGet, "/customers", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[]`, resp.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by CPF as a singleton list", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.cpf = \$1`).
			WithArgs("93350016006").
			WillReturnRows(customerRow(1))

		resp := perform(router, http.MethodGet, "/customers?cpf=93350016006", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)

		var customers []models.Customer
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &customers))
		require.Len(t, customers, 1)
		assert.Equal(t, int64(1), customers[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown CPF yields not found", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.cpf = \$1`).
			WithArgs("11144477735").
			WillReturnRows(sqlmock.NewRows(customerRows))

		resp := perform(router, http.MethodGet, "/customers?cpf=11144477735", "", nil)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "Customer with CPF 11144477735 not found.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetCustomer(t *testing.T) {
	t.Run("returns the customer with dd-MM-yyyy dates", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(customerRow(1))

		resp := perform(router, http.MethodGet, "/customers/1", "", nil)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"22-02-1989"`)
		assert.NotContains(t, resp.Body.String(), "customer_id")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id yields not found", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(customerRows))

		resp := perform(router, http.MethodGet, "/customers/99", "", nil)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "Customer with ID 99 not found.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-numeric id is a bad request", func(t *testing.T) {
		router, _ := newTestRouter(t)

		resp := perform(router, http.MethodGet, "/customers/abc", "", nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestCreateCustomer(t *testing.T) {
	t.Run("creates and points Location at the new resource", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO customers`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectQuery(`INSERT INTO addresses`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectCommit()

		resp := perform(router, http.MethodPost, "/customers/new", validBody, nil)

		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "/customers/1", resp.Header().Get("Location"))

		var created models.Customer
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, int64(5), created.Address.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("also served at the collection path", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO customers`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
		mock.ExpectQuery(`INSERT INTO addresses`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(6)))
		mock.ExpectCommit()

		resp := perform(router, http.MethodPost, "/customers", validBody, nil)

		assert.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, "/customers/2", resp.Header().Get("Location"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid CPF is rejected before touching the store", func(t *testing.T) {
		router, mock := newTestRouter(t)

		body := strings.Replace(validBody, "93350016006", "0000111000", 1)
		resp := perform(router, http.MethodPost, "/customers/new", body, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "cpf")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing field reports only the first violation", func(t *testing.T) {
		router, mock := newTestRouter(t)

		body := strings.Replace(validBody, `"Joao"`, `""`, 1)
		body = strings.Replace(body, `"j@x.com"`, `""`, 1)

		resp := perform(router, http.MethodPost, "/customers/new", body, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "firstName must not be blank")
		assert.NotContains(t, resp.Body.String(), "email must")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate CPF is a conflict carrying the store diagnostic", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO customers`).WillReturnError(&pq.Error{
			Code:    "23505",
			Message: `duplicate key value violates unique constraint "customers_cpf_key"`,
			Detail:  `Key (cpf)=(93350016006) already exists.`,
		})
		mock.ExpectRollback()

		resp := perform(router, http.MethodPost, "/customers/new", validBody, nil)

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Contains(t, resp.Body.String(), "customers_cpf_key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateCustomer(t *testing.T) {
	t.Run("pins the path id and the stored address id", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(customerRow(1))

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE customers`).WillReturnResult(sqlmock.NewResult(0, 1))
		// El ID de dirección del body (99) se descarta en favor del registrado (5)
		mock.ExpectExec(`UPDATE addresses`).
			WithArgs("Rua B", 10, "13400222", nil, "Centro", "Campinas", "SP", int64(5), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body := `{
			"id": 42,
			"firstName": "Joao",
			"lastName": "Silva",
			"email": "j@x.com",
			"cpf": "93350016006",
			"dateOfBirth": "22-02-1989",
			"address": {
				"id": 99,
				"street": "Rua B",
				"number": 10,
				"zipCode": "13400222",
				"neighbourhood": "Centro",
				"city": "Campinas",
				"uf": "SP"
			}
		}`

		resp := perform(router, http.MethodPut, "/customers/update/1", body, nil)

		assert.Equal(t, http.StatusOK, resp.Code)

		var updated models.Customer
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
		assert.Equal(t, int64(1), updated.ID)
		assert.Equal(t, int64(5), updated.Address.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id yields not found without persisting", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(customerRows))

		resp := perform(router, http.MethodPut, "/customers/99", validBody, nil)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "Customer with ID 99 not found.")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid body short-circuits persistence", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(customerRow(1))

		body := strings.Replace(validBody, "93350016006", "0000111000", 1)
		resp := perform(router, http.MethodPut, "/customers/1", body, nil)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		router, mock := newTestRouter(t)

		resp := perform(router, http.MethodDelete, "/customers/1", "", nil)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects wrong credentials leaving the record intact", func(t *testing.T) {
		router, mock := newTestRouter(t)

		resp := perform(router, http.MethodDelete, "/customers/1", "", func(req *http.Request) {
			req.SetBasicAuth("admin", "wrong")
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes with admin credentials", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(customerRow(1))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM addresses`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM customers`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		resp := perform(router, http.MethodDelete, "/customers/1", "", asAdmin)

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, resp.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id yields not found", func(t *testing.T) {
		router, mock := newTestRouter(t)

		mock.ExpectQuery(`WHERE c\.id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(customerRows))

		resp := perform(router, http.MethodDelete, "/customers/99", "", asAdmin)

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestID(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`ORDER BY c\.id`).WillReturnRows(sqlmock.NewRows(customerRows))

	resp := perform(router, http.MethodGet, "/customers", "", nil)

	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))
}
