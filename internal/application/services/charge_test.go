package services_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/ficmart/charge-gateway/internal/application/services/testhelpers"
	"github.com/ficmart/charge-gateway/internal/config"
	"github.com/ficmart/charge-gateway/internal/domain"
	"github.com/ficmart/charge-gateway/internal/infrastructure/cache"
	"github.com/ficmart/charge-gateway/internal/infrastructure/persistence/postgres"
	"github.com/ficmart/charge-gateway/internal/infrastructure/processor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testScope = "payments:charge"

type ChargeServiceTestSuite struct {
	suite.Suite
	testDB          *testhelpers.TestDatabase
	tc              *postgres.TransactionCoordinator
	paymentRepo     *postgres.PaymentRepository
	idempotencyRepo *postgres.IdempotencyRepository
	outboxRepo      *postgres.OutboxRepository
	service         *services.ChargeService
}

func TestChargeServiceSuite(t *testing.T) {
	suite.Run(t, new(ChargeServiceTestSuite))
}

func (suite *ChargeServiceTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.tc = postgres.NewTransactionCoordinator(suite.testDB.DB)
	suite.paymentRepo = postgres.NewPaymentRepository(suite.testDB.DB)
	suite.idempotencyRepo = postgres.NewIdempotencyRepository(suite.testDB.DB)
	suite.outboxRepo = postgres.NewOutboxRepository(suite.testDB.DB)
}

func (suite *ChargeServiceTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *ChargeServiceTestSuite) SetupTest() {
	suite.testDB.CleanTables(suite.T())

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	suite.service = services.NewChargeService(
		suite.tc,
		suite.paymentRepo,
		suite.idempotencyRepo,
		suite.outboxRepo,
		processor.NewStub(),
		cache.NewNoop(),
		config.IdempotencyConfig{
			Scope:                testScope,
			StaleInProgressAfter: 30 * time.Second,
		},
		logger,
	)
}

func (suite *ChargeServiceTestSuite) TearDownTest() {
	suite.testDB.CleanTables(suite.T())
}

func (suite *ChargeServiceTestSuite) countRows(table, column, value string) int {
	var count int
	err := suite.testDB.DB.Pool.QueryRow(
		context.Background(),
		"SELECT COUNT(*) FROM "+table+" WHERE "+column+" = $1",
		value,
	).Scan(&count)
	require.NoError(suite.T(), err)
	return count
}

// ============================================================================
// HAPPY PATH TESTS
// ============================================================================

func (suite *ChargeServiceTestSuite) Test_Charge_FirstRequest_CreatesPaymentAndOutboxEvent() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	result, err := suite.service.Charge(ctx, key, hash, cmd)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusCreated, result.HTTPStatus)
	assert.False(t, result.Replayed)

	var body services.PaymentResponse
	require.NoError(t, json.Unmarshal([]byte(result.ResponseBody), &body))
	assert.Equal(t, cmd.CustomerID, body.CustomerID)
	assert.Equal(t, cmd.Amount, body.Amount)
	assert.Equal(t, string(domain.StatusAuthorized), body.Status)

	payment, err := suite.paymentRepo.FindByID(ctx, body.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, key, payment.IdempotencyKey)

	rec, err := suite.idempotencyRepo.FindByScopeAndKey(ctx, testScope, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.IdempotencyCompleted, rec.Status)
	require.NotNil(t, rec.HTTPStatus)
	assert.Equal(t, http.StatusCreated, *rec.HTTPStatus)
	require.NotNil(t, rec.ResponseBody)
	assert.Equal(t, result.ResponseBody, *rec.ResponseBody)

	assert.Equal(t, 1, suite.countRows("outbox_events", "aggregate_id", body.PaymentID))
}

func (suite *ChargeServiceTestSuite) Test_Charge_Replay_ReturnsIdenticalResponse() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	first, err := suite.service.Charge(ctx, key, hash, cmd)
	require.NoError(t, err)

	second, err := suite.service.Charge(ctx, key, hash, cmd)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.HTTPStatus, second.HTTPStatus)
	assert.Equal(t, first.ResponseBody, second.ResponseBody)

	assert.Equal(t, 1, suite.countRows("payments", "idempotency_key", key))
}

// ============================================================================
// CONFLICT TESTS
// ============================================================================

func (suite *ChargeServiceTestSuite) Test_Charge_SameKeyDifferentPayload_ReturnsHashConflict() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()

	_, err := suite.service.Charge(ctx, key, testhelpers.MustHash(t, cmd), cmd)
	require.NoError(t, err)

	changed := cmd
	changed.Amount = cmd.Amount + 1

	_, err = suite.service.Charge(ctx, key, testhelpers.MustHash(t, changed), changed)

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeHashConflict, svcErr.Code)
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus)

	// The losing request must not charge.
	assert.Equal(t, 1, suite.countRows("payments", "idempotency_key", key))
}

func (suite *ChargeServiceTestSuite) Test_Charge_FreshInProgressRecord_ReturnsInProgressConflict() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	rec := domain.NewInProgressRecord(testScope, key, hash)
	require.NoError(t, suite.idempotencyRepo.InsertInProgress(ctx, nil, rec))

	_, err := suite.service.Charge(ctx, key, hash, cmd)

	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeInProgress, svcErr.Code)
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus)
}

// ============================================================================
// CONCURRENCY TESTS
// ============================================================================

func (suite *ChargeServiceTestSuite) Test_Charge_ConcurrentSameKey_ChargesExactlyOnce() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	const parallelism = 10
	results := make([]*services.ChargeResult, parallelism)
	errs := make([]error, parallelism)

	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = suite.service.Charge(ctx, key, hash, cmd)
		}(i)
	}
	wg.Wait()

	executed := 0
	for i := 0; i < parallelism; i++ {
		require.NoError(t, errs[i], "request %d", i)
		require.NotNil(t, results[i])
		assert.Equal(t, http.StatusCreated, results[i].HTTPStatus)
		assert.Equal(t, results[0].ResponseBody, results[i].ResponseBody)
		if !results[i].Replayed {
			executed++
		}
	}

	assert.Equal(t, 1, executed, "exactly one request should execute the charge")
	assert.Equal(t, 1, suite.countRows("payments", "idempotency_key", key))

	var outboxCount int
	err := suite.testDB.DB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM outbox_events").Scan(&outboxCount)
	require.NoError(t, err)
	assert.Equal(t, 1, outboxCount)
}

// ============================================================================
// STALE RECOVERY TESTS
// ============================================================================

func (suite *ChargeServiceTestSuite) makeRecordStale(recID string) {
	_, err := suite.testDB.DB.Pool.Exec(
		context.Background(),
		"UPDATE idempotency_records SET updated_at = NOW() - INTERVAL '5 minutes', created_at = NOW() - INTERVAL '5 minutes' WHERE id = $1",
		recID,
	)
	require.NoError(suite.T(), err)
}

func (suite *ChargeServiceTestSuite) Test_Charge_StaleInProgress_ReprocessesSafely() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	// A crashed process left the record IN_PROGRESS with no payment behind.
	rec := domain.NewInProgressRecord(testScope, key, hash)
	require.NoError(t, suite.idempotencyRepo.InsertInProgress(ctx, nil, rec))
	suite.makeRecordStale(rec.ID)

	result, err := suite.service.Charge(ctx, key, hash, cmd)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.HTTPStatus)
	assert.False(t, result.Replayed)

	saved, err := suite.idempotencyRepo.FindByScopeAndKey(ctx, testScope, key)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyCompleted, saved.Status)
	assert.Equal(t, 1, suite.countRows("payments", "idempotency_key", key))
}

func (suite *ChargeServiceTestSuite) Test_Charge_StaleInProgressWithCommittedPayment_ReplaysIt() {
	ctx := context.Background()
	t := suite.T()
	cmd := testhelpers.DefaultChargeCommand()
	key := "idem-" + uuid.New().String()
	hash := testhelpers.MustHash(t, cmd)

	// Crash after the payment committed but before record completion is not
	// reachable with single-transaction commits; simulate the legacy shape
	// anyway to prove recovery never double-charges.
	rec := domain.NewInProgressRecord(testScope, key, hash)
	require.NoError(t, suite.idempotencyRepo.InsertInProgress(ctx, nil, rec))
	suite.makeRecordStale(rec.ID)

	payment, err := domain.NewAuthorizedPayment(key, cmd.CustomerID, cmd.Amount, cmd.Currency, cmd.PaymentMethodToken, cmd.Description)
	require.NoError(t, err)
	require.NoError(t, suite.paymentRepo.Create(ctx, nil, payment))

	result, err := suite.service.Charge(ctx, key, hash, cmd)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, result.HTTPStatus)
	assert.True(t, result.Replayed)

	var body services.PaymentResponse
	require.NoError(t, json.Unmarshal([]byte(result.ResponseBody), &body))
	assert.Equal(t, payment.ID, body.PaymentID)

	assert.Equal(t, 1, suite.countRows("payments", "idempotency_key", key))
}
