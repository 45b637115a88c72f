package smoketests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/test-scaffold/fixtures"
	"github.com/launchdarkly/test-scaffold/framework"
	"github.com/launchdarkly/test-scaffold/orchestrator"
)

func (s *suite) doOrderTests(t *framework.Context) {
	s.run(t, "order scenario", orchestrator.API, func(in *orchestrator.TestInputs) {
		scenario, err := in.Data.CreateOrderScenario(in.Ctx, 2, ldvalue.Null())
		require.NoError(in.T, err)

		resp, err := s.eventually(in, fixtures.OrdersPath+"/"+scenario.Order.ID, http.StatusOK)
		require.NoError(in.T, err)
		order, err := resp.JSON()
		require.NoError(in.T, err)
		assert.Equal(in.T, scenario.User.ID, order.GetByKey("userId").StringValue())

		var productIDs []string
		order.GetByKey("productIds").Enumerate(func(_ int, _ string, v ldvalue.Value) bool {
			productIDs = append(productIDs, v.StringValue())
			return true
		})
		assert.Equal(in.T, []string{scenario.Products[0].ID, scenario.Products[1].ID}, productIDs)
	})

	s.run(t, "order for unknown user is rejected", orchestrator.API, func(in *orchestrator.TestInputs) {
		_, err := in.Data.CreateOrder(in.Ctx, "no-such-user", nil, ldvalue.Null())
		require.Error(in.T, err)
		assert.ErrorIs(in.T, err, fixtures.ErrEntityCreationFailed)
	})

	s.run(t, "user with an order cannot be deleted first", orchestrator.API, func(in *orchestrator.TestInputs) {
		scenario, err := in.Data.CreateOrderScenario(in.Ctx, 1, ldvalue.Null())
		require.NoError(in.T, err)

		err = scenario.User.Cleanup(in.Ctx)
		require.Error(in.T, err)
		assert.Contains(in.T, err.Error(), "409")
	})
}
